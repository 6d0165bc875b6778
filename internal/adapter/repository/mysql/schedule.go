package mysql

import (
	"context"

	scheduleDomain "microfinance-payments/internal/domain/schedule"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ScheduleRepository struct{ db *gorm.DB }

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository { return &ScheduleRepository{db: db} }

func (r *ScheduleRepository) Create(ctx context.Context, it *scheduleDomain.Item) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *ScheduleRepository) ListByLoanID(ctx context.Context, loanID string) ([]scheduleDomain.Item, error) {
	var out []scheduleDomain.Item
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("due_date ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *ScheduleRepository) ListOutstandingByLoanID(ctx context.Context, loanID string) ([]scheduleDomain.Item, error) {
	var out []scheduleDomain.Item
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND status <> ?", loanID, scheduleDomain.StatusPaid).
		Order("due_date ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *ScheduleRepository) ApplyPayment(ctx context.Context, id uint64, amountPaid decimal.Decimal, status scheduleDomain.Status) error {
	res := r.db.WithContext(ctx).
		Model(&scheduleDomain.Item{}).
		Where("id = ?", id).
		Updates(map[string]any{"amount_paid": amountPaid, "status": status})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
