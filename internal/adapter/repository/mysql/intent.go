package mysql

import (
	"context"
	"time"

	intentDomain "microfinance-payments/internal/domain/intent"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IntentRepository struct{ db *gorm.DB }

func NewIntentRepository(db *gorm.DB) *IntentRepository { return &IntentRepository{db: db} }

func (r *IntentRepository) Create(ctx context.Context, i *intentDomain.Intent) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *IntentRepository) Save(ctx context.Context, i *intentDomain.Intent) error {
	return r.db.WithContext(ctx).Save(i).Error
}

func (r *IntentRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*intentDomain.Intent, error) {
	var out intentDomain.Intent
	res := r.db.WithContext(ctx).Where("checkout_request_id = ?", checkoutRequestID).First(&out)
	return &out, notFound(res.Error, intentDomain.ErrNotFound)
}

func (r *IntentRepository) GetByCheckoutRequestIDForUpdate(ctx context.Context, checkoutRequestID string) (*intentDomain.Intent, error) {
	var out intentDomain.Intent
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("checkout_request_id = ?", checkoutRequestID).
		First(&out)
	return &out, notFound(res.Error, intentDomain.ErrNotFound)
}

func (r *IntentRepository) ListPendingExpiredBefore(ctx context.Context, now time.Time) ([]intentDomain.Intent, error) {
	var out []intentDomain.Intent
	res := r.db.WithContext(ctx).
		Where("state = ? AND expires_at < ?", intentDomain.StatePendingConfirmation, now).
		Order("expires_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}

func (r *IntentRepository) ListByState(ctx context.Context, state intentDomain.State) ([]intentDomain.Intent, error) {
	var out []intentDomain.Intent
	res := r.db.WithContext(ctx).
		Where("state = ?", state).
		Order("updated_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}
