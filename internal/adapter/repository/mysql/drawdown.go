package mysql

import (
	"context"

	ddDomain "microfinance-payments/internal/domain/drawdown"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DrawDownRepository struct{ db *gorm.DB }

func NewDrawDownRepository(db *gorm.DB) *DrawDownRepository { return &DrawDownRepository{db: db} }

func (r *DrawDownRepository) GetGlobal(ctx context.Context) (*ddDomain.GlobalAccount, error) {
	return r.global(r.db.WithContext(ctx))
}

func (r *DrawDownRepository) GetGlobalForUpdate(ctx context.Context) (*ddDomain.GlobalAccount, error) {
	return r.global(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}))
}

func (r *DrawDownRepository) global(q *gorm.DB) (*ddDomain.GlobalAccount, error) {
	out := ddDomain.GlobalAccount{Name: ddDomain.GlobalAccountName, Balance: decimal.Zero}
	res := q.Where(ddDomain.GlobalAccount{Name: ddDomain.GlobalAccountName}).FirstOrCreate(&out)
	return &out, res.Error
}

func (r *DrawDownRepository) SaveGlobal(ctx context.Context, a *ddDomain.GlobalAccount) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *DrawDownRepository) AppendEntry(ctx context.Context, e *ddDomain.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}
