package mysql

import (
	"context"
	"errors"

	txDomain "microfinance-payments/internal/domain/transaction"

	"gorm.io/gorm"
)

type TransactionRepository struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create relies on ux_transactions_loan_external_ref; the db must be opened
// with TranslateError so the driver's unique violation becomes ErrDuplicatedKey.
func (r *TransactionRepository) Create(ctx context.Context, t *txDomain.Transaction) error {
	err := r.db.WithContext(ctx).Create(t).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return txDomain.ErrDuplicateExternalRef
	}
	return err
}

func (r *TransactionRepository) GetByExternalRef(ctx context.Context, loanID, externalRef string) (*txDomain.Transaction, error) {
	var out txDomain.Transaction
	res := r.db.WithContext(ctx).
		Where("loan_id = ? AND external_ref = ?", loanID, externalRef).
		First(&out)
	return &out, res.Error
}

func (r *TransactionRepository) ListByLoanID(ctx context.Context, loanID string) ([]txDomain.Transaction, error) {
	var out []txDomain.Transaction
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}
