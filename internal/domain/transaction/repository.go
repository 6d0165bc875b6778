package transaction

import "context"

type Repository interface {
	// Create appends; a unique violation surfaces as ErrDuplicateExternalRef.
	Create(ctx context.Context, t *Transaction) error
	GetByExternalRef(ctx context.Context, loanID, externalRef string) (*Transaction, error)
	ListByLoanID(ctx context.Context, loanID string) ([]Transaction, error)
}
