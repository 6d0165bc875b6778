package schedule

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// Create is used by schedule generation, which lives outside this service.
	Create(ctx context.Context, it *Item) error

	// ListByLoanID returns every item of the loan ordered by due date.
	ListByLoanID(ctx context.Context, loanID string) ([]Item, error)

	// ListOutstandingByLoanID returns non-paid items ordered by due date, then id.
	ListOutstandingByLoanID(ctx context.Context, loanID string) ([]Item, error)

	// ApplyPayment writes back amount_paid and status only.
	ApplyPayment(ctx context.Context, id uint64, amountPaid decimal.Decimal, status Status) error
}
