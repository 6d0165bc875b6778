package uow

import (
	"context"

	"microfinance-payments/internal/domain/drawdown"
	"microfinance-payments/internal/domain/intent"
	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/schedule"
	"microfinance-payments/internal/domain/transaction"
)

// Repos are bound to one database transaction.
type Repos struct {
	Loans        loan.Repository
	Schedules    schedule.Repository
	Transactions transaction.Repository
	DrawDowns    drawdown.Repository
	Intents      intent.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the loan row first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
