// Package uowmock provides a function-backed uow.UnitOfWork that records
// which loans a usecase tried to lock.
package uowmock

import (
	"context"
	"errors"
	"sync"

	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var ErrUnimplemented = errors.New("uowmock: method not implemented")

type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error

	mu      sync.Mutex
	txCalls int
	loanIDs []string
}

func New() *UoW { return &UoW{} }

// Failing returns a UoW whose transactions all end with err before fn runs.
func Failing(err error) *UoW {
	return &UoW{
		WithinTxFn: func(context.Context, func(uow.Repos) error) error { return err },
		WithinLoanTxFn: func(context.Context, string, func(uow.Repos, *loan.Loan) error) error {
			return err
		},
	}
}

// Serving runs every transaction body against repos, handing l to loan
// transactions.
func Serving(repos uow.Repos, l *loan.Loan) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinLoanTxFn: func(_ context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
			if l == nil || l.LoanID != loanID {
				return loan.ErrNotFound
			}
			return fn(repos, l)
		},
	}
}

func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}

func (m *UoW) WithWithinLoanTx(fn func(context.Context, string, func(uow.Repos, *loan.Loan) error) error) *UoW {
	m.WithinLoanTxFn = fn
	return m
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	m.mu.Lock()
	m.txCalls++
	m.mu.Unlock()
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return ErrUnimplemented
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	m.mu.Lock()
	m.loanIDs = append(m.loanIDs, loanID)
	m.mu.Unlock()
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return ErrUnimplemented
}

// TxCalls counts WithinTx invocations.
func (m *UoW) TxCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txCalls
}

// LockedLoans lists the loan ids passed to WithinLoanTx, in call order.
func (m *UoW) LockedLoans() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loanIDs...)
}
