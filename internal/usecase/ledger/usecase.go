package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microfinance-payments/internal/domain/drawdown"
	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/money"
	"microfinance-payments/internal/domain/schedule"
	"microfinance-payments/internal/domain/transaction"
	"microfinance-payments/internal/domain/uow"
	"microfinance-payments/internal/infrastructure/lock"
	"microfinance-payments/pkg/id"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrActorRequired   = errors.New("actor is required")
	ErrUnsupportedType = errors.New("unsupported transaction type")
)

// Writer is the only component that changes schedule rows and loan balances.
// Every payment origin ends in Post.
type Writer struct {
	uow   uow.UnitOfWork
	locks lock.Keyed
	log   *logrus.Logger
	nowFn func() time.Time
}

func NewWriter(u uow.UnitOfWork, locks lock.Keyed, log *logrus.Logger) *Writer {
	return &Writer{uow: u, locks: locks, log: log, nowFn: func() time.Time { return time.Now().UTC() }}
}

// WithLoan runs fn holding the loan's keyed lock and its locked row inside
// one db transaction. Calls for different loans run in parallel.
func (w *Writer) WithLoan(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	release, err := w.locks.Acquire(ctx, loanID)
	if err != nil {
		return fmt.Errorf("lock loan %s: %w", loanID, err)
	}
	defer release()
	return w.uow.WithinLoanTx(ctx, loanID, fn)
}

func (w *Writer) ApplyPayment(ctx context.Context, in PaymentInput) (*Receipt, error) {
	if in.Method == "" {
		in.Method = transaction.MethodCash
	}
	return w.postLocked(ctx, in.LoanID, PostInput{
		Type:        transaction.TypePayment,
		Amount:      in.Amount,
		Method:      in.Method,
		ExternalRef: in.ExternalRef,
		Notes:       in.Notes,
		Actor:       in.Actor,
	})
}

// PostFee records a fee. The schedule is not touched; a pending loan still
// becomes active.
func (w *Writer) PostFee(ctx context.Context, in FeeInput) (*Receipt, error) {
	if in.Method == "" {
		in.Method = transaction.MethodCash
	}
	return w.postLocked(ctx, in.LoanID, PostInput{
		Type:        transaction.TypeFee,
		Amount:      in.Amount,
		Method:      in.Method,
		ExternalRef: in.ExternalRef,
		Notes:       in.Notes,
		Actor:       in.Actor,
	})
}

func (w *Writer) postLocked(ctx context.Context, loanID string, in PostInput) (*Receipt, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	var rc *Receipt
	err := w.WithLoan(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		var err error
		rc, err = w.Post(ctx, r, l, in)
		return err
	})
	if errors.Is(err, transaction.ErrDuplicateExternalRef) && in.ExternalRef != "" {
		// The unique index fired after the in-tx check: another writer won
		// the race. Same amount is still a replay.
		return w.replayAfterConflict(ctx, loanID, in, err)
	}
	if err != nil {
		return nil, err
	}
	return rc, nil
}

// Post applies one money event to a loan whose row is already locked by the
// caller's transaction: idempotency check, allocation, item and balance
// writes, leftover deposit, the transaction record and activation.
func (w *Writer) Post(ctx context.Context, r uow.Repos, l *loan.Loan, in PostInput) (*Receipt, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	if in.ExternalRef != "" {
		prev, err := r.Transactions.GetByExternalRef(ctx, l.LoanID, in.ExternalRef)
		switch {
		case err == nil:
			return replay(prev, l, in)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}

	now := w.nowFn()
	rc := &Receipt{
		TransactionID: id.NewID32(),
		LoanID:        l.LoanID,
		Type:          in.Type,
		Amount:        in.Amount,
		Allocated:     decimal.Zero,
		Leftover:      decimal.Zero,
	}

	if in.Type != transaction.TypeFee {
		items, err := r.Schedules.ListOutstandingByLoanID(ctx, l.LoanID)
		if err != nil {
			return nil, err
		}
		alloc, err := schedule.Allocate(items, in.Amount)
		if err != nil {
			return nil, err
		}
		for _, u := range alloc.Updates {
			if err := r.Schedules.ApplyPayment(ctx, u.ID, u.AmountPaid, u.Status); err != nil {
				return nil, fmt.Errorf("update schedule item %s: %w", u.ItemID, err)
			}
			rc.Items = append(rc.Items, ItemAllocation{ItemID: u.ItemID, Amount: u.Take, AmountPaid: u.AmountPaid, Status: u.Status})
		}
		rc.Allocated = alloc.Allocated
		rc.Leftover = alloc.Leftover
		l.OutstandingBalance = l.OutstandingBalance.Sub(alloc.Allocated)
	}

	tx := &transaction.Transaction{
		TransactionID: rc.TransactionID,
		LoanID:        l.LoanID,
		Type:          in.Type,
		Amount:        in.Amount,
		Method:        in.Method,
		Notes:         in.Notes,
		CreatedBy:     in.Actor,
		CreatedAt:     now,
	}
	if in.ExternalRef != "" {
		ref := in.ExternalRef
		tx.ExternalRef = &ref
	}
	if err := r.Transactions.Create(ctx, tx); err != nil {
		return nil, err
	}

	if rc.Leftover.IsPositive() {
		depositID, err := w.depositLeftover(ctx, r, l, rc, in.Actor, now)
		if err != nil {
			return nil, err
		}
		rc.DepositTransactionID = depositID
	}

	activated := l.Activate(now)
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, err
	}

	rc.OutstandingBalance = l.OutstandingBalance
	rc.DrawDownBalance = l.DrawDownBalance
	rc.LoanStatus = l.Status

	w.log.WithFields(logrus.Fields{
		"loan_id":        l.LoanID,
		"transaction_id": rc.TransactionID,
		"type":           in.Type,
		"method":         in.Method,
		"amount":         in.Amount.String(),
		"allocated":      rc.Allocated.String(),
		"leftover":       rc.Leftover.String(),
		"activated":      activated,
	}).Info("transaction posted")
	return rc, nil
}

// depositLeftover moves an overpayment into the loan's draw-down sub-balance.
func (w *Writer) depositLeftover(ctx context.Context, r uow.Repos, l *loan.Loan, rc *Receipt, actor string, now time.Time) (string, error) {
	l.DrawDownBalance = l.DrawDownBalance.Add(rc.Leftover)

	dep := &transaction.Transaction{
		TransactionID: id.NewID32(),
		LoanID:        l.LoanID,
		Type:          transaction.TypeDeposit,
		Amount:        rc.Leftover,
		Method:        transaction.MethodOverpayment,
		Notes:         "overpayment from " + rc.TransactionID,
		CreatedBy:     actor,
		CreatedAt:     now,
	}
	if err := r.Transactions.Create(ctx, dep); err != nil {
		return "", err
	}
	loanID := l.LoanID
	if err := r.DrawDowns.AppendEntry(ctx, &drawdown.Entry{
		Account:      drawdown.AccountLoan,
		LoanID:       &loanID,
		Direction:    drawdown.Credit,
		Amount:       rc.Leftover,
		BalanceAfter: l.DrawDownBalance,
		Notes:        dep.Notes,
		CreatedBy:    actor,
	}); err != nil {
		return "", err
	}
	return dep.TransactionID, nil
}

func (w *Writer) replayAfterConflict(ctx context.Context, loanID string, in PostInput, cause error) (*Receipt, error) {
	var rc *Receipt
	err := w.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		prev, err := r.Transactions.GetByExternalRef(ctx, loanID, in.ExternalRef)
		if err != nil {
			return cause
		}
		rc, err = replay(prev, l, in)
		return err
	})
	return rc, err
}

// replay answers a repeated external reference. The same amount and type is
// an idempotent no-op; anything else is a conflict.
func replay(prev *transaction.Transaction, l *loan.Loan, in PostInput) (*Receipt, error) {
	if !prev.Amount.Equal(in.Amount) || prev.Type != in.Type {
		return nil, fmt.Errorf("%w: %s already recorded as %s %s", transaction.ErrDuplicateExternalRef, in.ExternalRef, prev.Type, prev.Amount)
	}
	return &Receipt{
		TransactionID:      prev.TransactionID,
		LoanID:             l.LoanID,
		Type:               prev.Type,
		Amount:             prev.Amount,
		OutstandingBalance: l.OutstandingBalance,
		DrawDownBalance:    l.DrawDownBalance,
		LoanStatus:         l.Status,
		Replayed:           true,
	}, nil
}

func validate(in PostInput) error {
	if err := money.RequireAmount(in.Amount); err != nil {
		return err
	}
	switch in.Type {
	case transaction.TypePayment, transaction.TypeDrawDownPayment, transaction.TypeFee:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedType, in.Type)
	}
	if in.Actor == "" {
		return ErrActorRequired
	}
	return nil
}
