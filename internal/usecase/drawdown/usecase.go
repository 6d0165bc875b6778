package drawdown

import (
	"context"

	ddDomain "microfinance-payments/internal/domain/drawdown"
	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/money"
	"microfinance-payments/internal/domain/transaction"
	"microfinance-payments/internal/domain/uow"
	"microfinance-payments/internal/usecase/ledger"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Manager moves money in and out of the draw-down pools. Loan sub-balance
// movements go through the ledger writer's per-loan boundary.
type Manager struct {
	writer *ledger.Writer
	uow    uow.UnitOfWork
	log    *logrus.Logger
}

func NewManager(w *ledger.Writer, u uow.UnitOfWork, log *logrus.Logger) *Manager {
	return &Manager{writer: w, uow: u, log: log}
}

// DepositGlobal adds to the pooled account and returns the new balance.
func (m *Manager) DepositGlobal(ctx context.Context, amount decimal.Decimal, notes, actor string) (decimal.Decimal, error) {
	if err := money.RequireAmount(amount); err != nil {
		return decimal.Zero, err
	}
	if actor == "" {
		return decimal.Zero, ledger.ErrActorRequired
	}

	var balance decimal.Decimal
	err := m.uow.WithinTx(ctx, func(r uow.Repos) error {
		acc, err := r.DrawDowns.GetGlobalForUpdate(ctx)
		if err != nil {
			return err
		}
		acc.Balance = acc.Balance.Add(amount)
		if err := r.DrawDowns.SaveGlobal(ctx, acc); err != nil {
			return err
		}
		balance = acc.Balance
		return r.DrawDowns.AppendEntry(ctx, &ddDomain.Entry{
			Account:      ddDomain.AccountGlobal,
			Direction:    ddDomain.Credit,
			Amount:       amount,
			BalanceAfter: acc.Balance,
			Notes:        notes,
			CreatedBy:    actor,
		})
	})
	if err != nil {
		return decimal.Zero, err
	}

	m.log.WithFields(logrus.Fields{
		"amount":  amount.String(),
		"balance": balance.String(),
		"actor":   actor,
	}).Info("global draw-down deposit")
	return balance, nil
}

func (m *Manager) GlobalBalance(ctx context.Context) (*GlobalDTO, error) {
	var out *GlobalDTO
	err := m.uow.WithinTx(ctx, func(r uow.Repos) error {
		acc, err := r.DrawDowns.GetGlobal(ctx)
		if err != nil {
			return err
		}
		out = &GlobalDTO{Name: acc.Name, Balance: acc.Balance}
		return nil
	})
	return out, err
}

// ApplyDrawDown spends part of a loan's draw-down sub-balance against its
// schedule. The debit and the resulting payment commit together.
func (m *Manager) ApplyDrawDown(ctx context.Context, in DrawDownInput) (*ledger.Receipt, error) {
	if err := money.RequireAmount(in.Amount); err != nil {
		return nil, err
	}
	if in.Actor == "" {
		return nil, ledger.ErrActorRequired
	}

	var rc *ledger.Receipt
	err := m.writer.WithLoan(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if in.Amount.GreaterThan(l.DrawDownBalance) {
			return ddDomain.ErrInsufficientBalance
		}
		l.DrawDownBalance = l.DrawDownBalance.Sub(in.Amount)
		loanID := l.LoanID
		if err := r.DrawDowns.AppendEntry(ctx, &ddDomain.Entry{
			Account:      ddDomain.AccountLoan,
			LoanID:       &loanID,
			Direction:    ddDomain.Debit,
			Amount:       in.Amount,
			BalanceAfter: l.DrawDownBalance,
			Notes:        in.Notes,
			CreatedBy:    in.Actor,
		}); err != nil {
			return err
		}

		var err error
		rc, err = m.writer.Post(ctx, r, l, ledger.PostInput{
			Type:   transaction.TypeDrawDownPayment,
			Amount: in.Amount,
			Method: transaction.MethodDrawDown,
			Notes:  in.Notes,
			Actor:  in.Actor,
		})
		return err
	})
	if err != nil {
		m.log.WithFields(logrus.Fields{"loan_id": in.LoanID, "amount": in.Amount.String()}).
			WithError(err).Warn("draw-down not applied")
		return nil, err
	}
	return rc, nil
}
