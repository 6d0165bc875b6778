package loan

import (
	"context"

	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/schedule"
	"microfinance-payments/internal/domain/transaction"
)

// Usecase serves read-only views of a loan, its schedule and its ledger.
type Usecase struct {
	loans     loan.Repository
	schedules schedule.Repository
	txs       transaction.Repository
}

func NewUsecase(l loan.Repository, s schedule.Repository, t transaction.Repository) *Usecase {
	return &Usecase{loans: l, schedules: s, txs: t}
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return &LoanDTO{
		LoanID:             l.LoanID,
		BorrowerID:         l.BorrowerID,
		Principal:          l.Principal,
		OutstandingBalance: l.OutstandingBalance,
		DrawDownBalance:    l.DrawDownBalance,
		Status:             string(l.Status),
		StatusUpdatedAt:    l.StatusUpdatedAt,
		CreatedAt:          l.CreatedAt,
	}, nil
}

func (u *Usecase) Schedule(ctx context.Context, loanID string) ([]ScheduleItemDTO, error) {
	if _, err := u.loans.GetByLoanID(ctx, loanID); err != nil {
		return nil, err
	}
	items, err := u.schedules.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]ScheduleItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, ScheduleItemDTO{
			ItemID:       it.ItemID,
			DueDate:      it.DueDate.Format("2006-01-02"),
			PrincipalDue: it.PrincipalDue,
			InterestDue:  it.InterestDue,
			TotalDue:     it.TotalDue,
			AmountPaid:   it.AmountPaid,
			Outstanding:  it.Outstanding(),
			Status:       string(it.Status),
		})
	}
	return out, nil
}

// Transactions lists the loan's ledger oldest first.
func (u *Usecase) Transactions(ctx context.Context, loanID string) ([]TransactionDTO, error) {
	if _, err := u.loans.GetByLoanID(ctx, loanID); err != nil {
		return nil, err
	}
	txs, err := u.txs.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionDTO, 0, len(txs))
	for _, t := range txs {
		dto := TransactionDTO{
			TransactionID: t.TransactionID,
			Type:          string(t.Type),
			Amount:        t.Amount,
			Method:        string(t.Method),
			Notes:         t.Notes,
			CreatedBy:     t.CreatedBy,
			CreatedAt:     t.CreatedAt,
		}
		if t.ExternalRef != nil {
			dto.ExternalRef = *t.ExternalRef
		}
		out = append(out, dto)
	}
	return out, nil
}
