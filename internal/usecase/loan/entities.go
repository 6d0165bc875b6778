package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanDTO struct {
	LoanID             string          `json:"loan_id"`
	BorrowerID         string          `json:"borrower_id"`
	Principal          decimal.Decimal `json:"principal"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	DrawDownBalance    decimal.Decimal `json:"draw_down_balance"`
	Status             string          `json:"status"`
	StatusUpdatedAt    time.Time       `json:"status_updated_at"`
	CreatedAt          time.Time       `json:"created_at"`
}

type ScheduleItemDTO struct {
	ItemID       string          `json:"item_id"`
	DueDate      string          `json:"due_date"`
	PrincipalDue decimal.Decimal `json:"principal_due"`
	InterestDue  decimal.Decimal `json:"interest_due"`
	TotalDue     decimal.Decimal `json:"total_due"`
	AmountPaid   decimal.Decimal `json:"amount_paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Status       string          `json:"status"`
}

type TransactionDTO struct {
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	ExternalRef   string          `json:"external_ref,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}
