package ledger

import (
	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/schedule"
	"microfinance-payments/internal/domain/transaction"

	"github.com/shopspring/decimal"
)

type PaymentInput struct {
	LoanID      string
	Amount      decimal.Decimal
	Method      transaction.Method
	ExternalRef string // empty when the payment has no external receipt
	Notes       string
	Actor       string
}

type FeeInput struct {
	LoanID      string
	Amount      decimal.Decimal
	Method      transaction.Method
	ExternalRef string
	Notes       string
	Actor       string
}

// PostInput is what every money path hands to Writer.Post.
type PostInput struct {
	Type        transaction.Type
	Amount      decimal.Decimal
	Method      transaction.Method
	ExternalRef string
	Notes       string
	Actor       string
}

type ItemAllocation struct {
	ItemID     string          `json:"item_id"`
	Amount     decimal.Decimal `json:"amount"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Status     schedule.Status `json:"status"`
}

// Receipt describes a posted (or replayed) transaction and the loan after it.
type Receipt struct {
	TransactionID        string           `json:"transaction_id"`
	LoanID               string           `json:"loan_id"`
	Type                 transaction.Type `json:"type"`
	Amount               decimal.Decimal  `json:"amount"`
	Allocated            decimal.Decimal  `json:"allocated"`
	Leftover             decimal.Decimal  `json:"leftover"`
	DepositTransactionID string           `json:"deposit_transaction_id,omitempty"`
	Items                []ItemAllocation `json:"items,omitempty"`
	OutstandingBalance   decimal.Decimal  `json:"outstanding_balance"`
	DrawDownBalance      decimal.Decimal  `json:"draw_down_balance"`
	LoanStatus           loan.Status      `json:"loan_status"`
	// Replayed is set when the external reference was already applied with
	// the same amount and nothing new was written.
	Replayed bool `json:"replayed"`
}
