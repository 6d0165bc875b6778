package reconcile

import "github.com/shopspring/decimal"

type InitiateInput struct {
	LoanID           string
	Amount           decimal.Decimal
	Phone            string
	AccountReference string
	Description      string
	Actor            string
}

const (
	defaultDescription = "Loan repayment"
	gatewayActor       = "mpesa"
)
