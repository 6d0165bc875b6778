package drawdown

import "github.com/shopspring/decimal"

type DrawDownInput struct {
	LoanID string
	Amount decimal.Decimal
	Notes  string
	Actor  string
}

type GlobalDTO struct {
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}
