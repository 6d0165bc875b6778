package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every money column stores.
const Scale = 2

var (
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrInvalidScale  = fmt.Errorf("%w with at most %d decimal places", ErrInvalidAmount, Scale)
)

// RequirePositive rejects zero and negative amounts before anything is written.
func RequirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// RequireScale rejects amounts that a decimal(18,2) column would round.
func RequireScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(Scale)) {
		return ErrInvalidScale
	}
	return nil
}

// RequireAmount is RequirePositive and RequireScale together; every
// amount entering the ledger goes through it.
func RequireAmount(amount decimal.Decimal) error {
	if err := RequirePositive(amount); err != nil {
		return err
	}
	return RequireScale(amount)
}

// Min returns the smaller of a and b.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
