package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypePayment         Type = "payment"
	TypeDrawDownPayment Type = "draw_down_payment"
	TypeFee             Type = "fee"
	TypeDeposit         Type = "deposit"
)

type Method string

const (
	MethodCash        Method = "cash"
	MethodBank        Method = "bank"
	MethodMobileMoney Method = "mobile_money"
	MethodDrawDown    Method = "draw_down"
	// MethodOverpayment marks the deposit of a payment's leftover.
	MethodOverpayment Method = "overpayment"
)

var ErrDuplicateExternalRef = errors.New("a transaction with this external reference already exists for the loan")

// Transaction is append-only. (loan_id, external_ref) is unique when
// external_ref is set; NULLs never collide.
type Transaction struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	TransactionID string          `gorm:"column:transaction_id;size:32;uniqueIndex:ux_transactions_transaction_id" json:"transaction_id"`
	LoanID        string          `gorm:"column:loan_id;size:32;not null;uniqueIndex:ux_transactions_loan_external_ref,priority:1" json:"loan_id"`
	Type          Type            `gorm:"column:type;size:24;not null" json:"type"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Method        Method          `gorm:"column:method;size:24;not null" json:"method"`
	ExternalRef   *string         `gorm:"column:external_ref;size:64;uniqueIndex:ux_transactions_loan_external_ref,priority:2" json:"external_ref,omitempty"`
	Notes         string          `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedBy     string          `gorm:"column:created_by;size:64;not null" json:"created_by"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }
