package drawdown

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInsufficientBalance = errors.New("amount exceeds available draw-down balance")

const GlobalAccountName = "global"

type Account string

const (
	AccountGlobal Account = "global"
	AccountLoan   Account = "loan"
)

type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// GlobalAccount is the single pooled buffer. It has no allocation semantics
// and is only moved by hand.
type GlobalAccount struct {
	ID        uint64          `gorm:"primaryKey;column:id" json:"-"`
	Name      string          `gorm:"column:name;size:16;uniqueIndex:ux_draw_down_accounts_name" json:"name"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(18,2);not null;default:0" json:"balance"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (GlobalAccount) TableName() string { return "draw_down_accounts" }

// Entry journals every movement of either pool.
type Entry struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"-"`
	Account      Account         `gorm:"column:account;size:16;not null;index" json:"account"`
	LoanID       *string         `gorm:"column:loan_id;size:32;index" json:"loan_id,omitempty"`
	Direction    Direction       `gorm:"column:direction;size:8;not null" json:"direction"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	BalanceAfter decimal.Decimal `gorm:"column:balance_after;type:decimal(18,2);not null" json:"balance_after"`
	Notes        string          `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedBy    string          `gorm:"column:created_by;size:64" json:"created_by"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "draw_down_entries" }
