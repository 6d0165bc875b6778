package schedule

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	// StatusOverdue is a display status set outside the allocator.
	StatusOverdue Status = "overdue"
)

var ErrItemOverpaid = errors.New("schedule item has amount_paid above total_due")

// Item is one installment obligation of a loan. Rows are created by schedule
// generation; only amount_paid and status are written back here.
type Item struct {
	ID           uint64          `gorm:"primaryKey;column:id" json:"-"`
	ItemID       string          `gorm:"column:item_id;size:32;uniqueIndex:ux_schedule_items_item_id" json:"item_id"`
	LoanID       string          `gorm:"column:loan_id;size:32;not null;index:idx_schedule_items_loan_due,priority:1" json:"loan_id"`
	DueDate      time.Time       `gorm:"column:due_date;type:date;not null;index:idx_schedule_items_loan_due,priority:2" json:"due_date"`
	PrincipalDue decimal.Decimal `gorm:"column:principal_due;type:decimal(18,2);not null" json:"principal_due"`
	InterestDue  decimal.Decimal `gorm:"column:interest_due;type:decimal(18,2);not null" json:"interest_due"`
	TotalDue     decimal.Decimal `gorm:"column:total_due;type:decimal(18,2);not null" json:"total_due"`
	AmountPaid   decimal.Decimal `gorm:"column:amount_paid;type:decimal(18,2);not null;default:0" json:"amount_paid"`
	Status       Status          `gorm:"column:status;size:16;not null;default:pending" json:"status"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string { return "schedule_items" }

// Outstanding is what is still owed on the item.
func (it Item) Outstanding() decimal.Decimal { return it.TotalDue.Sub(it.AmountPaid) }

// DeriveStatus is the only way a status is computed from money: paid once the
// item is covered, partial once anything is paid, otherwise prev is kept.
func DeriveStatus(amountPaid, totalDue decimal.Decimal, prev Status) Status {
	switch {
	case amountPaid.GreaterThanOrEqual(totalDue):
		return StatusPaid
	case amountPaid.IsPositive():
		return StatusPartial
	default:
		return prev
	}
}
