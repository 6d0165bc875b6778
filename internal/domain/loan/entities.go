package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusRejected  Status = "rejected"
	StatusPostponed Status = "postponed"
	StatusClosed    Status = "closed"
)

var ErrNotFound = errors.New("loan not found")

// Loan carries the two balances this service owns. OutstandingBalance only
// moves through schedule allocation, DrawDownBalance through overpayment
// deposits and draw-down applications.
type Loan struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID             string          `gorm:"column:loan_id;size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID         string          `gorm:"column:borrower_id;size:32;index:idx_loans_borrower" json:"borrower_id"`
	Principal          decimal.Decimal `gorm:"column:principal;type:decimal(18,2);not null" json:"principal"`
	OutstandingBalance decimal.Decimal `gorm:"column:outstanding_balance;type:decimal(18,2);not null" json:"outstanding_balance"`
	DrawDownBalance    decimal.Decimal `gorm:"column:draw_down_balance;type:decimal(18,2);not null;default:0" json:"draw_down_balance"`
	Status             Status          `gorm:"column:status;size:16;not null;default:pending" json:"status"`
	StatusUpdatedAt    time.Time       `gorm:"column:status_updated_at" json:"status_updated_at"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Activate promotes a pending loan on its first posting. It reports whether
// the status changed.
func (l *Loan) Activate(now time.Time) bool {
	if l.Status != StatusPending {
		return false
	}
	l.Status = StatusActive
	l.StatusUpdatedAt = now
	return true
}
