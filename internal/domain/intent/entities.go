package intent

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateRequested           State = "requested"
	StatePendingConfirmation State = "pending_confirmation"
	StateConfirmed           State = "confirmed"
	StateClosed              State = "closed"
	StateFailed              State = "failed"
	StateExpired             State = "expired"
	StateCancelled           State = "cancelled"
)

var (
	ErrNotFound          = errors.New("payment intent not found")
	ErrInvalidTransition = errors.New("invalid payment intent transition")
	ErrNotCancellable    = errors.New("payment intent can no longer be cancelled")
)

// Intent correlates an STK push with its asynchronous callback.
type Intent struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	IntentID          string          `gorm:"column:intent_id;size:32;uniqueIndex:ux_payment_intents_intent_id" json:"intent_id"`
	LoanID            string          `gorm:"column:loan_id;size:32;not null;index" json:"loan_id"`
	Amount            decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	PhoneNumber       string          `gorm:"column:phone_number;size:16;not null" json:"phone_number"`
	AccountReference  string          `gorm:"column:account_reference;size:32" json:"account_reference"`
	MerchantRequestID string          `gorm:"column:merchant_request_id;size:64" json:"merchant_request_id"`
	CheckoutRequestID string          `gorm:"column:checkout_request_id;size:64;uniqueIndex:ux_payment_intents_checkout" json:"checkout_request_id"`
	State             State           `gorm:"column:state;size:24;not null;index:idx_payment_intents_state_expiry,priority:1" json:"state"`
	ResultCode        *int            `gorm:"column:result_code" json:"result_code,omitempty"`
	ResultDesc        string          `gorm:"column:result_desc;type:text" json:"result_desc,omitempty"`
	ReceiptNumber     *string         `gorm:"column:receipt_number;size:64" json:"receipt_number,omitempty"`
	TransactionID     *string         `gorm:"column:transaction_id;size:32" json:"transaction_id,omitempty"`
	LastError         string          `gorm:"column:last_error;type:text" json:"last_error,omitempty"`
	ExpiresAt         time.Time       `gorm:"column:expires_at;index:idx_payment_intents_state_expiry,priority:2" json:"expires_at"`
	CreatedBy         string          `gorm:"column:created_by;size:64" json:"created_by"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Intent) TableName() string { return "payment_intents" }

var transitions = map[State][]State{
	StateRequested:           {StatePendingConfirmation, StateCancelled},
	StatePendingConfirmation: {StateConfirmed, StateFailed, StateExpired, StateCancelled},
	StateConfirmed:           {StateClosed},
}

// CanTransition reports whether from -> to is an edge of the intent state machine.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the intent along one edge.
func (i *Intent) Transition(to State) error {
	if !CanTransition(i.State, to) {
		return ErrInvalidTransition
	}
	i.State = to
	return nil
}

// Terminal reports whether no further callback can change the intent's state.
func (i *Intent) Terminal() bool {
	switch i.State {
	case StateClosed, StateFailed, StateExpired, StateCancelled:
		return true
	}
	return false
}
