package intent

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PushRequest asks the gateway to prompt a phone for payment. Amount is in
// whole currency units.
type PushRequest struct {
	Amount           int64
	PhoneNumber      string
	AccountReference string
	Description      string
}

type PushResult struct {
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseDescription string
	CustomerMessage     string
}

type Gateway interface {
	STKPush(ctx context.Context, req PushRequest) (*PushResult, error)
}

// Callback is the gateway's asynchronous verdict on a push. The payment
// fields are only set when ResultCode is 0.
type Callback struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Amount            decimal.Decimal
	ReceiptNumber     string
	PhoneNumber       string
	TransactionDate   time.Time
}

func (c Callback) Succeeded() bool { return c.ResultCode == 0 }
