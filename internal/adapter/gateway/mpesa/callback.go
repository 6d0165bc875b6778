package mpesa

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"microfinance-payments/internal/domain/intent"
	"microfinance-payments/internal/domain/money"

	"github.com/shopspring/decimal"
)

var ErrInvalidCallback = errors.New("malformed mpesa callback")

// CallbackEnvelope is the body Daraja posts to CallBackURL.
type CallbackEnvelope struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

// MetadataItem values are numbers or strings depending on the field.
type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value,omitempty"`
}

// Ack is the only response Daraja expects, whatever happened downstream.
type Ack struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

func Accepted() Ack { return Ack{ResultCode: 0, ResultDesc: "Accepted"} }

// Callback converts the envelope. A successful result must carry at least
// the amount and the receipt number.
func (e CallbackEnvelope) Callback() (intent.Callback, error) {
	cb := e.Body.STKCallback
	out := intent.Callback{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}
	if out.CheckoutRequestID == "" {
		return out, fmt.Errorf("%w: missing CheckoutRequestID", ErrInvalidCallback)
	}
	if !out.Succeeded() || cb.CallbackMetadata == nil {
		if out.Succeeded() {
			return out, fmt.Errorf("%w: success without metadata", ErrInvalidCallback)
		}
		return out, nil
	}

	for _, it := range cb.CallbackMetadata.Item {
		v := scalar(it.Value)
		switch it.Name {
		case "Amount":
			amt, err := decimal.NewFromString(v)
			if err != nil {
				return out, fmt.Errorf("%w: amount %q", ErrInvalidCallback, v)
			}
			out.Amount = amt
		case "MpesaReceiptNumber":
			out.ReceiptNumber = v
		case "PhoneNumber":
			out.PhoneNumber = v
		case "TransactionDate":
			if ts, err := time.ParseInLocation("20060102150405", v, eat); err == nil {
				out.TransactionDate = ts.UTC()
			}
		}
	}
	if out.ReceiptNumber == "" {
		return out, fmt.Errorf("%w: success without receipt", ErrInvalidCallback)
	}
	if err := money.RequireAmount(out.Amount); err != nil {
		return out, fmt.Errorf("%w: amount %s: %v", ErrInvalidCallback, out.Amount, err)
	}
	return out, nil
}

// scalar renders a JSON number or string as plain text.
func scalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
