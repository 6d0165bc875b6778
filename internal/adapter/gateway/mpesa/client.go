// Package mpesa talks to the Safaricom Daraja API: STK push requests out and
// payment callbacks in.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"microfinance-payments/internal/domain/intent"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

var (
	ErrConfiguration = errors.New("mpesa gateway is not configured")
	ErrRequestFailed = errors.New("mpesa gateway request failed")
)

const (
	tokenPath = "/oauth/v1/generate?grant_type=client_credentials"
	pushPath  = "/mpesa/stkpush/v1/processrequest"

	transactionType = "CustomerPayBillOnline"
	tokenMargin     = time.Minute
	maxTokenRetries = 3

	maxAccountRefLen = 12
	maxDescLen       = 13
)

// eat is Kenya time; Daraja timestamps are local.
var eat = time.FixedZone("EAT", 3*60*60)

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	PassKey        string
	CallbackURL    string
	Timeout        time.Duration
}

func (c Config) validate() error {
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"MPESA_BASE_URL", c.BaseURL},
		{"MPESA_CONSUMER_KEY", c.ConsumerKey},
		{"MPESA_CONSUMER_SECRET", c.ConsumerSecret},
		{"MPESA_SHORTCODE", c.ShortCode},
		{"MPESA_PASSKEY", c.PassKey},
		{"MPESA_CALLBACK_URL", c.CallbackURL},
	} {
		if f.v == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

type Client struct {
	cfg        Config
	hc         *http.Client
	log        *logrus.Logger
	nowFn      func() time.Time
	newBackOff func() backoff.BackOff

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

var _ intent.Gateway = (*Client)(nil)

func NewClient(cfg Config, hc *http.Client, log *logrus.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		cfg:        cfg,
		hc:         hc,
		log:        log,
		nowFn:      time.Now,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Timestamp formats t the way Daraja expects.
func Timestamp(t time.Time) string { return t.In(eat).Format("20060102150405") }

// Password is base64(shortcode + passkey + timestamp).
func Password(shortCode, passKey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passKey + timestamp))
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessToken returns the cached bearer token, fetching a new one with
// retries once it is within a minute of expiring.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	if c.token != "" && now.Before(c.tokenExp) {
		return c.token, nil
	}

	var tr tokenResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+tokenPath, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		switch {
		case resp.StatusCode >= 500:
			return fmt.Errorf("token endpoint status %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("%w: token endpoint status %d: %s", ErrRequestFailed, resp.StatusCode, body))
		}
		if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
			return backoff.Permanent(fmt.Errorf("%w: malformed token response", ErrRequestFailed))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), maxTokenRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		if !errors.Is(err, ErrRequestFailed) {
			err = fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		return "", err
	}

	ttl, err := strconv.Atoi(tr.ExpiresIn)
	if err != nil || ttl <= 0 {
		ttl = 3599
	}
	c.token = tr.AccessToken
	c.tokenExp = now.Add(time.Duration(ttl)*time.Second - tokenMargin)
	return c.token, nil
}

func (c *Client) dropToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`

	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// STKPush prompts the customer's phone. It is never retried: a repeated
// push would prompt the customer twice.
func (c *Client) STKPush(ctx context.Context, in intent.PushRequest) (*intent.PushResult, error) {
	if err := c.cfg.validate(); err != nil {
		return nil, err
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := Timestamp(c.nowFn())
	payload, err := json.Marshal(stkPushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.PassKey, ts),
		Timestamp:         ts,
		TransactionType:   transactionType,
		Amount:            in.Amount,
		PartyA:            in.PhoneNumber,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       in.PhoneNumber,
		CallBackURL:       c.cfg.CallbackURL,
		AccountReference:  truncate(in.AccountReference, maxAccountRefLen),
		TransactionDesc:   truncate(in.Description, maxDescLen),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+pushPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.dropToken()
	}

	var out stkPushResponse
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, body)
	}
	if resp.StatusCode/100 != 2 || out.ErrorCode != "" || out.ResponseCode != "0" || out.CheckoutRequestID == "" {
		c.log.WithFields(logrus.Fields{
			"status":        resp.StatusCode,
			"error_code":    out.ErrorCode,
			"error_message": out.ErrorMessage,
			"response_code": out.ResponseCode,
		}).Warn("stk push rejected")
		msg := out.ErrorMessage
		if msg == "" {
			msg = out.ResponseDescription
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, msg)
	}

	c.log.WithFields(logrus.Fields{
		"checkout_request_id": out.CheckoutRequestID,
		"merchant_request_id": out.MerchantRequestID,
		"amount":              in.Amount,
	}).Info("stk push accepted")

	return &intent.PushResult{
		MerchantRequestID:   out.MerchantRequestID,
		CheckoutRequestID:   out.CheckoutRequestID,
		ResponseDescription: out.ResponseDescription,
		CustomerMessage:     out.CustomerMessage,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
