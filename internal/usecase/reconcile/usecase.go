package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"microfinance-payments/internal/adapter/gateway/mpesa"
	"microfinance-payments/internal/domain/intent"
	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/money"
	"microfinance-payments/internal/domain/transaction"
	"microfinance-payments/internal/domain/uow"
	"microfinance-payments/internal/usecase/ledger"
	"microfinance-payments/pkg/id"

	"github.com/sirupsen/logrus"
)

// Service correlates STK pushes with their callbacks. Confirmed payments are
// posted through the ledger writer like any other repayment.
type Service struct {
	writer  *ledger.Writer
	uow     uow.UnitOfWork
	gateway intent.Gateway
	timeout time.Duration
	log     *logrus.Logger
	nowFn   func() time.Time
}

func NewService(w *ledger.Writer, u uow.UnitOfWork, gw intent.Gateway, timeout time.Duration, log *logrus.Logger) *Service {
	return &Service{
		writer:  w,
		uow:     u,
		gateway: gw,
		timeout: timeout,
		log:     log,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// Initiate pushes a payment prompt to the borrower's phone. Nothing is stored
// unless the gateway accepts the push.
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (*intent.Intent, error) {
	if err := money.RequirePositive(in.Amount); err != nil {
		return nil, err
	}
	if !in.Amount.Equal(in.Amount.Truncate(0)) {
		return nil, fmt.Errorf("%w: mobile money amounts are whole units", money.ErrInvalidAmount)
	}
	if in.Actor == "" {
		return nil, ledger.ErrActorRequired
	}
	phone, err := mpesa.NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	if err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		_, err := r.Loans.GetByLoanID(ctx, in.LoanID)
		return err
	}); err != nil {
		return nil, err
	}

	ref := in.AccountReference
	if ref == "" {
		ref = in.LoanID
	}
	desc := in.Description
	if desc == "" {
		desc = defaultDescription
	}

	res, err := s.gateway.STKPush(ctx, intent.PushRequest{
		Amount:           in.Amount.IntPart(),
		PhoneNumber:      phone,
		AccountReference: ref,
		Description:      desc,
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"loan_id": in.LoanID, "amount": in.Amount.String()}).
			WithError(err).Warn("stk push failed")
		return nil, err
	}

	now := s.nowFn()
	it := &intent.Intent{
		IntentID:          id.NewID32(),
		LoanID:            in.LoanID,
		Amount:            in.Amount,
		PhoneNumber:       phone,
		AccountReference:  ref,
		MerchantRequestID: res.MerchantRequestID,
		CheckoutRequestID: res.CheckoutRequestID,
		State:             intent.StateRequested,
		ExpiresAt:         now.Add(s.timeout),
		CreatedBy:         in.Actor,
	}
	if err := it.Transition(intent.StatePendingConfirmation); err != nil {
		return nil, err
	}
	if err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		return r.Intents.Create(ctx, it)
	}); err != nil {
		// The phone was already prompted; its callback will find no intent.
		s.log.WithFields(logrus.Fields{
			"loan_id":             in.LoanID,
			"checkout_request_id": res.CheckoutRequestID,
		}).WithError(err).Error("stk push accepted but intent not stored")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"loan_id":             it.LoanID,
		"intent_id":           it.IntentID,
		"checkout_request_id": it.CheckoutRequestID,
		"amount":              it.Amount.String(),
		"expires_at":          it.ExpiresAt,
	}).Info("payment intent pending confirmation")
	return it, nil
}

// HandleCallback applies the gateway's verdict. A success is posted and the
// intent closed in one transaction; repeats are no-ops.
func (s *Service) HandleCallback(ctx context.Context, cb intent.Callback) error {
	entry := s.log.WithFields(logrus.Fields{
		"checkout_request_id": cb.CheckoutRequestID,
		"result_code":         cb.ResultCode,
	})

	var known *intent.Intent
	err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		known, err = r.Intents.GetByCheckoutRequestID(ctx, cb.CheckoutRequestID)
		return err
	})
	if err != nil {
		entry.WithError(err).Warn("callback for unknown payment intent")
		return err
	}
	entry = entry.WithField("loan_id", known.LoanID)

	if !cb.Succeeded() {
		return s.fail(ctx, entry, cb)
	}

	err = s.writer.WithLoan(ctx, known.LoanID, func(r uow.Repos, l *loan.Loan) error {
		it, err := r.Intents.GetByCheckoutRequestIDForUpdate(ctx, cb.CheckoutRequestID)
		if err != nil {
			return err
		}
		if it.State == intent.StateClosed {
			entry.Info("duplicate success callback ignored")
			return nil
		}
		if !cb.Amount.Equal(it.Amount) {
			entry.WithFields(logrus.Fields{
				"requested": it.Amount.String(),
				"received":  cb.Amount.String(),
			}).Warn("callback amount differs from requested amount")
		}

		actor := it.CreatedBy
		if actor == "" {
			actor = gatewayActor
		}
		rc, err := s.writer.Post(ctx, r, l, ledger.PostInput{
			Type:        transaction.TypePayment,
			Amount:      cb.Amount,
			Method:      transaction.MethodMobileMoney,
			ExternalRef: cb.ReceiptNumber,
			Notes:       "mpesa " + cb.CheckoutRequestID,
			Actor:       actor,
		})
		if err != nil {
			return err
		}

		code := cb.ResultCode
		receipt := cb.ReceiptNumber
		txID := rc.TransactionID
		it.ResultCode = &code
		it.ResultDesc = cb.ResultDesc
		it.ReceiptNumber = &receipt
		it.TransactionID = &txID

		if it.Terminal() {
			// expired, failed or cancelled: money still arrived, state stays
			it.LastError = "confirmed after " + string(it.State)
			entry.WithField("state", it.State).Warn("late success callback posted")
		} else {
			if it.State == intent.StateRequested {
				if err := it.Transition(intent.StatePendingConfirmation); err != nil {
					return err
				}
			}
			if err := it.Transition(intent.StateConfirmed); err != nil {
				return err
			}
			if err := it.Transition(intent.StateClosed); err != nil {
				return err
			}
		}
		if err := r.Intents.Save(ctx, it); err != nil {
			return err
		}

		entry.WithFields(logrus.Fields{
			"transaction_id": rc.TransactionID,
			"receipt":        cb.ReceiptNumber,
			"replayed":       rc.Replayed,
		}).Info("mobile money payment reconciled")
		return nil
	})
	if err != nil {
		entry.WithError(err).Error("callback not applied")
	}
	return err
}

func (s *Service) fail(ctx context.Context, entry *logrus.Entry, cb intent.Callback) error {
	return s.uow.WithinTx(ctx, func(r uow.Repos) error {
		it, err := r.Intents.GetByCheckoutRequestIDForUpdate(ctx, cb.CheckoutRequestID)
		if err != nil {
			return err
		}
		if it.Terminal() {
			entry.WithField("state", it.State).Info("failure callback for settled intent ignored")
			return nil
		}
		if it.State == intent.StateRequested {
			if err := it.Transition(intent.StatePendingConfirmation); err != nil {
				return err
			}
		}
		if err := it.Transition(intent.StateFailed); err != nil {
			entry.WithField("state", it.State).Warn("failure callback after confirmation ignored")
			return nil
		}
		code := cb.ResultCode
		it.ResultCode = &code
		it.ResultDesc = cb.ResultDesc
		if err := r.Intents.Save(ctx, it); err != nil {
			return err
		}
		entry.WithField("result_desc", cb.ResultDesc).Info("payment intent failed")
		return nil
	})
}

// Cancel stops waiting for a callback. The gateway is not told; a success
// that still arrives is posted.
func (s *Service) Cancel(ctx context.Context, checkoutRequestID string) (*intent.Intent, error) {
	var out *intent.Intent
	err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		it, err := r.Intents.GetByCheckoutRequestIDForUpdate(ctx, checkoutRequestID)
		if err != nil {
			return err
		}
		if err := it.Transition(intent.StateCancelled); err != nil {
			return fmt.Errorf("%w: state is %s", intent.ErrNotCancellable, it.State)
		}
		out = it
		return r.Intents.Save(ctx, it)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"loan_id":             out.LoanID,
		"checkout_request_id": checkoutRequestID,
	}).Info("payment intent cancelled")
	return out, nil
}

// ExpireStale marks intents whose callback window has closed. Each one is
// re-checked under its row lock so a callback landing meanwhile wins.
func (s *Service) ExpireStale(ctx context.Context) ([]intent.Intent, error) {
	now := s.nowFn()
	var due []intent.Intent
	if err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		due, err = r.Intents.ListPendingExpiredBefore(ctx, now)
		return err
	}); err != nil {
		return nil, err
	}

	var expired []intent.Intent
	var errs []error
	for _, d := range due {
		var it *intent.Intent
		err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
			var err error
			it, err = r.Intents.GetByCheckoutRequestIDForUpdate(ctx, d.CheckoutRequestID)
			if err != nil {
				return err
			}
			if it.State != intent.StatePendingConfirmation {
				it = nil
				return nil
			}
			if err := it.Transition(intent.StateExpired); err != nil {
				return err
			}
			it.LastError = "no callback before " + it.ExpiresAt.UTC().Format(time.RFC3339)
			return r.Intents.Save(ctx, it)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("expire %s: %w", d.CheckoutRequestID, err))
			continue
		}
		if it == nil {
			continue
		}
		expired = append(expired, *it)
		s.log.WithFields(logrus.Fields{
			"loan_id":             it.LoanID,
			"intent_id":           it.IntentID,
			"checkout_request_id": it.CheckoutRequestID,
			"amount":              it.Amount.String(),
			"phone_number":        it.PhoneNumber,
		}).Warn("payment intent expired; needs operator follow-up")
	}
	return expired, errors.Join(errs...)
}

// ListExpired is the operator queue.
func (s *Service) ListExpired(ctx context.Context) ([]intent.Intent, error) {
	var out []intent.Intent
	err := s.uow.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		out, err = r.Intents.ListByState(ctx, intent.StateExpired)
		return err
	})
	return out, err
}
