package http

import (
	"net/http"

	"microfinance-payments/internal/adapter/gateway/mpesa"
	"microfinance-payments/internal/usecase/reconcile"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type MpesaHandler struct {
	svc *reconcile.Service
	log *logrus.Logger
}

func NewMpesaHandler(svc *reconcile.Service, log *logrus.Logger) *MpesaHandler {
	return &MpesaHandler{svc: svc, log: log}
}

type stkPushReq struct {
	Amount           decimal.Decimal `json:"amount"            validate:"gt=0,intlike"`
	Phone            string          `json:"phone"             validate:"required,max=20"`
	AccountReference string          `json:"account_reference" validate:"max=32"`
	Description      string          `json:"description"       validate:"max=64"`
}

func (h *MpesaHandler) Initiate(c echo.Context) error {
	var req stkPushReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	it, err := h.svc.Initiate(c.Request().Context(), reconcile.InitiateInput{
		LoanID:           c.Param("loan_id"),
		Amount:           req.Amount,
		Phone:            req.Phone,
		AccountReference: req.AccountReference,
		Description:      req.Description,
		Actor:            actor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusAccepted, it)
}

// Callback always acknowledges. Daraja retries anything else, and every
// failure here is already logged for the operator.
func (h *MpesaHandler) Callback(c echo.Context) error {
	var env mpesa.CallbackEnvelope
	if err := c.Bind(&env); err != nil {
		h.log.WithError(err).Warn("unreadable mpesa callback")
		return c.JSON(http.StatusOK, mpesa.Accepted())
	}
	cb, err := env.Callback()
	if err != nil {
		h.log.WithField("checkout_request_id", cb.CheckoutRequestID).WithError(err).Warn("rejected mpesa callback")
		return c.JSON(http.StatusOK, mpesa.Accepted())
	}
	if err := h.svc.HandleCallback(c.Request().Context(), cb); err != nil {
		// the service has logged the failure with its context
		h.log.WithField("checkout_request_id", cb.CheckoutRequestID).WithError(err).Debug("mpesa callback acked after failure")
	}
	return c.JSON(http.StatusOK, mpesa.Accepted())
}

func (h *MpesaHandler) Cancel(c echo.Context) error {
	it, err := h.svc.Cancel(c.Request().Context(), c.Param("checkout_request_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, it)
}

func (h *MpesaHandler) ListExpired(c echo.Context) error {
	items, err := h.svc.ListExpired(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}
