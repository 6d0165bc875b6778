package http

import (
	"net/http"
	"strings"

	"microfinance-payments/internal/adapter/middleware"
	"microfinance-payments/internal/domain/transaction"
	"microfinance-payments/internal/usecase/drawdown"
	"microfinance-payments/internal/usecase/ledger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PaymentHandler serves the manual money paths: repayments, fees and draw-downs.
type PaymentHandler struct {
	writer    *ledger.Writer
	drawDowns *drawdown.Manager
	log       *logrus.Logger
}

func NewPaymentHandler(w *ledger.Writer, dd *drawdown.Manager, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{writer: w, drawDowns: dd, log: log}
}

type paymentReq struct {
	Amount      decimal.Decimal `json:"amount"       validate:"gt=0,dec2"`
	Method      string          `json:"method"       validate:"omitempty,oneof=cash bank mobile_money"`
	ExternalRef string          `json:"external_ref" validate:"max=64"`
	Notes       string          `json:"notes"        validate:"max=500"`
}

type drawDownReq struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0,dec2"`
	Notes  string          `json:"notes"  validate:"max=500"`
}

// actor prefers the identity the idempotency middleware accepted.
func actor(c echo.Context) string {
	if a := middleware.Actor(c); a != "" {
		return a
	}
	return strings.TrimSpace(c.Request().Header.Get("Ax-Actor-Id"))
}

func receiptStatus(rc *ledger.Receipt) int {
	if rc.Replayed {
		return http.StatusOK
	}
	return http.StatusCreated
}

func (h *PaymentHandler) ApplyPayment(c echo.Context) error {
	var req paymentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	rc, err := h.writer.ApplyPayment(c.Request().Context(), ledger.PaymentInput{
		LoanID:      c.Param("loan_id"),
		Amount:      req.Amount,
		Method:      transaction.Method(req.Method),
		ExternalRef: strings.TrimSpace(req.ExternalRef),
		Notes:       req.Notes,
		Actor:       actor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(receiptStatus(rc), rc)
}

func (h *PaymentHandler) PostFee(c echo.Context) error {
	var req paymentReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	rc, err := h.writer.PostFee(c.Request().Context(), ledger.FeeInput{
		LoanID:      c.Param("loan_id"),
		Amount:      req.Amount,
		Method:      transaction.Method(req.Method),
		ExternalRef: strings.TrimSpace(req.ExternalRef),
		Notes:       req.Notes,
		Actor:       actor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(receiptStatus(rc), rc)
}

func (h *PaymentHandler) ApplyDrawDown(c echo.Context) error {
	var req drawDownReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	rc, err := h.drawDowns.ApplyDrawDown(c.Request().Context(), drawdown.DrawDownInput{
		LoanID: c.Param("loan_id"),
		Amount: req.Amount,
		Notes:  req.Notes,
		Actor:  actor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, rc)
}

func (h *PaymentHandler) GlobalBalance(c echo.Context) error {
	dto, err := h.drawDowns.GlobalBalance(c.Request().Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PaymentHandler) DepositGlobal(c echo.Context) error {
	var req drawDownReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	bal, err := h.drawDowns.DepositGlobal(c.Request().Context(), req.Amount, req.Notes, actor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"balance": bal})
}
