package http

import (
	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Health   *Handler
	Loans    *LoanHandler
	Payments *PaymentHandler
	Mpesa    *MpesaHandler
}

// Register mounts every route. Mutating manual routes take the idempotency
// middleware when one is given; the gateway callback never does.
func Register(e *echo.Echo, h Handlers, idempotency echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if idempotency != nil {
		mw = append(mw, idempotency)
	}

	e.GET("/health", h.Health.Health)

	e.GET("/loans/:loan_id", h.Loans.GetLoan)
	e.GET("/loans/:loan_id/schedule", h.Loans.GetSchedule)
	e.GET("/loans/:loan_id/transactions", h.Loans.GetTransactions)

	e.POST("/loans/:loan_id/payments", h.Payments.ApplyPayment, mw...)
	e.POST("/loans/:loan_id/fees", h.Payments.PostFee, mw...)
	e.POST("/loans/:loan_id/draw-downs", h.Payments.ApplyDrawDown, mw...)
	e.POST("/loans/:loan_id/mpesa/stk-push", h.Mpesa.Initiate, mw...)

	e.GET("/draw-down/global", h.Payments.GlobalBalance)
	e.POST("/draw-down/global/deposits", h.Payments.DepositGlobal, mw...)

	e.POST("/mpesa/callback", h.Mpesa.Callback)
	e.POST("/mpesa/intents/:checkout_request_id/cancel", h.Mpesa.Cancel, mw...)
	e.GET("/mpesa/intents/expired", h.Mpesa.ListExpired)
}
