package http

import (
	"errors"
	"net/http"

	"microfinance-payments/internal/adapter/gateway/mpesa"
	"microfinance-payments/internal/domain/drawdown"
	"microfinance-payments/internal/domain/intent"
	"microfinance-payments/internal/domain/loan"
	"microfinance-payments/internal/domain/money"
	"microfinance-payments/internal/domain/schedule"
	"microfinance-payments/internal/domain/transaction"
	"microfinance-payments/internal/infrastructure/lock"
	"microfinance-payments/internal/usecase/ledger"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// httpStatus maps domain errors to HTTP codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, mpesa.ErrInvalidPhone),
		errors.Is(err, ledger.ErrActorRequired),
		errors.Is(err, ledger.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, intent.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transaction.ErrDuplicateExternalRef),
		errors.Is(err, intent.ErrNotCancellable),
		errors.Is(err, intent.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, drawdown.ErrInsufficientBalance), errors.Is(err, schedule.ErrItemOverpaid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, mpesa.ErrRequestFailed):
		return http.StatusBadGateway
	case errors.Is(err, mpesa.ErrConfiguration), errors.Is(err, lock.ErrNotAcquired):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, log *logrus.Logger, err error) error {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		log.WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Request().URL.Path,
			"status": code,
		}).WithError(err).Error("request failed")
	}
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

// bind decodes and validates the body. When it returns false the error
// response has already been written and err is what the handler returns.
func bind(c echo.Context, req any) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
