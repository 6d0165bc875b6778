package http

import (
	"net/http"

	"microfinance-payments/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type LoanHandler struct {
	uc  *loan.Usecase
	log *logrus.Logger
}

func NewLoanHandler(uc *loan.Usecase, log *logrus.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, log: log}
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetSchedule(c echo.Context) error {
	items, err := h.uc.Schedule(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": c.Param("loan_id"), "items": items})
}

func (h *LoanHandler) GetTransactions(c echo.Context) error {
	txs, err := h.uc.Transactions(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loan_id": c.Param("loan_id"), "transactions": txs})
}
