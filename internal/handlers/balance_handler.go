package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "flux/internal/errors"
	"flux/internal/models"
	"flux/internal/pagination"
	"flux/internal/services"
)

// BalanceHandler serves balance snapshots.
type BalanceHandler struct {
	balanceService services.BalanceServicer
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balanceService services.BalanceServicer) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

// CurrentBalance returns the caller's latest snapshot.
// @Summary     Current balance
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Envelope{data=models.Balance}
// @Router      /balances/current [get]
func (h *BalanceHandler) CurrentBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.balanceService.CurrentBalance(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Balance retrieved successfully", balance)
}

// History returns the caller's snapshots, newest first.
// @Summary     Balance history
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Zero-based page"
// @Param       size query int false "Page size (max 100)"
// @Success     200 {object} PageEnvelope{content=[]models.Balance}
// @Router      /balances/history [get]
func (h *BalanceHandler) History(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.balanceService.History(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondPage(c, http.StatusOK, "Balance history retrieved successfully", result)
}

// HistoryByPeriod returns snapshots calculated between startDate and endDate.
// A date-only endDate covers that whole day.
// @Summary     Balance history by period
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Param       startDate query string true  "RFC 3339 timestamp or YYYY-MM-DD"
// @Param       endDate   query string true  "RFC 3339 timestamp or YYYY-MM-DD"
// @Param       page      query int    false "Zero-based page"
// @Param       size      query int    false "Page size (max 100)"
// @Success     200 {object} PageEnvelope{content=[]models.Balance}
// @Failure     400 {object} middleware.ErrorEnvelope
// @Router      /balances/history/period [get]
func (h *BalanceHandler) HistoryByPeriod(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	rawStart, rawEnd := c.Query("startDate"), c.Query("endDate")
	if rawStart == "" || rawEnd == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "startDate and endDate are required"))
		return
	}
	start, err := parseDate("startDate", rawStart)
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseDate("endDate", rawEnd)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if len(rawEnd) == len(models.DateLayout) {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	result, err := h.balanceService.HistoryByPeriod(c.Request.Context(), userID, start, end, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondPage(c, http.StatusOK, "Balance history retrieved successfully", result)
}

// ExpensesAndIncomes returns the caller's complete ledger.
// @Summary     Full ledger
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Envelope{data=services.Ledger}
// @Router      /balances/expenses-incomes [get]
func (h *BalanceHandler) ExpensesAndIncomes(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ledger, err := h.balanceService.ExpensesAndIncomes(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Expenses and incomes retrieved successfully", ledger)
}

// Calculate recomputes the caller's balance now.
// @Summary     Recalculate balance
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Envelope{data=models.Balance}
// @Router      /balances/calculate [post]
func (h *BalanceHandler) Calculate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balance, err := h.balanceService.Recalculate(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Balance calculated successfully", balance)
}

// Clear deletes the caller's balance history.
// @Summary     Clear balance history
// @Tags        balances
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Envelope
// @Router      /balances/clear [delete]
func (h *BalanceHandler) Clear(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.balanceService.Clear(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Balance history cleared successfully", gin.H{"deleted": deleted})
}
