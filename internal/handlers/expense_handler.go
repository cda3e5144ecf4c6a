package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"flux/internal/models"
	"flux/internal/pagination"
	"flux/internal/services"
)

// ExpenseHandler handles expense-related requests
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// ExpenseRequest is the payload for creating an expense. UserID may be
// omitted; if present it must be the caller.
type ExpenseRequest struct {
	UserID          string                 `json:"userId" binding:"omitempty,uuid"`
	Title           string                 `json:"title" binding:"required,max=50"`
	Description     string                 `json:"description" binding:"max=255"`
	Category        models.ExpenseCategory `json:"category" binding:"required,expense_category"`
	Amount          decimal.Decimal        `json:"amount" swaggertype:"number"`
	TransactionDate string                 `json:"transactionDate" example:"2024-05-01T12:00:00Z"`
}

// UpdateExpenseRequest is a partial expense update. Omitted fields are unchanged.
type UpdateExpenseRequest struct {
	Title           string                 `json:"title" binding:"omitempty,max=50"`
	Description     string                 `json:"description" binding:"omitempty,max=255"`
	Category        models.ExpenseCategory `json:"category" binding:"omitempty,expense_category"`
	Amount          *decimal.Decimal       `json:"amount" swaggertype:"number"`
	TransactionDate string                 `json:"transactionDate"`
}

func (r ExpenseRequest) input() (services.ExpenseInput, error) {
	date, err := parseDate("transactionDate", r.TransactionDate)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	return services.ExpenseInput{
		OwnerID:         r.UserID,
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Amount:          r.Amount,
		TransactionDate: date,
	}, nil
}

// CreateExpense records an expense for the caller.
// @Summary     Create expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExpenseRequest true "Expense"
// @Success     201 {object} Envelope{data=models.Expense}
// @Failure     400 {object} middleware.ErrorEnvelope
// @Failure     403 {object} middleware.ErrorEnvelope
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Expense created successfully", expense)
}

// CreateExpenses records several expenses at once; either all or none are stored.
// @Summary     Create expenses in bulk
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body []ExpenseRequest true "Expenses"
// @Success     201 {object} Envelope{data=[]models.Expense}
// @Failure     400 {object} middleware.ErrorEnvelope
// @Router      /expenses/batch [post]
func (h *ExpenseHandler) CreateExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var reqs []ExpenseRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	inputs := make([]services.ExpenseInput, 0, len(reqs))
	for _, req := range reqs {
		input, err := req.input()
		if err != nil {
			respondWithError(c, err)
			return
		}
		inputs = append(inputs, input)
	}

	expenses, err := h.expenseService.CreateExpenses(c.Request.Context(), userID, inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Expenses created successfully", expenses)
}

// ListExpenses returns a page of the caller's expenses.
// @Summary     List expenses
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Zero-based page"
// @Param       size      query int    false "Page size (max 100)"
// @Param       sortBy    query string false "category, amount, transactionDate or title"
// @Param       direction query string false "asc or desc"
// @Success     200 {object} PageEnvelope{content=[]models.Expense}
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
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

	result, err := h.expenseService.ListExpenses(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondPage(c, http.StatusOK, "Expenses retrieved successfully", result)
}

// GetExpense returns one of the caller's expenses.
// @Summary     Get expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} Envelope{data=models.Expense}
// @Failure     403 {object} middleware.ErrorEnvelope
// @Failure     404 {object} middleware.ErrorEnvelope
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Expense retrieved successfully", expense)
}

// UpdateExpense applies a partial update to one of the caller's expenses.
// @Summary     Update expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to change"
// @Success     200 {object} Envelope{data=models.Expense}
// @Failure     400 {object} middleware.ErrorEnvelope
// @Failure     404 {object} middleware.ErrorEnvelope
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	update := services.ExpenseUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
	}
	if req.TransactionDate != "" {
		date, err := parseDate("transactionDate", req.TransactionDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		update.TransactionDate = &date
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), userID, id, update)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Expense updated successfully", expense)
}

// DeleteExpense removes one of the caller's expenses.
// @Summary     Delete expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} Envelope
// @Failure     404 {object} middleware.ErrorEnvelope
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Expense deleted successfully", nil)
}

// ClearExpenses deletes all of the caller's expenses.
// @Summary     Clear expenses
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Envelope
// @Router      /expenses/clear [delete]
func (h *ExpenseHandler) ClearExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.expenseService.ClearExpenses(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Expenses cleared successfully", gin.H{"deleted": deleted})
}
