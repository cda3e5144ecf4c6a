package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"flux/internal/models"
	"flux/internal/pagination"
	"flux/internal/services"
)

// IncomeHandler handles income-related requests
type IncomeHandler struct {
	incomeService services.IncomeServicer
}

// NewIncomeHandler creates a new IncomeHandler
func NewIncomeHandler(incomeService services.IncomeServicer) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService}
}

// IncomeRequest is the payload for creating an income. UserID may be
// omitted; if present it must be the caller.
type IncomeRequest struct {
	UserID          string                 `json:"userId" binding:"omitempty,uuid"`
	Title           string                 `json:"title" binding:"required,max=50"`
	Description     string                 `json:"description" binding:"max=255"`
	Category        models.IncomeCategory `json:"category" binding:"required,income_category"`
	Amount          decimal.Decimal        `json:"amount" swaggertype:"number"`
	TransactionDate string                 `json:"transactionDate" example:"2024-05-01T12:00:00Z"`
}

// UpdateIncomeRequest is a partial income update. Omitted fields are unchanged.
type UpdateIncomeRequest struct {
	Title           string                 `json:"title" binding:"omitempty,max=50"`
	Description     string                 `json:"description" binding:"omitempty,max=255"`
	Category        models.IncomeCategory `json:"category" binding:"omitempty,income_category"`
	Amount          *decimal.Decimal       `json:"amount" swaggertype:"number"`
	TransactionDate string                 `json:"transactionDate"`
}

func (r IncomeRequest) input() (services.IncomeInput, error) {
	date, err := parseDate("transactionDate", r.TransactionDate)
	if err != nil {
		return services.IncomeInput{}, err
	}
	return services.IncomeInput{
		OwnerID:         r.UserID,
		Title:           r.Title,
		Description:     r.Description,
		Category:        r.Category,
		Amount:          r.Amount,
		TransactionDate: date,
	}, nil
}

// CreateIncome records an income for the caller.
// @Summary     Create income
// @Tags        incomes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body IncomeRequest true "Income"
// @Success     201 {object} Envelope{data=models.Income}
// @Failure     400 {object} middleware.ErrorEnvelope
// @Failure     403 {object} middleware.ErrorEnvelope
// @Router      /incomes [post]
func (h *IncomeHandler) CreateIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req IncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	input, err := req.input()
	if err != nil {
		respondWithError(c, err)
		return
	}

	income, err := h.incomeService.CreateIncome(c.Request.Context(), userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Income created successfully", income)
}

// CreateIncomes records several incomes at once; either all or none are stored.
// @Summary     Create incomes in bulk
// @Tags        incomes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body []IncomeRequest true "Incomes"
// @Success     201 {object} Envelope{data=[]models.Income}
// @Failure     400 {object} middleware.ErrorEnvelope
// @Router      /incomes/batch [post]
func (h *IncomeHandler) CreateIncomes(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var reqs []IncomeRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	inputs := make([]services.IncomeInput, 0, len(reqs))
	for _, req := range reqs {
		input, err := req.input()
		if err != nil {
			respondWithError(c, err)
			return
		}
		inputs = append(inputs, input)
	}

	incomes, err := h.incomeService.CreateIncomes(c.Request.Context(), userID, inputs)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Incomes created successfully", incomes)
}

// ListIncomes returns a page of the caller's incomes.
// @Summary     List incomes
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Zero-based page"
// @Param       size      query int    false "Page size (max 100)"
// @Param       sortBy    query string false "category, amount, transactionDate or title"
// @Param       direction query string false "asc or desc"
// @Success     200 {object} PageEnvelope{content=[]models.Income}
// @Router      /incomes [get]
func (h *IncomeHandler) ListIncomes(c *gin.Context) {
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

	result, err := h.incomeService.ListIncomes(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respondPage(c, http.StatusOK, "Incomes retrieved successfully", result)
}

// GetIncome returns one of the caller's incomes.
// @Summary     Get income
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income ID"
// @Success     200 {object} Envelope{data=models.Income}
// @Failure     403 {object} middleware.ErrorEnvelope
// @Failure     404 {object} middleware.ErrorEnvelope
// @Router      /incomes/{id} [get]
func (h *IncomeHandler) GetIncome(c *gin.Context) {
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

	income, err := h.incomeService.GetIncomeByID(c.Request.Context(), userID, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Income retrieved successfully", income)
}

// UpdateIncome applies a partial update to one of the caller's incomes.
// @Summary     Update income
// @Tags        incomes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Income ID"
// @Param       request body UpdateIncomeRequest true "Fields to change"
// @Success     200 {object} Envelope{data=models.Income}
// @Failure     400 {object} middleware.ErrorEnvelope
// @Failure     404 {object} middleware.ErrorEnvelope
// @Router      /incomes/{id} [put]
func (h *IncomeHandler) UpdateIncome(c *gin.Context) {
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

	var req UpdateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}
	update := services.IncomeUpdate{
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

	income, err := h.incomeService.UpdateIncome(c.Request.Context(), userID, id, update)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Income updated successfully", income)
}

// DeleteIncome removes one of the caller's incomes.
// @Summary     Delete income
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Income ID"
// @Success     200 {object} Envelope
// @Failure     404 {object} middleware.ErrorEnvelope
// @Router      /incomes/{id} [delete]
func (h *IncomeHandler) DeleteIncome(c *gin.Context) {
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

	if err := h.incomeService.DeleteIncome(c.Request.Context(), userID, id); err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Income deleted successfully", nil)
}

// ClearIncomes deletes all of the caller's incomes.
// @Summary     Clear incomes
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Envelope
// @Router      /incomes/clear [delete]
func (h *IncomeHandler) ClearIncomes(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	deleted, err := h.incomeService.ClearIncomes(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Incomes cleared successfully", gin.H{"deleted": deleted})
}
