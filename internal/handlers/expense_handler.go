package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/repository"
	"spendwise/internal/services"
)

// ExpenseHandler handles expense CRUD, listing, and summary requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	summaryService services.SummaryServicer
	auditService   services.AuditServicer
	loc            *time.Location
}

// NewExpenseHandler creates a new ExpenseHandler. Bare calendar dates in
// requests are interpreted in loc.
func NewExpenseHandler(
	expenseService services.ExpenseServicer,
	summaryService services.SummaryServicer,
	auditService services.AuditServicer,
	loc *time.Location,
) *ExpenseHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ExpenseHandler{
		expenseService: expenseService,
		summaryService: summaryService,
		auditService:   auditService,
		loc:            loc,
	}
}

// ExpenseRequest is the payload for creating or replacing an expense. Length
// limits apply to the trimmed text and are enforced by the service.
type ExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount" binding:"required" swaggertype:"number" example:"12.5"`
	Description string           `json:"description" binding:"required,notblank"`
	Category    models.Category  `json:"category" binding:"required,expense_category" example:"Food"`
	Date        *string          `json:"date" example:"2024-03-10"`
	Notes       string           `json:"notes"`
}

// ExpenseEnvelope wraps one expense in the success envelope.
type ExpenseEnvelope struct {
	Success bool           `json:"success" example:"true"`
	Data    models.Expense `json:"data"`
	Message string         `json:"message,omitempty"`
}

// ExpenseListResponse is the success envelope of the expense list.
type ExpenseListResponse struct {
	Success bool                 `json:"success" example:"true"`
	Count   int64                `json:"count"`
	Data    []models.Expense     `json:"data"`
	Page    *pagination.PageInfo `json:"page,omitempty"`
}

// SummaryResponse is the success envelope of the summary bundle.
type SummaryResponse struct {
	Success bool             `json:"success" example:"true"`
	Data    services.Summary `json:"data"`
}

// CategoriesResponse is the success envelope of the category list.
type CategoriesResponse struct {
	Success bool              `json:"success" example:"true"`
	Data    []models.Category `json:"data"`
}

// ListExpenses returns the caller's expenses
// @Summary     List expenses
// @Description List the authenticated user's expenses with optional date, category, and sort filters
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       startDate query string false "Inclusive start (YYYY-MM-DD or RFC3339)"
// @Param       endDate   query string false "Inclusive end; a bare date covers the whole day"
// @Param       category  query string false "Exact category name"
// @Param       sort      query string false "newest (default), oldest, amount-high, amount-low"
// @Param       page      query int    false "Page number"
// @Param       pageSize  query int    false "Items per page (max 100)"
// @Success     200 {object} ExpenseListResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
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

	window, err := h.parseWindow(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter := repository.ExpenseFilter{
		StartDate: window.Start,
		EndDate:   window.End,
		Sort:      repository.ParseSort(c.Query("sort")),
	}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		category := models.Category(raw)
		filter.Category = &category
	}
	if page.IsSet() {
		filter.Page = &page
	}

	list, err := h.expenseService.ListExpenses(c.Request.Context(), userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := ExpenseListResponse{Success: true, Count: list.Total, Data: list.Expenses}
	if filter.Page != nil {
		info := pagination.NewPageInfo(page, list.Total)
		resp.Page = &info
	}
	c.JSON(http.StatusOK, resp)
}

// GetSummary returns the aggregate view of the caller's expenses
// @Summary     Expense summary
// @Description Total, category, and monthly breakdowns honour the date range; the daily breakdown covers the trailing window and recent expenses ignore the range
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       startDate query string false "Inclusive start (YYYY-MM-DD or RFC3339)"
// @Param       endDate   query string false "Inclusive end; a bare date covers the whole day"
// @Success     200 {object} SummaryResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/summary [get]
func (h *ExpenseHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	window, err := h.parseWindow(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.summaryService.GetSummary(c.Request.Context(), userID, window)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{Success: true, Data: *summary})
}

// ListCategories returns the fixed category set
// @Summary     List categories
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} CategoriesResponse
// @Router      /expenses/categories [get]
func (h *ExpenseHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, CategoriesResponse{Success: true, Data: models.Categories()})
}

// GetExpense returns one owned expense
// @Summary     Get an expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} ExpenseEnvelope
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Expense belongs to another user"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpense(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ExpenseEnvelope{Success: true, Data: *expense})
}

// CreateExpense records a new expense
// @Summary     Create an expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExpenseRequest true "Expense details"
// @Success     201 {object} ExpenseEnvelope
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := h.bindExpense(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, services.AuditResourceExpense, expense.ID, c.ClientIP(),
		map[string]interface{}{"amount": expense.Amount.String(), "category": expense.Category})

	c.JSON(http.StatusCreated, ExpenseEnvelope{Success: true, Data: *expense, Message: "Expense created"})
}

// UpdateExpense replaces an owned expense
// @Summary     Update an expense
// @Description Replaces all mutable fields; an omitted date keeps the stored date
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Expense ID"
// @Param       request body ExpenseRequest true "Expense details"
// @Success     200 {object} ExpenseEnvelope
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Expense belongs to another user"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	input, err := h.bindExpense(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdate, services.AuditResourceExpense, expense.ID, c.ClientIP(),
		map[string]interface{}{"amount": expense.Amount.String(), "category": expense.Category})

	c.JSON(http.StatusOK, ExpenseEnvelope{Success: true, Data: *expense, Message: "Expense updated"})
}

// DeleteExpense permanently removes an owned expense
// @Summary     Delete an expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Expense belongs to another user"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID := c.Param("id")
	if err := h.expenseService.DeleteExpense(c.Request.Context(), userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, services.AuditResourceExpense, expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Success: true, Data: gin.H{}, Message: "Expense deleted"})
}

func (h *ExpenseHandler) parseWindow(c *gin.Context) (services.DateRange, error) {
	start, err := parseDateQuery(c, "startDate", h.loc, false)
	if err != nil {
		return services.DateRange{}, err
	}
	end, err := parseDateQuery(c, "endDate", h.loc, true)
	if err != nil {
		return services.DateRange{}, err
	}
	return services.DateRange{Start: start, End: end}, nil
}

func (h *ExpenseHandler) bindExpense(c *gin.Context) (services.ExpenseInput, error) {
	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return services.ExpenseInput{}, bindError(err)
	}

	input := services.ExpenseInput{
		Amount:      *req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Notes:       req.Notes,
	}
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		d, err := parseDate(*req.Date, h.loc, false)
		if err != nil {
			return services.ExpenseInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		input.Date = &d
	}
	return input, nil
}
