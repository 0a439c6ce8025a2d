package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/talim-board/admin-api/internal/middleware"
	"github.com/talim-board/admin-api/internal/models"
	"github.com/talim-board/admin-api/internal/service"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
	"github.com/talim-board/admin-api/pkg/response"
)

// BankAccountHandler handles bank account endpoints.
type BankAccountHandler struct {
	service    *service.BankAccountService
	statements *service.StatementService
}

// NewBankAccountHandler constructs a bank account handler.
func NewBankAccountHandler(svc *service.BankAccountService, statements *service.StatementService) *BankAccountHandler {
	return &BankAccountHandler{service: svc, statements: statements}
}

// List godoc
// @Summary List bank accounts
// @Tags Bank
// @Produce json
// @Param search query string false "Search keyword"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bank-accounts [get]
func (h *BankAccountHandler) List(c *gin.Context) {
	var filter models.BankAccountFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Active = queryBool(c, "active")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	accounts, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, accounts, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get bank account by id
// @Tags Bank
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Router /bank-accounts/{id} [get]
func (h *BankAccountHandler) Get(c *gin.Context) {
	account, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// Create godoc
// @Summary Open bank account
// @Tags Bank
// @Accept json
// @Produce json
// @Param payload body service.CreateBankAccountRequest true "Account payload"
// @Success 201 {object} response.Envelope
// @Router /bank-accounts [post]
func (h *BankAccountHandler) Create(c *gin.Context) {
	var req service.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}

// Update godoc
// @Summary Update bank account details
// @Description Balances are never writable through this endpoint
// @Tags Bank
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body service.UpdateBankAccountRequest true "Account payload"
// @Success 200 {object} response.Envelope
// @Router /bank-accounts/{id} [put]
func (h *BankAccountHandler) Update(c *gin.Context) {
	var req service.UpdateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// Deactivate godoc
// @Summary Deactivate bank account
// @Tags Bank
// @Produce json
// @Param id path string true "Account ID"
// @Success 204
// @Router /bank-accounts/{id} [delete]
func (h *BankAccountHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Statement godoc
// @Summary Export account statement
// @Description Renders the account's transaction history as CSV or PDF
// @Tags Bank
// @Produce application/octet-stream
// @Param id path string true "Account ID"
// @Param format query string false "Export format (csv or pdf), defaults to csv"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /bank-accounts/{id}/statement [get]
func (h *BankAccountHandler) Statement(c *gin.Context) {
	if h.statements == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format := service.StatementFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	if format != service.StatementFormatCSV && format != service.StatementFormatPDF {
		response.Error(c, appErrors.WithField(appErrors.ErrValidation, "format", "format must be csv or pdf"))
		return
	}

	statement, err := h.statements.Export(c.Request.Context(), c.Param("id"), queryDate(c, "from"), queryDate(c, "to"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+statement.Filename+`"`)
	c.Data(http.StatusOK, statement.ContentType, statement.Content)
}
