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

// BankTransactionHandler handles transaction endpoints.
type BankTransactionHandler struct {
	service *service.BankTransactionService
}

// NewBankTransactionHandler constructs a transaction handler.
func NewBankTransactionHandler(svc *service.BankTransactionService) *BankTransactionHandler {
	return &BankTransactionHandler{service: svc}
}

// List godoc
// @Summary List bank transactions
// @Tags Bank
// @Produce json
// @Param account_id query string false "Filter by account"
// @Param type query string false "Filter by type (deposit, withdrawal, transfer)"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /bank-transactions [get]
func (h *BankTransactionHandler) List(c *gin.Context) {
	var filter models.BankTransactionFilter
	filter.AccountID = strings.TrimSpace(c.Query("account_id"))
	if raw := strings.TrimSpace(c.Query("type")); raw != "" {
		txType := models.TransactionType(raw)
		switch txType {
		case models.TransactionTypeDeposit, models.TransactionTypeWithdrawal, models.TransactionTypeTransfer:
			filter.Type = &txType
		default:
			response.Error(c, appErrors.WithField(appErrors.ErrValidation, "type", "unknown transaction type"))
			return
		}
	}
	filter.DateFrom = queryDate(c, "from")
	filter.DateTo = queryDate(c, "to")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortOrder = c.Query("order")

	transactions, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, transactions, pagination, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Record bank transaction
// @Description Records a deposit, withdrawal or transfer and adjusts balances atomically
// @Tags Bank
// @Accept json
// @Produce json
// @Param payload body service.CreateBankTransactionRequest true "Transaction payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /bank-transactions [post]
func (h *BankTransactionHandler) Create(c *gin.Context) {
	var req service.CreateBankTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	transaction, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, transaction)
}
