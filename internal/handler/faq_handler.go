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

// FAQHandler handles FAQ endpoints.
type FAQHandler struct {
	service *service.FAQService
}

// NewFAQHandler constructs a FAQ handler.
func NewFAQHandler(svc *service.FAQService) *FAQHandler {
	return &FAQHandler{service: svc}
}

// List godoc
// @Summary List FAQs
// @Tags FAQs
// @Produce json
// @Param search query string false "Search keyword"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /faqs [get]
func (h *FAQHandler) List(c *gin.Context) {
	var filter models.FAQFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Active = queryBool(c, "active")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortOrder = c.Query("order")

	faqs, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, faqs, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get FAQ by id
// @Tags FAQs
// @Produce json
// @Param id path string true "FAQ ID"
// @Success 200 {object} response.Envelope
// @Router /faqs/{id} [get]
func (h *FAQHandler) Get(c *gin.Context) {
	faq, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faq, nil)
}

// Create godoc
// @Summary Create FAQ
// @Description Display order defaults to the end of the list when omitted
// @Tags FAQs
// @Accept json
// @Produce json
// @Param payload body service.CreateFAQRequest true "FAQ payload"
// @Success 201 {object} response.Envelope
// @Router /faqs [post]
func (h *FAQHandler) Create(c *gin.Context) {
	var req service.CreateFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	faq, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, faq)
}

// Update godoc
// @Summary Update FAQ
// @Tags FAQs
// @Accept json
// @Produce json
// @Param id path string true "FAQ ID"
// @Param payload body service.UpdateFAQRequest true "FAQ payload"
// @Success 200 {object} response.Envelope
// @Router /faqs/{id} [put]
func (h *FAQHandler) Update(c *gin.Context) {
	var req service.UpdateFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	faq, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faq, nil)
}

// Deactivate godoc
// @Summary Deactivate FAQ
// @Tags FAQs
// @Produce json
// @Param id path string true "FAQ ID"
// @Success 204
// @Router /faqs/{id} [delete]
func (h *FAQHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
