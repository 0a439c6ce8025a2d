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

// MarkazHandler handles markaz endpoints.
type MarkazHandler struct {
	service *service.MarkazService
}

// NewMarkazHandler constructs a markaz handler.
func NewMarkazHandler(svc *service.MarkazService) *MarkazHandler {
	return &MarkazHandler{service: svc}
}

// List godoc
// @Summary List markazes
// @Tags Markaz
// @Produce json
// @Param search query string false "Search keyword"
// @Param zone_id query string false "Filter by zone"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /markazes [get]
func (h *MarkazHandler) List(c *gin.Context) {
	var filter models.MarkazFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.ZoneID = strings.TrimSpace(c.Query("zone_id"))
	filter.Active = queryBool(c, "active")
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	markazes, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, markazes, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get markaz by id
// @Tags Markaz
// @Produce json
// @Param id path string true "Markaz ID"
// @Success 200 {object} response.Envelope
// @Router /markazes/{id} [get]
func (h *MarkazHandler) Get(c *gin.Context) {
	markaz, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, markaz, nil)
}

// Create godoc
// @Summary Create markaz
// @Description A madrasa can host at most one markaz
// @Tags Markaz
// @Accept json
// @Produce json
// @Param payload body service.CreateMarkazRequest true "Markaz payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /markazes [post]
func (h *MarkazHandler) Create(c *gin.Context) {
	var req service.CreateMarkazRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	markaz, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, markaz)
}

// Update godoc
// @Summary Update markaz
// @Tags Markaz
// @Accept json
// @Produce json
// @Param id path string true "Markaz ID"
// @Param payload body service.UpdateMarkazRequest true "Markaz payload"
// @Success 200 {object} response.Envelope
// @Router /markazes/{id} [put]
func (h *MarkazHandler) Update(c *gin.Context) {
	var req service.UpdateMarkazRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	markaz, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, markaz, nil)
}

// Deactivate godoc
// @Summary Deactivate markaz
// @Tags Markaz
// @Produce json
// @Param id path string true "Markaz ID"
// @Success 204
// @Router /markazes/{id} [delete]
func (h *MarkazHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
