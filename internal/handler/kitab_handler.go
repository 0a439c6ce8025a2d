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

// KitabHandler handles kitab endpoints.
type KitabHandler struct {
	service *service.KitabService
}

// NewKitabHandler constructs a kitab handler.
func NewKitabHandler(svc *service.KitabService) *KitabHandler {
	return &KitabHandler{service: svc}
}

// List godoc
// @Summary List kitabs
// @Tags Kitabs
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /kitabs [get]
func (h *KitabHandler) List(c *gin.Context) {
	var filter models.KitabFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	kitabs, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, kitabs, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get kitab by id
// @Tags Kitabs
// @Produce json
// @Param id path string true "Kitab ID"
// @Success 200 {object} response.Envelope
// @Router /kitabs/{id} [get]
func (h *KitabHandler) Get(c *gin.Context) {
	kitab, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kitab, nil)
}

// Create godoc
// @Summary Create kitab
// @Description The numeric code is assigned server side and is not writable
// @Tags Kitabs
// @Accept json
// @Produce json
// @Param payload body service.CreateKitabRequest true "Kitab payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /kitabs [post]
func (h *KitabHandler) Create(c *gin.Context) {
	var req service.CreateKitabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	kitab, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, kitab)
}

// Update godoc
// @Summary Update kitab
// @Tags Kitabs
// @Accept json
// @Produce json
// @Param id path string true "Kitab ID"
// @Param payload body service.UpdateKitabRequest true "Kitab payload"
// @Success 200 {object} response.Envelope
// @Router /kitabs/{id} [put]
func (h *KitabHandler) Update(c *gin.Context) {
	var req service.UpdateKitabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	kitab, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kitab, nil)
}

// Delete godoc
// @Summary Delete kitab
// @Description Fails with a conflict when marhalas still reference the kitab
// @Tags Kitabs
// @Produce json
// @Param id path string true "Kitab ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /kitabs/{id} [delete]
func (h *KitabHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
