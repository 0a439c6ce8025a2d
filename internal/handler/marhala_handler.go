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

// MarhalaHandler handles marhala endpoints.
type MarhalaHandler struct {
	service *service.MarhalaService
}

// NewMarhalaHandler constructs a marhala handler.
func NewMarhalaHandler(svc *service.MarhalaService) *MarhalaHandler {
	return &MarhalaHandler{service: svc}
}

// List godoc
// @Summary List marhalas
// @Tags Marhalas
// @Produce json
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /marhalas [get]
func (h *MarhalaHandler) List(c *gin.Context) {
	var filter models.MarhalaFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortOrder = c.Query("order")

	marhalas, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, marhalas, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get marhala by id
// @Tags Marhalas
// @Produce json
// @Param id path string true "Marhala ID"
// @Success 200 {object} response.Envelope
// @Router /marhalas/{id} [get]
func (h *MarhalaHandler) Get(c *gin.Context) {
	marhala, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marhala, nil)
}

// Create godoc
// @Summary Create marhala
// @Tags Marhalas
// @Accept json
// @Produce json
// @Param payload body service.CreateMarhalaRequest true "Marhala payload"
// @Success 201 {object} response.Envelope
// @Router /marhalas [post]
func (h *MarhalaHandler) Create(c *gin.Context) {
	var req service.CreateMarhalaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	marhala, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, marhala)
}

// Update godoc
// @Summary Update marhala
// @Description Omitting kitab_ids keeps the current kitab set
// @Tags Marhalas
// @Accept json
// @Produce json
// @Param id path string true "Marhala ID"
// @Param payload body service.UpdateMarhalaRequest true "Marhala payload"
// @Success 200 {object} response.Envelope
// @Router /marhalas/{id} [put]
func (h *MarhalaHandler) Update(c *gin.Context) {
	var req service.UpdateMarhalaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	marhala, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marhala, nil)
}
