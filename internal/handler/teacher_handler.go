package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/talim-board/admin-api/internal/middleware"
	"github.com/talim-board/admin-api/internal/models"
	"github.com/talim-board/admin-api/internal/service"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
	"github.com/talim-board/admin-api/pkg/response"
	"github.com/talim-board/admin-api/pkg/storage"
)

const maxPhotoSize = 5 << 20

var allowedPhotoExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// TeacherHandler handles teacher endpoints including photo uploads.
type TeacherHandler struct {
	service *service.TeacherService
	files   *storage.LocalStorage
	signer  *storage.SignedURLSigner
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(svc *service.TeacherService, files *storage.LocalStorage, signer *storage.SignedURLSigner) *TeacherHandler {
	return &TeacherHandler{service: svc, files: files, signer: signer}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Param search query string false "Search by name, phone or NID"
// @Param active query bool false "Filter by active flag"
// @Param mumtahin query bool false "Only examiner-eligible teachers when true"
// @Param marhala_id query string false "Filter by educational qualification"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	var filter models.TeacherFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Active = queryBool(c, "active")
	if only := queryBool(c, "mumtahin"); only != nil && *only {
		filter.MumtahinOnly = true
	}
	filter.MarhalaID = strings.TrimSpace(c.Query("marhala_id"))
	filter.Page = queryInt(c, "page", 1)
	filter.PageSize = queryInt(c, "limit", 20)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	teachers, pagination, cacheHit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, teachers, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get teacher by id
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Register teacher
// @Description Exactly one payment variant must be provided
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	teacher, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.UpdateTeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	var req service.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	teacher, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Deactivate godoc
// @Summary Deactivate teacher
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetEligibility godoc
// @Summary Set examiner eligibility
// @Description Designates or revokes the teacher as a mumtahin; idempotent
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.SetMumtahinRequest true "Eligibility payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/mumtahin [put]
func (h *TeacherHandler) SetEligibility(c *gin.Context) {
	var req service.SetMumtahinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	teacher, err := h.service.SetEligibility(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// UploadPhoto godoc
// @Summary Upload teacher photo
// @Tags Teachers
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Teacher ID"
// @Param photo formData file true "Photo file (jpg or png, max 5MB)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/photo [post]
func (h *TeacherHandler) UploadPhoto(c *gin.Context) {
	if h.files == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	teacherID := c.Param("id")

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		response.Error(c, appErrors.WithField(appErrors.ErrValidation, "photo", "photo file required"))
		return
	}
	if fileHeader.Size > maxPhotoSize {
		response.Error(c, appErrors.WithField(appErrors.ErrValidation, "photo", "photo exceeds 5MB"))
		return
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if _, ok := allowedPhotoExtensions[ext]; !ok {
		response.Error(c, appErrors.WithField(appErrors.ErrValidation, "photo", "only jpg and png photos are accepted"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer src.Close()

	relPath := fmt.Sprintf("photos/%s-%s%s", teacherID, uuid.NewString(), ext)
	if _, err := h.files.SaveStream(relPath, io.LimitReader(src, maxPhotoSize)); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo"))
		return
	}

	if err := h.service.SetPhoto(c.Request.Context(), teacherID, relPath); err != nil {
		_ = h.files.Delete(relPath)
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"photo_path": relPath}, nil)
}

// PhotoURL godoc
// @Summary Get signed photo URL
// @Description Returns a time-limited download token for the teacher's photo
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/photo-url [get]
func (h *TeacherHandler) PhotoURL(c *gin.Context) {
	if h.signer == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	teacher, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if teacher.PhotoPath == nil || *teacher.PhotoPath == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "teacher has no photo"))
		return
	}

	token, expiresAt, err := h.signer.Generate(teacher.ID, *teacher.PhotoPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign photo url"))
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"url":        "/files?token=" + token,
		"expires_at": expiresAt,
	}, nil)
}

// DownloadPhoto godoc
// @Summary Download photo by signed token
// @Tags Teachers
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /files [get]
func (h *TeacherHandler) DownloadPhoto(c *gin.Context) {
	if h.files == nil || h.signer == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.WithField(appErrors.ErrValidation, "token", "token required"))
		return
	}

	_, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token"))
		return
	}

	file, err := h.files.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	defer file.Close()

	contentType := allowedPhotoExtensions[strings.ToLower(filepath.Ext(relPath))]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
