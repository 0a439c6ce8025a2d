package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/talim-board/admin-api/internal/models"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
)

type fakeDashboardSrv struct {
	overview    *models.AdminDashboard
	overviewHit bool
	overviewErr error
	bank        *models.BankDashboard
	bankHit     bool
	bankErr     error
}

func (f *fakeDashboardSrv) Overview(context.Context) (*models.AdminDashboard, bool, error) {
	return f.overview, f.overviewHit, f.overviewErr
}

func (f *fakeDashboardSrv) BankDashboard(context.Context) (*models.BankDashboard, bool, error) {
	return f.bank, f.bankHit, f.bankErr
}

func TestDashboardHandlerOverviewSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		overview:    &models.AdminDashboard{ActiveExams: 3, ActiveTeachers: 12},
		overviewHit: true,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Overview(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, float64(3), envelope.Data["active_exams"])
}

func TestDashboardHandlerBankError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{bankErr: appErrors.ErrInternal})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard/bank", nil)

	handler.Bank(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboardHandlerNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Overview(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}
