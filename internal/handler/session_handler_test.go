package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rosterhub/internal/middleware"
	"rosterhub/internal/models"
	"rosterhub/internal/service"
)

type fakeSessionRepo struct {
	states map[string]models.NavigationState
}

func (f *fakeSessionRepo) Load(ctx context.Context, userID string) (models.NavigationState, error) {
	return f.states[userID], nil
}

func (f *fakeSessionRepo) Save(ctx context.Context, userID string, state models.NavigationState) error {
	if f.states == nil {
		f.states = make(map[string]models.NavigationState)
	}
	f.states[userID] = state
	return nil
}

func (f *fakeSessionRepo) Clear(ctx context.Context, userID string) error {
	delete(f.states, userID)
	return nil
}

func sessionTestContext(t *testing.T, role models.UserRole, method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Email: "x@example.com", Role: role})
	return c, rec
}

type sessionEnvelope struct {
	Data struct {
		Navigation models.NavigationState `json:"navigation"`
		View       models.View            `json:"view"`
		Actions    []models.Action        `json:"actions"`
	} `json:"data"`
}

func TestSessionHandlerSelectOffice(t *testing.T) {
	handler := NewSessionHandler(service.NewSessionService(&fakeSessionRepo{}, zap.NewNop()))

	c, rec := sessionTestContext(t, models.RoleAdmin, http.MethodPost, "/session/office", `{"office":"Girona"}`)
	handler.SelectOffice(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope sessionEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data.Navigation.Office)
	assert.Equal(t, models.Office("Girona"), *envelope.Data.Navigation.Office)
	assert.Equal(t, models.ViewCategoryPicker, envelope.Data.View)
}

func TestSessionHandlerSelectOfficeForbiddenForReader(t *testing.T) {
	handler := NewSessionHandler(service.NewSessionService(&fakeSessionRepo{}, zap.NewNop()))

	c, rec := sessionTestContext(t, models.RoleReader, http.MethodPost, "/session/office", `{"office":"Girona"}`)
	handler.SelectOffice(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSessionHandlerSelectCategoryWithoutOffice(t *testing.T) {
	handler := NewSessionHandler(service.NewSessionService(&fakeSessionRepo{}, zap.NewNop()))

	c, rec := sessionTestContext(t, models.RoleAdmin, http.MethodPost, "/session/category", `{"category":"couriers"}`)
	handler.SelectCategory(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionHandlerCurrentUnauthenticated(t *testing.T) {
	handler := NewSessionHandler(service.NewSessionService(&fakeSessionRepo{}, zap.NewNop()))

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/session", nil)
	handler.Current(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionHandlerGoBack(t *testing.T) {
	category := models.CategoryCourier
	office := models.Office("Manresa")
	repo := &fakeSessionRepo{states: map[string]models.NavigationState{
		"u1": {Office: &office, Category: &category},
	}}
	handler := NewSessionHandler(service.NewSessionService(repo, zap.NewNop()))

	c, rec := sessionTestContext(t, models.RoleEditor, http.MethodPost, "/session/back", "")
	handler.GoBack(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope sessionEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Data.Navigation.Category)
	require.NotNil(t, envelope.Data.Navigation.Office)
	assert.Equal(t, models.ViewCategoryPicker, envelope.Data.View)
}
