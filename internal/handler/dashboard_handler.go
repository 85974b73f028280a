package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rosterhub/internal/service"
	appErrors "rosterhub/pkg/errors"
	"rosterhub/pkg/response"
)

// DashboardHandler serves the aggregate personnel overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
	history   *service.HistoryService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, history *service.HistoryService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, history: history}
}

// Summary godoc
// @Summary Personnel dashboard aggregates
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.dashboard.Summary(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Refresh godoc
// @Summary Force a dashboard recompute on the next read
// @Tags Dashboard
// @Produce json
// @Success 204
// @Router /dashboard/refresh [post]
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if _, ok := actorFromContext(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	h.dashboard.Refresh(c.Request.Context())
	h.history.Refresh(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// History godoc
// @Summary Deactivation history across both categories
// @Description Inactive records sorted by deactivation date, newest first
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *DashboardHandler) History(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	records, err := h.history.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
