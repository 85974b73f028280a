package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rosterhub/internal/service"
	appErrors "rosterhub/pkg/errors"
	"rosterhub/pkg/response"
)

// SessionHandler exposes the navigation state machine over HTTP.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type selectOfficeRequest struct {
	Office string `json:"office" binding:"required"`
}

type selectCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

type beginEditRequest struct {
	RecordID string `json:"record_id" binding:"required"`
}

// Current godoc
// @Summary Current navigation state and resolved view
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Current(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.sessions.Current(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SelectOffice godoc
// @Summary Enter an office
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body selectOfficeRequest true "Office selection"
// @Success 200 {object} response.Envelope
// @Router /session/office [post]
func (h *SessionHandler) SelectOffice(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req selectOfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.sessions.SelectOffice(c.Request.Context(), actor, req.Office)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SelectCategory godoc
// @Summary Enter a personnel category
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body selectCategoryRequest true "Category selection"
// @Success 200 {object} response.Envelope
// @Router /session/category [post]
func (h *SessionHandler) SelectCategory(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req selectCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.sessions.SelectCategory(c.Request.Context(), actor, req.Category)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// BeginEdit godoc
// @Summary Open a record in the edit form
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body beginEditRequest true "Record to edit"
// @Success 200 {object} response.Envelope
// @Router /session/edit [post]
func (h *SessionHandler) BeginEdit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req beginEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.sessions.BeginEdit(c.Request.Context(), actor, req.RecordID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// EndEdit godoc
// @Summary Leave the edit form
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/edit [delete]
func (h *SessionHandler) EndEdit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.sessions.EndEdit(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// GoBack godoc
// @Summary Pop one navigation level
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/back [post]
func (h *SessionHandler) GoBack(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.sessions.GoBack(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
