package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rosterhub/internal/models"
	"rosterhub/internal/service"
	appErrors "rosterhub/pkg/errors"
	"rosterhub/pkg/response"
)

// PersonnelHandler exposes roster endpoints for both personnel
// categories. The category travels in the URL path.
type PersonnelHandler struct {
	roster      *service.RosterService
	attachments *service.AttachmentService
	exports     *service.ExportService
	dashboard   *service.DashboardService
	history     *service.HistoryService
	sessions    *service.SessionService
}

// NewPersonnelHandler constructs PersonnelHandler.
func NewPersonnelHandler(roster *service.RosterService, attachments *service.AttachmentService, exports *service.ExportService, dashboard *service.DashboardService, history *service.HistoryService, sessions *service.SessionService) *PersonnelHandler {
	return &PersonnelHandler{roster: roster, attachments: attachments, exports: exports, dashboard: dashboard, history: history, sessions: sessions}
}

func parseCategoryParam(c *gin.Context) (models.Category, bool) {
	category, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown personnel category"))
		return "", false
	}
	return category, true
}

// List godoc
// @Summary List active personnel
// @Tags Personnel
// @Produce json
// @Param category path string true "Personnel category" Enums(couriers, office_staff)
// @Param office query string false "Office (ignored for Readers)"
// @Param search query string false "Name substring filter"
// @Success 200 {object} response.Envelope
// @Router /personnel/{category} [get]
func (h *PersonnelHandler) List(c *gin.Context) {
	category, ok := parseCategoryParam(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	office, search := c.Query("office"), c.Query("search")

	if category == models.CategoryCourier {
		couriers, err := h.roster.ListCouriers(c.Request.Context(), actor, office, search)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, couriers, nil)
		return
	}
	staff, err := h.roster.ListOfficeStaff(c.Request.Context(), actor, office, search)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Get godoc
// @Summary Get one personnel record
// @Tags Personnel
// @Produce json
// @Param category path string true "Personnel category"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /personnel/{category}/{id} [get]
func (h *PersonnelHandler) Get(c *gin.Context) {
	category, ok := parseCategoryParam(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if category == models.CategoryCourier {
		courier, err := h.roster.GetCourier(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, courier, nil)
		return
	}
	staff, err := h.roster.GetOfficeStaff(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Create godoc
// @Summary Create a personnel record
// @Tags Personnel
// @Accept json
// @Produce json
// @Param category path string true "Personnel category"
// @Success 201 {object} response.Envelope
// @Router /personnel/{category} [post]
func (h *PersonnelHandler) Create(c *gin.Context) {
	category, ok := parseCategoryParam(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if category == models.CategoryCourier {
		var req service.CreateCourierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
		courier, err := h.roster.CreateCourier(c.Request.Context(), actor, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		h.dashboard.Refresh(c.Request.Context())
		response.Created(c, courier)
		return
	}

	var req service.CreateOfficeStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	staff, err := h.roster.CreateOfficeStaff(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.Refresh(c.Request.Context())
	response.Created(c, staff)
}

// Update godoc
// @Summary Update the listed fields of a record
// @Description A successful save also closes the record's edit selection in the session
// @Tags Personnel
// @Accept json
// @Produce json
// @Param category path string true "Personnel category"
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /personnel/{category}/{id} [patch]
func (h *PersonnelHandler) Update(c *gin.Context) {
	category, ok := parseCategoryParam(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")

	if category == models.CategoryCourier {
		var req service.UpdateCourierRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
		err := h.sessions.SaveEdit(c.Request.Context(), actor, id, func(ctx context.Context) error {
			return h.roster.UpdateCourier(ctx, actor, id, req)
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		h.dashboard.Refresh(c.Request.Context())
		courier, err := h.roster.GetCourier(c.Request.Context(), actor, id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, courier, nil)
		return
	}

	var req service.UpdateOfficeStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	err := h.sessions.SaveEdit(c.Request.Context(), actor, id, func(ctx context.Context) error {
		return h.roster.UpdateOfficeStaff(ctx, actor, id, req)
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.Refresh(c.Request.Context())
	staff, err := h.roster.GetOfficeStaff(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Deactivate godoc
// @Summary Deactivate a record (soft delete)
// @Description Flips status to Inactive and stamps today's date; the row is never removed
// @Tags Personnel
// @Produce json
// @Param category path string true "Personnel category"
// @Param id path string true "Record ID"
// @Success 204 "No Content"
// @Router /personnel/{category}/{id}/deactivate [post]
func (h *PersonnelHandler) Deactivate(c *gin.Context) {
	category, ok := parseCategoryParam(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.roster.Deactivate(c.Request.Context(), actor, category, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.Refresh(c.Request.Context())
	h.history.Refresh(c.Request.Context())
	response.NoContent(c)
}

// Attach godoc
// @Summary Upload an attachment into a slot
// @Tags Personnel
// @Accept multipart/form-data
// @Produce json
// @Param category path string true "Personnel category"
// @Param id path string true "Record ID"
// @Param slot path string true "Attachment slot" Enums(document, vehicle_photo)
// @Param file formData file true "File to attach"
// @Success 200 {object} response.Envelope
// @Router /personnel/{category}/{id}/attachments/{slot} [post]
func (h *PersonnelHandler) Attach(c *gin.Context) {
	category, ok := parseCategoryParam(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	slot, ok := models.ParseAttachmentSlot(c.Param("slot"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown attachment slot"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file field is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}
	defer file.Close()

	stored, err := h.attachments.Attach(c.Request.Context(), actor, category, c.Param("id"), slot, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"path": stored}, nil)
}

// DownloadAttachment godoc
// @Summary Download the attachment stored in a slot
// @Tags Personnel
// @Produce octet-stream
// @Param category path string true "Personnel category"
// @Param id path string true "Record ID"
// @Param slot path string true "Attachment slot"
// @Success 200 {file} binary
// @Router /personnel/{category}/{id}/attachments/{slot} [get]
func (h *PersonnelHandler) DownloadAttachment(c *gin.Context) {
	category, ok := parseCategoryParam(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	slot, ok := models.ParseAttachmentSlot(c.Param("slot"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown attachment slot"))
		return
	}

	att, err := h.attachments.Download(c.Request.Context(), actor, category, c.Param("id"), slot)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer att.Reader.Close()

	c.Header("Content-Disposition", `attachment; filename="`+att.Filename+`"`)
	c.Header("Content-Type", att.ContentType)
	c.DataFromReader(http.StatusOK, -1, att.ContentType, att.Reader, nil)
}

// Export godoc
// @Summary Export the active listing as a file
// @Tags Personnel
// @Produce octet-stream
// @Param category path string true "Personnel category"
// @Param office query string false "Office (ignored for Readers)"
// @Param search query string false "Name substring filter"
// @Param format query string false "File format" Enums(xlsx, csv, pdf)
// @Success 200 {file} binary
// @Router /personnel/{category}/export [get]
func (h *PersonnelHandler) Export(c *gin.Context) {
	category, ok := parseCategoryParam(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format, ok := models.ParseExportFormat(c.Query("format"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown export format"))
		return
	}

	result, err := h.exports.Export(c.Request.Context(), actor, category, c.Query("office"), c.Query("search"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
