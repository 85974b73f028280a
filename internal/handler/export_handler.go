package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rosterhub/internal/models"
	"rosterhub/internal/service"
	appErrors "rosterhub/pkg/errors"
	"rosterhub/pkg/response"
)

// ExportHandler exposes the asynchronous export pipeline.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

type exportRequest struct {
	Category string `json:"category" binding:"required"`
	Office   string `json:"office"`
	Search   string `json:"search"`
	Format   string `json:"format"`
}

// Request godoc
// @Summary Queue an asynchronous export
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body exportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Request(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, ok := models.ParseCategory(req.Category)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown personnel category"))
		return
	}
	format, ok := models.ParseExportFormat(req.Format)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown export format"))
		return
	}

	job, err := h.exports.RequestExport(c.Request.Context(), actor, category, req.Office, req.Search, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	job, err := h.exports.JobStatus(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a completed export via its signed link
// @Description The token authenticates the download; no session is required
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	result, err := h.exports.OpenDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
