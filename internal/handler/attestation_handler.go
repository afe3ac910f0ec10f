package handler

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/stainespoir/parent-portal-api/internal/models"
	"github.com/stainespoir/parent-portal-api/internal/service"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
	"github.com/stainespoir/parent-portal-api/pkg/response"
)

type attestationService interface {
	RenderForRegistration(ctx context.Context, parentProfileID, registrationID string) ([]byte, string, error)
	StartExport(ctx context.Context, outingID string) (*service.ExportState, error)
	ExportState(exportID string) (*service.ExportState, error)
	OpenDownload(token string) (*os.File, string, error)
}

// AttestationHandler serves consent attestation documents.
type AttestationHandler struct {
	service attestationService
}

// NewAttestationHandler constructs the handler.
func NewAttestationHandler(service attestationService) *AttestationHandler {
	return &AttestationHandler{service: service}
}

// Download godoc
// @Summary Attestation PDF for a signed registration
// @Tags Attestations
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Success 200 {file} binary
// @Router /account/registrations/{id}/attestation [get]
func (h *AttestationHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	parentProfileID := claims.ParentProfileID
	if claims.Role == models.RoleAdmin {
		parentProfileID = ""
	}
	data, filename, err := h.service.RenderForRegistration(c.Request.Context(), parentProfileID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// StartExport godoc
// @Summary Queue a batch attestation export for an outing
// @Tags Attestations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Outing ID"
// @Success 202 {object} response.Envelope
// @Router /admin/outings/{id}/attestations/export [post]
func (h *AttestationHandler) StartExport(c *gin.Context) {
	state, err := h.service.StartExport(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, state, nil)
}

// ExportState godoc
// @Summary Export run status with signed download tokens
// @Tags Attestations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Export ID"
// @Success 200 {object} response.Envelope
// @Router /admin/exports/{id} [get]
func (h *AttestationHandler) ExportState(c *gin.Context) {
	state, err := h.service.ExportState(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state, nil)
}

// DownloadExport godoc
// @Summary Download one exported attestation by signed token
// @Tags Attestations
// @Produce application/pdf
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download [get]
func (h *AttestationHandler) DownloadExport(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, filename, err := h.service.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}
