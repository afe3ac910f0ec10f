package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stainespoir/parent-portal-api/internal/models"
	"github.com/stainespoir/parent-portal-api/internal/service"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
	"github.com/stainespoir/parent-portal-api/pkg/response"
)

type consentService interface {
	Sign(ctx context.Context, parentProfileID, registrationID string, req service.SignConsentRequest) (*models.OutingRegistration, error)
	Decline(ctx context.Context, parentProfileID, registrationID string) (*models.OutingRegistration, error)
	Review(ctx context.Context, registrationID string, status models.RegistrationStatus) (*models.OutingRegistration, error)
}

// ConsentHandler exposes the registration signing endpoints.
type ConsentHandler struct {
	service consentService
}

// NewConsentHandler constructs the handler.
func NewConsentHandler(service consentService) *ConsentHandler {
	return &ConsentHandler{service: service}
}

// Sign godoc
// @Summary Sign the consent form for a registration
// @Tags Consent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Param payload body service.SignConsentRequest true "Signature"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Outing is full"
// @Failure 503 {object} response.Envelope "Lock unavailable, retry"
// @Router /account/registrations/{id}/sign [post]
func (h *ConsentHandler) Sign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.ParentProfileID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SignConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid signature payload"))
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.Request.UserAgent()

	updated, err := h.service.Sign(c.Request.Context(), claims.ParentProfileID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Decline godoc
// @Summary Decline an outing invitation
// @Tags Consent
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /account/registrations/{id}/decline [post]
func (h *ConsentHandler) Decline(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.ParentProfileID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	updated, err := h.service.Decline(c.Request.Context(), claims.ParentProfileID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

type reviewRequest struct {
	Status models.RegistrationStatus `json:"status" binding:"required"`
}

// Review godoc
// @Summary Record post-event attendance for a registration
// @Tags Consent
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Param payload body reviewRequest true "attended or absent"
// @Success 200 {object} response.Envelope
// @Router /admin/registrations/{id}/review [put]
func (h *ConsentHandler) Review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	updated, err := h.service.Review(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
