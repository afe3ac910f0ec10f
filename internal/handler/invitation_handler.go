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

type invitationService interface {
	Invite(ctx context.Context, outingID string, req service.InviteRequest) (*models.InvitationOutcome, error)
	RemindInvited(ctx context.Context, outingID string, req service.ReminderRequest) (*models.ReminderOutcome, error)
}

// InvitationHandler exposes the bulk invitation endpoints.
type InvitationHandler struct {
	service invitationService
}

// NewInvitationHandler constructs the handler.
func NewInvitationHandler(service invitationService) *InvitationHandler {
	return &InvitationHandler{service: service}
}

// Invite godoc
// @Summary Bulk-invite children to an outing
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Outing ID"
// @Param payload body service.InviteRequest true "Target selection"
// @Success 200 {object} response.Envelope
// @Router /admin/outings/{id}/invite [post]
func (h *InvitationHandler) Invite(c *gin.Context) {
	var req service.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid invitation payload"))
		return
	}
	outcome, err := h.service.Invite(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Remind godoc
// @Summary Remind parents of invited registrations
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Outing ID"
// @Param payload body service.ReminderRequest true "Messaging options"
// @Success 200 {object} response.Envelope
// @Router /admin/outings/{id}/remind [post]
func (h *InvitationHandler) Remind(c *gin.Context) {
	var req service.ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reminder payload"))
		return
	}
	outcome, err := h.service.RemindInvited(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}
