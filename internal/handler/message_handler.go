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

type messageService interface {
	Send(ctx context.Context, parentProfileID string, req service.SendMessageRequest) (*models.Message, error)
	ListForChild(ctx context.Context, parentProfileID, childID string, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, id string) error
}

// MessageHandler exposes the per-child message thread.
type MessageHandler struct {
	service messageService
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(service messageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// List godoc
// @Summary Messages for one child
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param childId query string true "Child ID"
// @Param limit query int false "Max messages"
// @Success 200 {object} response.Envelope
// @Router /account/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	childID := c.Query("childId")
	if childID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "childId is required"))
		return
	}
	parentProfileID := claims.ParentProfileID
	if claims.Role == models.RoleAdmin {
		parentProfileID = ""
	}
	messages, err := h.service.ListForChild(c.Request.Context(), parentProfileID, childID, parseQueryInt(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, nil)
}

// Send godoc
// @Summary Send a message about one of the parent's children
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.SendMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Router /account/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.ParentProfileID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid message payload"))
		return
	}
	created, err := h.service.Send(c.Request.Context(), claims.ParentProfileID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// MarkRead godoc
// @Summary Mark a message as read
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 204
// @Router /admin/messages/{id}/read [put]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
