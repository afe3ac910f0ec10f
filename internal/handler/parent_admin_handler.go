package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stainespoir/parent-portal-api/internal/models"
	"github.com/stainespoir/parent-portal-api/pkg/response"
)

type parentService interface {
	ListPending(ctx context.Context) ([]models.PendingParent, error)
	Approve(ctx context.Context, userID string) error
	Reject(ctx context.Context, userID string) error
}

// ParentAdminHandler exposes the parent approval workflow.
type ParentAdminHandler struct {
	service parentService
}

// NewParentAdminHandler constructs the handler.
func NewParentAdminHandler(service parentService) *ParentAdminHandler {
	return &ParentAdminHandler{service: service}
}

// ListPending godoc
// @Summary Parent accounts awaiting approval
// @Tags Parents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/parents/pending [get]
func (h *ParentAdminHandler) ListPending(c *gin.Context) {
	pending, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, nil)
}

// Approve godoc
// @Summary Approve a pending parent and their children
// @Tags Parents
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Router /admin/parents/pending/{id}/approve [post]
func (h *ParentAdminHandler) Approve(c *gin.Context) {
	if err := h.service.Approve(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reject godoc
// @Summary Reject and remove a pending parent account
// @Tags Parents
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Router /admin/parents/pending/{id}/reject [post]
func (h *ParentAdminHandler) Reject(c *gin.Context) {
	if err := h.service.Reject(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
