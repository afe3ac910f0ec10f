package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stainespoir/parent-portal-api/internal/models"
	"github.com/stainespoir/parent-portal-api/internal/service"
	appErrors "github.com/stainespoir/parent-portal-api/pkg/errors"
	"github.com/stainespoir/parent-portal-api/pkg/response"
)

type accountService interface {
	Dashboard(ctx context.Context, parentProfileID string, now time.Time) (*service.Dashboard, error)
	Outings(ctx context.Context, parentProfileID string, now time.Time) (upcoming, past []service.RegistrationView, err error)
	PresenceMonth(ctx context.Context, parentProfileID, childID, monthKey string, now time.Time) (*models.MonthView, error)
}

// AccountHandler serves the parent account pages.
type AccountHandler struct {
	service accountService
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(service accountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// Dashboard godoc
// @Summary Parent dashboard
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /account [get]
func (h *AccountHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.ParentProfileID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dashboard, err := h.service.Dashboard(c.Request.Context(), claims.ParentProfileID, time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// PresenceMonth godoc
// @Summary Attendance calendar month for one child
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Param childId query string true "Child ID"
// @Param month query string false "Month key (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Router /account/presences/month [get]
func (h *AccountHandler) PresenceMonth(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.ParentProfileID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	childID := c.Query("childId")
	if childID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "childId is required"))
		return
	}
	view, err := h.service.PresenceMonth(c.Request.Context(), claims.ParentProfileID, childID, c.Query("month"), time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Outings godoc
// @Summary Outing registrations for the parent's children
// @Tags Account
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /account/outings [get]
func (h *AccountHandler) Outings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.ParentProfileID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	upcoming, past, err := h.service.Outings(c.Request.Context(), claims.ParentProfileID, time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"upcoming": upcoming, "past": past}, nil)
}
