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

type attendanceService interface {
	RosterForDay(ctx context.Context, day time.Time) ([]service.RosterEntry, error)
	SaveRoster(ctx context.Context, day time.Time, statuses map[string]models.AttendanceStatus) (*models.RosterResult, error)
}

// AttendanceHandler exposes the admin roster endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Roster godoc
// @Summary Attendance roster for one day
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /admin/presences [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	day, err := parseDateParam(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if day == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	entries, err := h.service.RosterForDay(c.Request.Context(), *day)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

type saveRosterRequest struct {
	Date     string                             `json:"date" binding:"required"`
	Statuses map[string]models.AttendanceStatus `json:"statuses"`
}

// SaveRoster godoc
// @Summary Save the attendance roster for one day
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body saveRosterRequest true "Day and per-child statuses"
// @Success 200 {object} response.Envelope
// @Router /admin/presences [post]
func (h *AttendanceHandler) SaveRoster(c *gin.Context) {
	var req saveRosterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid roster payload"))
		return
	}
	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD"))
		return
	}
	result, err := h.service.SaveRoster(c.Request.Context(), day, req.Statuses)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
