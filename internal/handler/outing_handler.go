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

type outingService interface {
	Create(ctx context.Context, req service.OutingRequest) (*models.Outing, error)
	Update(ctx context.Context, id string, req service.OutingRequest) (*models.Outing, error)
	Get(ctx context.Context, id string) (*service.OutingView, error)
	List(ctx context.Context, page, pageSize int) ([]service.OutingView, *models.Pagination, error)
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]service.OutingView, error)
}

// OutingHandler exposes the admin outing endpoints.
type OutingHandler struct {
	service outingService
}

// NewOutingHandler constructs the handler.
func NewOutingHandler(service outingService) *OutingHandler {
	return &OutingHandler{service: service}
}

// Create godoc
// @Summary Create an outing
// @Tags Outings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.OutingRequest true "Outing"
// @Success 201 {object} response.Envelope
// @Router /admin/outings [post]
func (h *OutingHandler) Create(c *gin.Context) {
	var req service.OutingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid outing payload"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update an outing
// @Tags Outings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Outing ID"
// @Param payload body service.OutingRequest true "Outing"
// @Success 200 {object} response.Envelope
// @Router /admin/outings/{id} [put]
func (h *OutingHandler) Update(c *gin.Context) {
	var req service.OutingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid outing payload"))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Get godoc
// @Summary Load one outing with its signed count
// @Tags Outings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Outing ID"
// @Success 200 {object} response.Envelope
// @Router /admin/outings/{id} [get]
func (h *OutingHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// List godoc
// @Summary List outings with signed counts
// @Tags Outings
// @Produce json
// @Security BearerAuth
// @Param upcoming query bool false "Only future outings"
// @Param limit query int false "Limit for upcoming listing"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/outings [get]
func (h *OutingHandler) List(c *gin.Context) {
	if c.Query("upcoming") == "true" {
		views, err := h.service.ListUpcoming(c.Request.Context(), time.Now(), parseQueryInt(c, "limit", 20))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, views, nil)
		return
	}
	views, pagination, err := h.service.List(c.Request.Context(), parseQueryInt(c, "page", 1), parseQueryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, views, pagination)
}
