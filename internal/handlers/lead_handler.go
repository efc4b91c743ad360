package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/stwalsh4118/roofline/internal/errors"
	"github.com/stwalsh4118/roofline/internal/middleware"
	"github.com/stwalsh4118/roofline/internal/models"
	"github.com/stwalsh4118/roofline/internal/services"
)

// LeadHandler handles lead-related HTTP requests.
type LeadHandler struct {
	service services.LeadService
}

// NewLeadHandler creates a new LeadHandler instance.
func NewLeadHandler(service services.LeadService) *LeadHandler {
	return &LeadHandler{
		service: service,
	}
}

// RecentRequest represents the query parameters for the recent-leads endpoint.
type RecentRequest struct {
	LookbackHours int `form:"lookback_hours,default=24" binding:"min=1,max=168"`
	MinScore      int `form:"min_score,default=1" binding:"min=1,max=10"`
}

// RecentResponse represents the response for the recent-leads endpoint.
type RecentResponse struct {
	Leads []models.Lead `json:"leads"`
	Count int           `json:"count"`
}

// Recent handles GET /api/v1/leads/recent.
// It returns leads stored within the lookback window, newest first.
func (h *LeadHandler) Recent(c *gin.Context) {
	log := middleware.GetLogger(c)

	// Bind and validate query parameters
	var req RecentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return
	}

	if log != nil {
		log.Info("Processing recent-leads request", map[string]interface{}{
			"lookback_hours": req.LookbackHours,
			"min_score":      req.MinScore,
		})
	}

	// Call service layer
	leads, err := h.service.GetRecentLeads(c.Request.Context(), req.LookbackHours, req.MinScore)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLookback) || errors.Is(err, services.ErrInvalidMinScore) {
			apierrors.BadRequest(c, err.Error(), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to query lead data", err)
		return
	}

	c.JSON(http.StatusOK, RecentResponse{
		Leads: leads,
		Count: len(leads),
	})
}

// Stats handles GET /api/v1/leads/stats.
// It returns per-source totals and the last day's lead volume.
func (h *LeadHandler) Stats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		apierrors.InternalServerError(c, "Failed to compute lead statistics", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
