package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/database"
	"github.com/hospitalhub/profile-intake/internal/middleware"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/internal/services"
	"github.com/hospitalhub/profile-intake/internal/utils"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves the authenticated review JSON API
type AdminHandler struct {
	reviews *services.ReviewService
	audit   *services.AuditService
	logger  *logrus.Logger
}

// NewAdminHandler creates a new admin handler. audit may be nil.
func NewAdminHandler(reviews *services.ReviewService, audit *services.AuditService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		reviews: reviews,
		audit:   audit,
		logger:  logger,
	}
}

// StatusRequest is the body of a status change
type StatusRequest struct {
	Action string `json:"action" form:"action" binding:"required"`
}

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
}

// ListHospitals handles GET /api/v1/admin/hospitals
// @Summary List submitted hospitals
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending, approved, rejected or all"
// @Param search query string false "name or city substring"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /admin/hospitals [get]
func (h *AdminHandler) ListHospitals(c *gin.Context) {
	status, ok := models.ParseProfileStatus(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_status", Message: "Unknown status filter"})
		return
	}

	profiles, err := h.reviews.List(c.Request.Context(), database.ListFilter{Status: status, Search: c.Query("search")})
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hospitals": profiles,
		"count":     len(profiles),
	})
}

// GetHospital handles GET /api/v1/admin/hospitals/:id
// @Summary Get one submitted hospital
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.HospitalProfile
// @Failure 404 {object} ErrorResponse
// @Router /admin/hospitals/{id} [get]
func (h *AdminHandler) GetHospital(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "Invalid hospital id"})
		return
	}

	profile, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateStatus handles POST /api/v1/admin/hospitals/:id/status
// @Summary Approve, reject or reset a hospital
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StatusRequest true "Review action"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} map[string]interface{}
// @Router /admin/hospitals/{id}/status [post]
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "action is required"})
		return
	}

	action, err := services.ParseAction(req.Action)
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	h.apply(c, action)
}

// DeleteHospital handles DELETE /api/v1/admin/hospitals/:id
// @Summary Delete a hospital
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /admin/hospitals/{id} [delete]
func (h *AdminHandler) DeleteHospital(c *gin.Context) {
	h.apply(c, services.ActionDelete)
}

func (h *AdminHandler) apply(c *gin.Context, action services.Action) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "Invalid hospital id"})
		return
	}

	principal, _ := middleware.GetAdminPrincipal(c)
	result, err := h.reviews.Apply(c.Request.Context(), principal, id, action, requestMeta(c))
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if !result.Found() {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{
		"success": result.Found(),
		"result":  result,
		"message": result.Message(),
	})
}

// Stats handles GET /api/v1/admin/stats
// @Summary Dashboard totals
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.StatusCounts
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	counts, err := h.reviews.Stats(c.Request.Context())
	if err != nil {
		writeServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// History handles GET /api/v1/admin/hospitals/:id/audit
// @Summary Review history of a hospital
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ReviewAuditLog
// @Router /admin/hospitals/{id}/audit [get]
func (h *AdminHandler) History(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "Invalid hospital id"})
		return
	}
	if h.audit == nil {
		c.JSON(http.StatusOK, []models.ReviewAuditLog{})
		return
	}

	entries, err := h.audit.History(c.Request.Context(), id, 50)
	if err != nil {
		h.logger.WithError(err).WithField("profile_id", id).Error("Failed to load review history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: msgDatabaseError})
		return
	}
	c.JSON(http.StatusOK, entries)
}
