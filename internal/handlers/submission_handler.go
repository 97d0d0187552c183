package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/internal/services"
	"github.com/hospitalhub/profile-intake/pkg/validator"
	"github.com/sirupsen/logrus"
)

// Submitter stores validated submissions
type Submitter interface {
	Submit(ctx context.Context, payload *services.SubmissionPayload) (int64, error)
}

// ApprovedLister returns the public projection
type ApprovedLister interface {
	ListApproved(ctx context.Context) ([]models.HospitalProfile, error)
}

// SubmissionHandler serves the public intake endpoints
type SubmissionHandler struct {
	submitter Submitter
	approved  ApprovedLister
	logger    *logrus.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submitter Submitter, approved ApprovedLister, logger *logrus.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submitter: submitter,
		approved:  approved,
		logger:    logger,
	}
}

// SubmitResponse is returned for an accepted submission
type SubmitResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

// SubmitFailure is returned for a rejected submission
type SubmitFailure struct {
	Success bool                   `json:"success"`
	Error   string                 `json:"error,omitempty"`
	Errors  []string               `json:"errors,omitempty"`
	Fields  []validator.FieldError `json:"fields,omitempty"`
}

// Submit handles POST /api/submit
// @Summary Submit a hospital profile
// @Description Validate and store a hospital profile for review
// @Tags Intake
// @Accept json
// @Produce json
// @Success 200 {object} SubmitResponse
// @Failure 400 {object} SubmitFailure
// @Failure 500 {object} SubmitFailure
// @Router /submit [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var payload services.SubmissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.WithError(err).Debug("Rejected malformed submission body")
		c.JSON(http.StatusBadRequest, SubmitFailure{Error: msgInvalidJSON})
		return
	}

	id, err := h.submitter.Submit(c.Request.Context(), &payload)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, SubmitFailure{
				Errors: verr.Messages(),
				Fields: verr.Failures,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, SubmitFailure{Error: msgDatabaseError})
		return
	}

	c.JSON(http.StatusOK, SubmitResponse{Success: true, ID: id})
}

// ListApproved handles GET /api/hospitals
// @Summary List approved hospitals
// @Tags Intake
// @Produce json
// @Success 200 {array} models.HospitalProfile
// @Router /hospitals [get]
func (h *SubmissionHandler) ListApproved(c *gin.Context) {
	profiles, err := h.approved.ListApproved(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list approved hospitals")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgDatabaseError})
		return
	}

	c.JSON(http.StatusOK, profiles)
}
