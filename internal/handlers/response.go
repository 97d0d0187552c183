package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/services"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of non-submission API errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

const (
	msgInvalidJSON   = "Invalid JSON payload."
	msgDatabaseError = "Database error."
)

// parseID reads a positive int64 path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps service errors onto the admin JSON API
func writeServiceError(c *gin.Context, logger *logrus.Logger, err error) {
	var perr *services.PersistenceError
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Hospital not found"})
	case errors.Is(err, services.ErrUnknownAction):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_action", Message: "Unknown action"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
	case errors.As(err, &perr):
		logger.WithError(perr.Err).WithField("op", perr.Op).Error("Persistence failure")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "database_error", Message: msgDatabaseError})
	default:
		logger.WithError(err).Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Internal server error"})
	}
}
