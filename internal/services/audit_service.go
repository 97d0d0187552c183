package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/internal/utils"
	"github.com/sirupsen/logrus"
)

// RequestMeta describes the client behind an admin action
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// AuditStore persists review audit entries
type AuditStore interface {
	Log(ctx context.Context, entry *models.ReviewAuditLog) error
	ListByProfile(ctx context.Context, profileID int64, limit int) ([]models.ReviewAuditLog, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditService records administrator review actions
type AuditService struct {
	store  AuditStore
	logger *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(store AuditStore, logger *logrus.Logger) *AuditService {
	return &AuditService{
		store:  store,
		logger: logger,
	}
}

// LogReviewAction records one review action. resultStatus is nil for deletes.
func (s *AuditService) LogReviewAction(ctx context.Context, principal *models.AdminPrincipal, result ReviewResult, meta RequestMeta) error {
	deviceInfo := utils.ParseUserAgent(meta.UserAgent)

	details := map[string]interface{}{
		"device_info": deviceInfo,
	}
	if principal.SessionID != "" {
		details["session_id"] = principal.SessionID
	}
	if result.Affected == 0 {
		details["reason"] = "no matching profile"
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	entry := &models.ReviewAuditLog{
		ProfileID:     result.ID,
		AdminUsername: principal.Username,
		Action:        string(result.Action),
		Affected:      result.Affected,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Details:       raw,
	}
	if status, ok := result.Action.TargetStatus(); ok {
		s := string(status)
		entry.ResultStatus = &s
	}

	return s.store.Log(ctx, entry)
}

// History returns the most recent audit entries of one profile
func (s *AuditService) History(ctx context.Context, profileID int64, limit int) ([]models.ReviewAuditLog, error) {
	return s.store.ListByProfile(ctx, profileID, limit)
}

// CleanupOldAuditLogs removes audit entries older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	removed, err := s.store.PurgeOlderThan(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	s.logger.WithField("removed", removed).Info("Old review audit logs removed")
	return removed, nil
}
