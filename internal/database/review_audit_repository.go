package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/sirupsen/logrus"
)

// ReviewAuditRepository handles review audit log operations
type ReviewAuditRepository struct {
	db     DB
	logger *logrus.Logger
}

// NewReviewAuditRepository creates a new review audit repository
func NewReviewAuditRepository(db DB, logger *logrus.Logger) *ReviewAuditRepository {
	return &ReviewAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new review audit entry
func (r *ReviewAuditRepository) Log(ctx context.Context, entry *models.ReviewAuditLog) error {
	if entry == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	// Ensure ID and timestamp are set
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if len(entry.Details) == 0 {
		entry.Details = models.JSONB(`{}`)
	}

	query := `
		INSERT INTO review_audit_logs (
			id, profile_id, admin_username, action, result_status,
			affected, ip_address, user_agent, details, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10
		)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.ProfileID, entry.AdminUsername, entry.Action, entry.ResultStatus,
		entry.Affected, entry.IPAddress, entry.UserAgent, entry.Details, entry.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"profile_id": entry.ProfileID,
			"action":     entry.Action,
		}).Error("Failed to write review audit log")
		return fmt.Errorf("failed to log review audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   entry.ID,
		"profile_id": entry.ProfileID,
		"action":     entry.Action,
	}).Debug("Review audit logged")

	return nil
}

// ListByProfile returns the audit trail of one profile, newest first
func (r *ReviewAuditRepository) ListByProfile(ctx context.Context, profileID int64, limit int) ([]models.ReviewAuditLog, error) {
	if limit <= 0 {
		limit = 50
	}

	entries := []models.ReviewAuditLog{}
	query := `
		SELECT id, profile_id, admin_username, action, result_status,
			affected, ip_address, user_agent, details, created_at
		FROM review_audit_logs
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &entries, query, profileID, limit); err != nil {
		return nil, fmt.Errorf("failed to get review audit logs: %w", err)
	}
	return entries, nil
}

// PurgeOlderThan removes audit rows created before cutoff
func (r *ReviewAuditRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM review_audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge review audit logs: %w", err)
	}
	return result.RowsAffected()
}
