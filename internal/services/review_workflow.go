package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hospitalhub/profile-intake/internal/database"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Action is an administrator review action
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionPending Action = "pending"
	ActionDelete  Action = "delete"
)

// ParseAction accepts approve, reject, pending (or reset) and delete
func ParseAction(raw string) (Action, error) {
	switch a := Action(strings.TrimSpace(raw)); a {
	case ActionApprove, ActionReject, ActionPending, ActionDelete:
		return a, nil
	case "reset":
		return ActionPending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

// TargetStatus returns the status an action moves a profile to.
// Delete has no target status.
func (a Action) TargetStatus() (models.ProfileStatus, bool) {
	switch a {
	case ActionApprove:
		return models.StatusApproved, true
	case ActionReject:
		return models.StatusRejected, true
	case ActionPending:
		return models.StatusPending, true
	}
	return "", false
}

// ReviewResult reports the outcome of an applied action
type ReviewResult struct {
	ID       int64                `json:"id"`
	Action   Action               `json:"action"`
	Status   models.ProfileStatus `json:"status,omitempty"`
	Affected int64                `json:"affected"`
}

// Found reports whether the action matched a stored profile
func (r ReviewResult) Found() bool {
	return r.Affected > 0
}

// Message is the flash text shown after the action
func (r ReviewResult) Message() string {
	switch {
	case !r.Found():
		return "Hospital not found"
	case r.Action == ActionDelete:
		return fmt.Sprintf("Hospital #%d deleted", r.ID)
	default:
		return fmt.Sprintf("Hospital #%d status updated to %s", r.ID, r.Status)
	}
}

// ReviewStore is the storage the workflow needs
type ReviewStore interface {
	UpdateStatus(ctx context.Context, id int64, status models.ProfileStatus) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	FindByID(ctx context.Context, id int64) (*models.HospitalProfileRow, error)
	List(ctx context.Context, filter database.ListFilter) ([]models.HospitalProfileRow, error)
	CountByStatus(ctx context.Context) (*models.StatusCounts, error)
}

// Invalidator drops cached public results
type Invalidator interface {
	Invalidate()
}

// ReviewService applies administrator actions to submitted profiles
type ReviewService struct {
	store   ReviewStore
	audit   *AuditService
	cache   Invalidator
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewReviewService creates a new review service. audit and cache may be nil.
func NewReviewService(store ReviewStore, audit *AuditService, cache Invalidator, m *metrics.Metrics, logger *logrus.Logger) *ReviewService {
	return &ReviewService{
		store:   store,
		audit:   audit,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// Apply performs action on profile id. A missing id is reported through
// ReviewResult.Affected and is not an error. Self-transitions still bump
// updated_at.
func (s *ReviewService) Apply(ctx context.Context, principal *models.AdminPrincipal, id int64, action Action, meta RequestMeta) (ReviewResult, error) {
	result := ReviewResult{ID: id, Action: action}

	if principal == nil {
		s.metrics.RecordReviewAction(string(action), "unauthorized")
		return result, ErrUnauthorized
	}

	var (
		affected int64
		err      error
		op       string
	)
	if action == ActionDelete {
		op = "delete profile"
		affected, err = s.store.Delete(ctx, id)
	} else {
		status, ok := action.TargetStatus()
		if !ok {
			s.metrics.RecordReviewAction(string(action), "invalid")
			return result, fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		result.Status = status
		op = "update profile status"
		affected, err = s.store.UpdateStatus(ctx, id, status)
	}

	if err != nil {
		s.metrics.RecordReviewAction(string(action), "error")
		s.logger.WithError(err).WithFields(logrus.Fields{
			"profile_id": id,
			"action":     action,
			"admin":      principal.Username,
		}).Error("Review action failed")
		return result, &PersistenceError{Op: op, Err: err}
	}

	result.Affected = affected
	if affected > 0 {
		s.metrics.RecordReviewAction(string(action), "success")
		if s.cache != nil {
			s.cache.Invalidate()
		}
	} else {
		s.metrics.RecordReviewAction(string(action), "not_found")
	}

	s.logger.WithFields(logrus.Fields{
		"profile_id": id,
		"action":     action,
		"affected":   affected,
		"admin":      principal.Username,
	}).Info("Review action applied")

	if s.audit != nil {
		if err := s.audit.LogReviewAction(ctx, principal, result, meta); err != nil {
			s.logger.WithError(err).WithField("profile_id", id).Warn("Failed to record review audit entry")
		}
	}

	return result, nil
}

// List returns profiles for the admin dashboard
func (s *ReviewService) List(ctx context.Context, filter database.ListFilter) ([]models.HospitalProfile, error) {
	rows, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, &PersistenceError{Op: "list profiles", Err: err}
	}
	return decodeRows(s.logger, rows), nil
}

// Get returns one profile in any status
func (s *ReviewService) Get(ctx context.Context, id int64) (*models.HospitalProfile, error) {
	row, err := s.store.FindByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "get profile", Err: err}
	}
	return decodeRow(s.logger, row), nil
}

// Stats returns per-status totals for the dashboard
func (s *ReviewService) Stats(ctx context.Context) (*models.StatusCounts, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "count profiles", Err: err}
	}
	return counts, nil
}
