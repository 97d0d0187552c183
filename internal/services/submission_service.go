package services

import (
	"context"
	"errors"

	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// ProfileInserter stores new submissions
type ProfileInserter interface {
	Insert(ctx context.Context, profile *models.HospitalProfile) (int64, error)
}

// SubmissionService validates and stores public submissions
type SubmissionService struct {
	normalizer *SubmissionNormalizer
	store      ProfileInserter
	metrics    *metrics.Metrics
	logger     *logrus.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(store ProfileInserter, m *metrics.Metrics, logger *logrus.Logger) *SubmissionService {
	return &SubmissionService{
		normalizer: NewSubmissionNormalizer(),
		store:      store,
		metrics:    m,
		logger:     logger,
	}
}

// Submit normalizes the payload and inserts it as a pending profile.
// Validation failures return *ValidationError; storage failures return
// *PersistenceError.
func (s *SubmissionService) Submit(ctx context.Context, payload *SubmissionPayload) (int64, error) {
	profile, err := s.normalizer.Normalize(payload)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.metrics.RecordSubmission("invalid")
			s.logger.WithField("failures", len(verr.Failures)).Info("Submission rejected by validation")
		}
		return 0, err
	}

	id, err := s.store.Insert(ctx, profile)
	if err != nil {
		s.metrics.RecordSubmission("error")
		s.logger.WithError(err).WithField("name", profile.Name).Error("Failed to store submission")
		return 0, &PersistenceError{Op: "insert profile", Err: err}
	}

	s.metrics.RecordSubmission("accepted")
	s.logger.WithFields(logrus.Fields{
		"profile_id": id,
		"name":       profile.Name,
		"doctors":    len(profile.Doctors),
		"packages":   len(profile.Packages),
		"photos":     len(profile.Photos),
	}).Info("Hospital profile submitted")

	return id, nil
}
