package services

import (
	"context"
	"fmt"
	"time"

	"github.com/hospitalhub/profile-intake/internal/config"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = 5 * time.Minute

// AuditCleaner removes old review audit entries
type AuditCleaner interface {
	CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CronService manages scheduled background jobs
type CronService struct {
	cron      *cron.Cron
	audit     AuditCleaner
	schedule  string
	retention time.Duration
	logger    *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(audit AuditCleaner, cfg config.MaintenanceConfig, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:      cron.New(cron.WithSeconds()),
		audit:     audit,
		schedule:  cfg.Schedule,
		retention: cfg.AuditRetention,
		logger:    logger,
	}
}

// Start schedules the jobs and starts the scheduler. With no retention
// configured there is nothing to run and the scheduler stays idle.
func (s *CronService) Start() error {
	if s.retention <= 0 {
		s.logger.Info("Audit log retention disabled, no maintenance jobs scheduled")
		return nil
	}

	// Cron format: second minute hour day month weekday
	if _, err := s.cron.AddFunc(s.schedule, s.cleanupAuditLogsJob); err != nil {
		return fmt.Errorf("failed to schedule audit cleanup job %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule":       s.schedule,
		"retention_days": int(s.retention.Hours() / 24),
	}).Info("Cron service started")
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Cron service stopped")
}

// RunCleanupNow runs the audit cleanup immediately
func (s *CronService) RunCleanupNow(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	return s.audit.CleanupOldAuditLogs(ctx, s.retention)
}

func (s *CronService) cleanupAuditLogsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	removed, err := s.RunCleanupNow(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scheduled audit cleanup failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"removed":     removed,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Scheduled audit cleanup finished")
}
