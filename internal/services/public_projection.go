package services

import (
	"context"
	"sync"
	"time"

	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const approvedCacheKey = "approved_profiles"

// ApprovedSource reads approved rows from storage
type ApprovedSource interface {
	ListApproved(ctx context.Context) ([]models.HospitalProfileRow, error)
}

// PublicProjection serves approved profiles to the public read API.
// It never writes to storage.
type PublicProjection struct {
	source  ApprovedSource
	cache   *gocache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *logrus.Logger

	// generation counts invalidations; a read only fills the cache when no
	// invalidation happened while it was querying storage
	mu         sync.Mutex
	generation uint64
}

// NewPublicProjection creates the projection. A ttl of zero or less disables caching.
func NewPublicProjection(source ApprovedSource, ttl time.Duration, m *metrics.Metrics, logger *logrus.Logger) *PublicProjection {
	p := &PublicProjection{
		source:  source,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
	if ttl > 0 {
		p.cache = gocache.New(ttl, 2*ttl)
	}
	return p
}

// ListApproved returns approved profiles newest first. The returned slice is
// shared with the cache and must not be modified.
func (p *PublicProjection) ListApproved(ctx context.Context) ([]models.HospitalProfile, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(approvedCacheKey); ok {
			p.metrics.RecordPublicCache(true)
			return cached.([]models.HospitalProfile), nil
		}
		p.metrics.RecordPublicCache(false)
	}

	gen := p.currentGeneration()
	rows, err := p.source.ListApproved(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list approved profiles", Err: err}
	}

	profiles := decodeRows(p.logger, rows)
	if p.cache != nil {
		p.mu.Lock()
		if p.generation == gen {
			p.cache.SetDefault(approvedCacheKey, profiles)
		}
		p.mu.Unlock()
	}
	return profiles, nil
}

// Invalidate drops cached results so the next read goes to storage. Reads
// already in flight will not repopulate the cache with their results.
func (p *PublicProjection) Invalidate() {
	if p.cache == nil {
		return
	}
	p.mu.Lock()
	p.generation++
	p.cache.Delete(approvedCacheKey)
	p.mu.Unlock()
}

func (p *PublicProjection) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// decodeRows decodes every row. Columns that fail to decode are logged and
// left empty; the rest of the record is still returned.
func decodeRows(logger *logrus.Logger, rows []models.HospitalProfileRow) []models.HospitalProfile {
	profiles := make([]models.HospitalProfile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, *decodeRow(logger, &rows[i]))
	}
	return profiles
}

func decodeRow(logger *logrus.Logger, row *models.HospitalProfileRow) *models.HospitalProfile {
	profile, failures := row.Decode()
	for _, f := range failures {
		logger.WithError(f.Err).WithFields(logrus.Fields{
			"profile_id": row.ID,
			"field":      f.Field,
		}).Warn("Stored profile column could not be decoded")
	}
	return profile
}
