package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryAuditStore struct {
	entries []*models.ReviewAuditLog
	cutoff  time.Time
}

func (s *memoryAuditStore) Log(ctx context.Context, entry *models.ReviewAuditLog) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memoryAuditStore) ListByProfile(ctx context.Context, profileID int64, limit int) ([]models.ReviewAuditLog, error) {
	var out []models.ReviewAuditLog
	for _, e := range s.entries {
		if e.ProfileID == profileID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *memoryAuditStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return 2, nil
}

func TestLogReviewAction(t *testing.T) {
	store := &memoryAuditStore{}
	audit := NewAuditService(store, quietLogger())

	result := ReviewResult{ID: 8, Action: ActionApprove, Status: models.StatusApproved, Affected: 1}
	require.NoError(t, audit.LogReviewAction(context.Background(), testAdmin, result, testMeta))

	require.Len(t, store.entries, 1)
	entry := store.entries[0]
	assert.Equal(t, int64(8), entry.ProfileID)
	assert.Equal(t, "admin", entry.AdminUsername)
	assert.Equal(t, "approve", entry.Action)
	require.NotNil(t, entry.ResultStatus)
	assert.Equal(t, "approved", *entry.ResultStatus)
	assert.Equal(t, "198.51.100.7", entry.IPAddress)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Details, &details))
	assert.Equal(t, "sess-1", details["session_id"])
	device, ok := details["device_info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Firefox", device["browser"])
	assert.Equal(t, "desktop", device["device_type"])
	assert.NotContains(t, details, "reason")
}

func TestLogReviewAction_Delete(t *testing.T) {
	store := &memoryAuditStore{}
	audit := NewAuditService(store, quietLogger())

	result := ReviewResult{ID: 3, Action: ActionDelete}
	require.NoError(t, audit.LogReviewAction(context.Background(), testAdmin, result, RequestMeta{}))

	entry := store.entries[0]
	assert.Nil(t, entry.ResultStatus)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal(entry.Details, &details))
	assert.Equal(t, "no matching profile", details["reason"])

	history, err := audit.History(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCleanupOldAuditLogs(t *testing.T) {
	store := &memoryAuditStore{}
	audit := NewAuditService(store, quietLogger())

	removed, err := audit.CleanupOldAuditLogs(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), store.cutoff, 5*time.Second)
}
