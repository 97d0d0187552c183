package database

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockAuditRepo(t *testing.T) (*ReviewAuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewReviewAuditRepository(sqlx.NewDb(mockDB, "sqlmock"), logger), mock
}

func TestReviewAuditLog(t *testing.T) {
	repo, mock := newMockAuditRepo(t)
	ctx := context.Background()

	t.Run("Fills id, timestamp and details", func(t *testing.T) {
		status := "approved"
		entry := &models.ReviewAuditLog{
			ProfileID:     12,
			AdminUsername: "admin",
			Action:        "approve",
			ResultStatus:  &status,
			Affected:      1,
			IPAddress:     "203.0.113.9",
			UserAgent:     "Firefox 128.0 on Linux",
		}

		mock.ExpectExec(`INSERT INTO review_audit_logs`).
			WithArgs(sqlmock.AnyArg(), int64(12), "admin", "approve", "approved",
				int64(1), "203.0.113.9", "Firefox 128.0 on Linux", jsonArg{`{}`}, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Log(ctx, entry))
		assert.Len(t, entry.ID, 36)
		assert.False(t, entry.CreatedAt.IsZero())
		assert.JSONEq(t, `{}`, string(entry.Details))
	})

	t.Run("Nil entry", func(t *testing.T) {
		assert.Error(t, repo.Log(ctx, nil))
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO review_audit_logs`).
			WillReturnError(fmt.Errorf("disk full"))

		err := repo.Log(ctx, &models.ReviewAuditLog{ProfileID: 3, AdminUsername: "admin", Action: "delete"})
		assert.Contains(t, err.Error(), "failed to log review audit")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewAuditListByProfile(t *testing.T) {
	repo, mock := newMockAuditRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "profile_id", "admin_username", "action", "result_status",
		"affected", "ip_address", "user_agent", "details", "created_at",
	}).
		AddRow("b7e0c1a2-0000-4000-8000-000000000001", int64(5), "admin", "reject", "rejected", int64(1), "10.0.0.1", "", []byte(`{}`), now).
		AddRow("b7e0c1a2-0000-4000-8000-000000000002", int64(5), "admin", "delete", nil, int64(1), "10.0.0.1", "", []byte(`{}`), now.Add(-time.Minute))

	mock.ExpectQuery(`FROM review_audit_logs\s+WHERE profile_id = \$1\s+ORDER BY created_at DESC\s+LIMIT \$2`).
		WithArgs(int64(5), 50).
		WillReturnRows(rows)

	entries, err := repo.ListByProfile(context.Background(), 5, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].ResultStatus)
	assert.Equal(t, "rejected", *entries[0].ResultStatus)
	assert.Nil(t, entries[1].ResultStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewAuditPurge(t *testing.T) {
	repo, mock := newMockAuditRepo(t)
	cutoff := time.Now().AddDate(0, 0, -90)

	mock.ExpectExec(`DELETE FROM review_audit_logs WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 17))

	n, err := repo.PurgeOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
