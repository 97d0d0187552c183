package handlers

import (
	"context"
	"database/sql/driver"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/database"
	"github.com/hospitalhub/profile-intake/internal/middleware"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/internal/services"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// setupTestDB creates a mock database for testing
func setupTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	tmpl, err := LoadTemplates()
	require.NoError(t, err)
	router.SetHTMLTemplate(tmpl)
	return router
}

// asAdmin stands in for RequireAdmin in handler tests
func asAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AdminContextKey, &models.AdminPrincipal{Username: "admin", Role: models.RoleAdmin, SessionID: "s-1"})
		c.Next()
	}
}

func newTestReviewService(db *sqlx.DB) *services.ReviewService {
	logger := quietLogger()
	audit := services.NewAuditService(database.NewReviewAuditRepository(db, logger), logger)
	return services.NewReviewService(database.NewHospitalProfileRepository(db, nil), audit, nil, nil, logger)
}

var profileColumns = []string{
	"id", "name", "type", "establishment_year", "beds",
	"patient_count", "accreditations", "location", "contact", "description",
	"departments", "specialties", "equipment", "facilities",
	"doctors", "treatments", "packages", "reviews", "photos",
	"status", "created_at", "updated_at",
}

func profileRow(id int64, name, city, status string) []driver.Value {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, name, "Private", int64(2001), int64(250),
		[]byte(`{"total":null,"annual":null}`), []byte(`["JCI"]`),
		[]byte(`{"address":"1 Park Rd","city":"` + city + `","state":"","lat":null,"lng":null}`),
		[]byte(`{"general":"+91 20 1234 5678","emergency":"","email":"","website":""}`),
		[]byte(`{"brief":"","detailed":"","highlights":[]}`),
		[]byte(`[]`), []byte(`[]`), []byte(`[]`), []byte(`[]`),
		[]byte(`[{"name":"Dr. Rao","experience":"12"}]`), []byte(`[]`), []byte(`[]`),
		[]byte(`[{"author":"Anonymous","text":"Great care","rating":5}]`), []byte(`[]`),
		status, now, now,
	}
}

type fakeSubmitter struct {
	id      int64
	err     error
	payload *services.SubmissionPayload
}

func (f *fakeSubmitter) Submit(ctx context.Context, payload *services.SubmissionPayload) (int64, error) {
	f.payload = payload
	return f.id, f.err
}

type fakeApproved struct {
	profiles []models.HospitalProfile
	err      error
}

func (f *fakeApproved) ListApproved(ctx context.Context) ([]models.HospitalProfile, error) {
	return f.profiles, f.err
}
