package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboardRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := setupTestDB(t)
	h := NewDashboardHandler(newTestReviewService(db), quietLogger())

	router := newTestRouter(t)
	admin := router.Group("/admin", asAdmin())
	admin.GET("", h.Index)
	admin.POST("", h.Act)
	admin.GET("/hospitals/:id", h.Show)
	return router, mock
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func redirectQuery(t *testing.T, w *httptest.ResponseRecorder) url.Values {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/admin", loc.Path)
	return loc.Query()
}

func TestDashboardAct(t *testing.T) {
	t.Run("Approve keeps the filter", func(t *testing.T) {
		router, mock := newDashboardRouter(t)
		mock.ExpectExec(`UPDATE hospital_profiles SET status`).
			WithArgs("approved", int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO review_audit_logs`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		w := postForm(router, "/admin", url.Values{
			"id": {"4"}, "action": {"approve"}, "status": {"pending"}, "search": {"pune"},
		})

		q := redirectQuery(t, w)
		assert.Equal(t, "Hospital #4 status updated to approved", q.Get("msg"))
		assert.Equal(t, "pending", q.Get("status"))
		assert.Equal(t, "pune", q.Get("search"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete", func(t *testing.T) {
		router, mock := newDashboardRouter(t)
		mock.ExpectExec(`DELETE FROM hospital_profiles`).
			WithArgs(int64(12)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO review_audit_logs`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		q := redirectQuery(t, postForm(router, "/admin", url.Values{"id": {"12"}, "action": {"delete"}}))
		assert.Equal(t, "Hospital #12 deleted", q.Get("msg"))
	})

	t.Run("Unknown action", func(t *testing.T) {
		router, mock := newDashboardRouter(t)

		q := redirectQuery(t, postForm(router, "/admin", url.Values{"id": {"4"}, "action": {"archive"}}))
		assert.Equal(t, "Unknown action", q.Get("msg"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing id", func(t *testing.T) {
		router, _ := newDashboardRouter(t)

		q := redirectQuery(t, postForm(router, "/admin", url.Values{"id": {"x"}, "action": {"approve"}}))
		assert.Equal(t, "Hospital not found", q.Get("msg"))
	})

	t.Run("No matching row", func(t *testing.T) {
		router, mock := newDashboardRouter(t)
		mock.ExpectExec(`UPDATE hospital_profiles SET status`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO review_audit_logs`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		q := redirectQuery(t, postForm(router, "/admin", url.Values{"id": {"404"}, "action": {"reject"}}))
		assert.Equal(t, "Hospital not found", q.Get("msg"))
	})

	t.Run("Database error", func(t *testing.T) {
		router, mock := newDashboardRouter(t)
		mock.ExpectExec(`UPDATE hospital_profiles SET status`).
			WillReturnError(fmt.Errorf("connection reset"))

		q := redirectQuery(t, postForm(router, "/admin", url.Values{"id": {"4"}, "action": {"approve"}}))
		assert.Equal(t, "Database error.", q.Get("msg"))
	})
}

func TestDashboardIndex(t *testing.T) {
	router, mock := newDashboardRouter(t)
	mock.ExpectQuery(`SELECT .* FROM hospital_profiles ORDER BY`).
		WillReturnRows(sqlmock.NewRows(profileColumns).
			AddRow(profileRow(5, "Apex Care", "Pune", "pending")...).
			AddRow(profileRow(3, "Lotus <Clinic>", "Goa", "approved")...))
	mock.ExpectQuery(`SELECT\s+COUNT\(\*\) AS total`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "pending", "approved", "rejected"}).AddRow(2, 1, 1, 0))

	w := httptest.NewRecorder()
	// unknown status values fall back to all
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin?status=bogus&msg=Hospital+%235+deleted", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Apex Care")
	assert.Contains(t, body, "Lotus &lt;Clinic&gt;")
	assert.Contains(t, body, "Hospital #5 deleted")
	assert.Contains(t, body, `value="approve"`)
	assert.Contains(t, body, `value="delete"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardShow(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		router, mock := newDashboardRouter(t)
		mock.ExpectQuery(`SELECT .* FROM hospital_profiles WHERE id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(profileRow(5, "Apex Care", "Pune", "pending")...))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/hospitals/5", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Dr. Rao")
		assert.Contains(t, w.Body.String(), "Great care")
	})

	t.Run("Not found", func(t *testing.T) {
		router, mock := newDashboardRouter(t)
		mock.ExpectQuery(`SELECT .* FROM hospital_profiles WHERE id = \$1`).
			WithArgs(int64(6)).
			WillReturnRows(sqlmock.NewRows(profileColumns))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/hospitals/6", nil))

		q := redirectQuery(t, w)
		assert.Equal(t, "Hospital not found", q.Get("msg"))
	})
}
