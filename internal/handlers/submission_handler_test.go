package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/internal/services"
	"github.com/hospitalhub/profile-intake/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performSubmit(t *testing.T, h *SubmissionHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := newTestRouter(t)
	router.POST("/api/submit", h.Submit)

	req := httptest.NewRequest(http.MethodPost, "/api/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmit_Success(t *testing.T) {
	submitter := &fakeSubmitter{id: 17}
	h := NewSubmissionHandler(submitter, &fakeApproved{}, quietLogger())

	w := performSubmit(t, h, `{"name":"Apex Care","type":"Private","beds":120,"establishment_year":"1998","address":"1 Rd","city":"Pune"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"id":17}`, w.Body.String())
	require.NotNil(t, submitter.payload)
	assert.Equal(t, "120", submitter.payload.Beds.String())
	assert.Equal(t, "1998", submitter.payload.EstablishmentYear.String())
}

func TestSubmit_InvalidJSON(t *testing.T) {
	h := NewSubmissionHandler(&fakeSubmitter{}, &fakeApproved{}, quietLogger())

	for _, body := range []string{`{"name":`, ``, `[1,2]`} {
		w := performSubmit(t, h, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Invalid JSON payload."}`, w.Body.String())
	}
}

func TestSubmit_ValidationErrors(t *testing.T) {
	submitter := &fakeSubmitter{err: &services.ValidationError{Failures: []validator.FieldError{
		{Field: "name", Message: "Hospital name is required."},
		{Field: "contact_email", Message: "Invalid email address."},
	}}}
	h := NewSubmissionHandler(submitter, &fakeApproved{}, quietLogger())

	w := performSubmit(t, h, `{"type":"Private"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{
		"success": false,
		"errors": ["Hospital name is required.", "Invalid email address."],
		"fields": [
			{"field": "name", "message": "Hospital name is required."},
			{"field": "contact_email", "message": "Invalid email address."}
		]
	}`, w.Body.String())
}

func TestSubmit_DatabaseError(t *testing.T) {
	submitter := &fakeSubmitter{err: &services.PersistenceError{Op: "insert profile", Err: fmt.Errorf("pq: connection refused")}}
	h := NewSubmissionHandler(submitter, &fakeApproved{}, quietLogger())

	w := performSubmit(t, h, `{"name":"Apex Care"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Database error."}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestSubmit_EndToEndValidation(t *testing.T) {
	// validation fails before the store is touched
	service := services.NewSubmissionService(nil, nil, quietLogger())
	h := NewSubmissionHandler(service, &fakeApproved{}, quietLogger())

	w := performSubmit(t, h, `{"name":" ","type":"Clinic","address":"x","city":"y","contact_email":"nope","beds":-4}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body SubmitFailure
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{
		"Hospital name is required.",
		"Invalid hospital type.",
		"Number of beds must be a non-negative whole number.",
		"Invalid email address.",
	}, body.Errors)
	assert.False(t, body.Success)
}

func TestListApproved(t *testing.T) {
	t.Run("Empty list encodes as array", func(t *testing.T) {
		h := NewSubmissionHandler(&fakeSubmitter{}, &fakeApproved{profiles: []models.HospitalProfile{}}, quietLogger())
		router := newTestRouter(t)
		router.GET("/api/hospitals", h.ListApproved)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/hospitals", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Profiles", func(t *testing.T) {
		p := models.HospitalProfile{ID: 3, Name: "Apex Care", Status: models.StatusApproved}
		p.EnsureCollections()
		h := NewSubmissionHandler(&fakeSubmitter{}, &fakeApproved{profiles: []models.HospitalProfile{p}}, quietLogger())
		router := newTestRouter(t)
		router.GET("/api/hospitals", h.ListApproved)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/hospitals", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Apex Care", got[0]["name"])
		assert.Equal(t, []interface{}{}, got[0]["doctors"])
	})

	t.Run("Database error", func(t *testing.T) {
		h := NewSubmissionHandler(&fakeSubmitter{}, &fakeApproved{err: fmt.Errorf("boom")}, quietLogger())
		router := newTestRouter(t)
		router.GET("/api/hospitals", h.ListApproved)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/hospitals", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Database error."}`, w.Body.String())
	})
}
