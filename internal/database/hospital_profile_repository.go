package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/pkg/metrics"
	"github.com/lib/pq"
)

// ErrNotFound indicates no profile exists with the requested id
var ErrNotFound = errors.New("hospital profile not found")

const profileColumns = `id, name, type, establishment_year, beds,
	patient_count, accreditations, location, contact, description,
	departments, specialties, equipment, facilities,
	doctors, treatments, packages, reviews, photos,
	status, created_at, updated_at`

// ListFilter narrows List. Empty fields do not filter.
type ListFilter struct {
	Status models.ProfileStatus
	Search string
}

// HospitalProfileRepository handles database operations for hospital profiles
type HospitalProfileRepository struct {
	db      DB
	metrics *metrics.Metrics
}

// NewHospitalProfileRepository creates a new hospital profile repository
func NewHospitalProfileRepository(db DB, m *metrics.Metrics) *HospitalProfileRepository {
	return &HospitalProfileRepository{db: db, metrics: m}
}

func (r *HospitalProfileRepository) observe(op string, start time.Time, err error) {
	r.metrics.ObserveDatabase(op, err, time.Since(start))
}

// Insert stores a new profile and fills in its id and timestamps.
// Status is always written as pending.
func (r *HospitalProfileRepository) Insert(ctx context.Context, profile *models.HospitalProfile) (id int64, err error) {
	start := time.Now()
	defer func() { r.observe("insert", start, err) }()

	profile.Status = models.StatusPending
	row, err := models.NewHospitalProfileRow(profile)
	if err != nil {
		return 0, fmt.Errorf("failed to encode hospital profile: %w", err)
	}

	query := `
		INSERT INTO hospital_profiles (
			name, type, establishment_year, beds,
			patient_count, accreditations, location, contact, description,
			departments, specialties, equipment, facilities,
			doctors, treatments, packages, reviews, photos,
			status, created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, NOW(), NOW()
		)
		RETURNING id, created_at, updated_at
	`

	err = r.db.QueryRowxContext(ctx, query,
		row.Name, row.Type, row.EstablishmentYear, row.Beds,
		row.PatientCount, row.Accreditations, row.Location, row.Contact, row.Description,
		row.Departments, row.Specialties, row.Equipment, row.Facilities,
		row.Doctors, row.Treatments, row.Packages, row.Reviews, row.Photos,
		row.Status,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert hospital profile: %w", err)
	}

	return profile.ID, nil
}

// UpdateStatus sets the review status and bumps updated_at, even when the
// status does not change. It returns the number of rows affected.
func (r *HospitalProfileRepository) UpdateStatus(ctx context.Context, id int64, status models.ProfileStatus) (affected int64, err error) {
	start := time.Now()
	defer func() { r.observe("update_status", start, err) }()

	if !status.Valid() {
		return 0, fmt.Errorf("invalid status %q", status)
	}

	query := `UPDATE hospital_profiles SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return 0, fmt.Errorf("failed to update hospital profile status: %w", err)
	}

	affected, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// Delete removes a profile. Deleting a missing id affects zero rows and is not an error.
func (r *HospitalProfileRepository) Delete(ctx context.Context, id int64) (affected int64, err error) {
	start := time.Now()
	defer func() { r.observe("delete", start, err) }()

	result, err := r.db.ExecContext(ctx, `DELETE FROM hospital_profiles WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete hospital profile: %w", err)
	}

	affected, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// FindByID returns the stored row or ErrNotFound
func (r *HospitalProfileRepository) FindByID(ctx context.Context, id int64) (_ *models.HospitalProfileRow, err error) {
	start := time.Now()
	defer func() { r.observe("find_by_id", start, err) }()

	var row models.HospitalProfileRow
	query := `SELECT ` + profileColumns + ` FROM hospital_profiles WHERE id = $1`
	err = r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hospital profile: %w", err)
	}
	return &row, nil
}

// List returns profiles newest first. Search matches the name or the city of
// the location blob, case-insensitively, as a substring.
func (r *HospitalProfileRepository) List(ctx context.Context, filter ListFilter) (_ []models.HospitalProfileRow, err error) {
	start := time.Now()
	defer func() { r.observe("list", start, err) }()

	var (
		conditions []string
		args       []interface{}
	)

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(`(name ILIKE $%d OR location->>'city' ILIKE $%d)`, n, n))
	}

	query := `SELECT ` + profileColumns + ` FROM hospital_profiles`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows := []models.HospitalProfileRow{}
	if err = r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list hospital profiles: %w", err)
	}
	return rows, nil
}

// ListApproved returns approved profiles newest first
func (r *HospitalProfileRepository) ListApproved(ctx context.Context) ([]models.HospitalProfileRow, error) {
	return r.List(ctx, ListFilter{Status: models.StatusApproved})
}

// CountByStatus returns dashboard totals
func (r *HospitalProfileRepository) CountByStatus(ctx context.Context) (_ *models.StatusCounts, err error) {
	start := time.Now()
	defer func() { r.observe("count_by_status", start, err) }()

	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE status = 'rejected') AS rejected
		FROM hospital_profiles
	`

	var counts models.StatusCounts
	if err = r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count hospital profiles: %w", err)
	}
	return &counts, nil
}

// escapeLike makes % and _ in user input match literally under ILIKE
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// DeleteByStatusBefore removes profiles in any of statuses whose last update
// is older than cutoff. Used by maintenance tooling.
func (r *HospitalProfileRepository) DeleteByStatusBefore(ctx context.Context, statuses []models.ProfileStatus, cutoff time.Time) (affected int64, err error) {
	start := time.Now()
	defer func() { r.observe("delete_by_status", start, err) }()

	if len(statuses) == 0 {
		return 0, fmt.Errorf("no status to purge")
	}
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		if !status.Valid() {
			return 0, fmt.Errorf("invalid status %q", status)
		}
		values = append(values, string(status))
	}

	query := `DELETE FROM hospital_profiles WHERE status = ANY($1) AND updated_at < $2`
	result, err := r.db.ExecContext(ctx, query, pq.Array(values), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge hospital profiles: %w", err)
	}
	return result.RowsAffected()
}
