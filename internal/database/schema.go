package database

import (
	"context"
	"fmt"
)

// schemaStatements create the intake tables. Every statement is idempotent.
// ids come from BIGSERIAL and are never reused after a delete.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS hospital_profiles (
		id                 BIGSERIAL PRIMARY KEY,
		name               TEXT NOT NULL,
		type               TEXT NOT NULL CHECK (type IN ('Government', 'Private')),
		establishment_year INTEGER CHECK (establishment_year BETWEEN 1800 AND 2100),
		beds               INTEGER CHECK (beds >= 0),
		patient_count      JSONB NOT NULL DEFAULT '{}'::jsonb,
		accreditations     JSONB NOT NULL DEFAULT '[]'::jsonb,
		location           JSONB NOT NULL DEFAULT '{}'::jsonb,
		contact            JSONB NOT NULL DEFAULT '{}'::jsonb,
		description        JSONB NOT NULL DEFAULT '{}'::jsonb,
		departments        JSONB NOT NULL DEFAULT '[]'::jsonb,
		specialties        JSONB NOT NULL DEFAULT '[]'::jsonb,
		equipment          JSONB NOT NULL DEFAULT '[]'::jsonb,
		facilities         JSONB NOT NULL DEFAULT '[]'::jsonb,
		doctors            JSONB NOT NULL DEFAULT '[]'::jsonb,
		treatments         JSONB NOT NULL DEFAULT '[]'::jsonb,
		packages           JSONB NOT NULL DEFAULT '[]'::jsonb,
		reviews            JSONB NOT NULL DEFAULT '[]'::jsonb,
		photos             JSONB NOT NULL DEFAULT '[]'::jsonb,
		status             TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// older deployments created the table before reviews were collected
	`ALTER TABLE hospital_profiles ADD COLUMN IF NOT EXISTS reviews JSONB NOT NULL DEFAULT '[]'::jsonb`,
	`CREATE INDEX IF NOT EXISTS idx_hospital_profiles_status ON hospital_profiles (status)`,
	`CREATE INDEX IF NOT EXISTS idx_hospital_profiles_created_at ON hospital_profiles (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS review_audit_logs (
		id             UUID PRIMARY KEY,
		profile_id     BIGINT NOT NULL,
		admin_username TEXT NOT NULL,
		action         TEXT NOT NULL,
		result_status  TEXT,
		affected       BIGINT NOT NULL DEFAULT 0,
		ip_address     TEXT NOT NULL DEFAULT '',
		user_agent     TEXT NOT NULL DEFAULT '',
		details        JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_review_audit_logs_profile ON review_audit_logs (profile_id, created_at DESC)`,
}

// EnsureSchema creates the tables and indexes if they do not exist
func EnsureSchema(ctx context.Context, db DB) error {
	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
