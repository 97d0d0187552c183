package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hospitalhub/profile-intake/internal/config"
	"github.com/hospitalhub/profile-intake/internal/database"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Without -status every submission and audit row is removed. With -status only
// profiles in the listed statuses whose last update is older than -older-than go.
func main() {
	var (
		dbURLFlag      string
		statusFlag     string
		olderThan      time.Duration
		auditOlderThan time.Duration
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&statusFlag, "status", "", "purge only profiles in these comma-separated statuses (pending, approved, rejected)")
	flag.DurationVar(&olderThan, "older-than", 30*24*time.Hour, "with -status, purge profiles not updated for this long")
	flag.DurationVar(&auditOlderThan, "audit-older-than", 0, "with -status, also purge audit entries older than this")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	// This avoids having to pass secrets on the command line.
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Build minimal database config without loading full app config
	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if statusFlag == "" {
		truncateAll(ctx, db)
		return
	}

	var statuses []models.ProfileStatus
	for _, part := range strings.Split(statusFlag, ",") {
		status, ok := models.ParseProfileStatus(strings.TrimSpace(part))
		if !ok || status == "" {
			log.Fatalf("invalid -status %q", part)
		}
		statuses = append(statuses, status)
	}

	cutoff := time.Now().Add(-olderThan)
	profiles := database.NewHospitalProfileRepository(db, nil)
	removed, err := profiles.DeleteByStatusBefore(ctx, statuses, cutoff)
	if err != nil {
		log.Fatalf("failed to purge profiles: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"statuses": statuses,
		"cutoff":   cutoff.Format(time.RFC3339),
		"removed":  removed,
	}).Info("Purged hospital profiles")

	if auditOlderThan > 0 {
		audit := database.NewReviewAuditRepository(db, logger)
		removed, err := audit.PurgeOlderThan(ctx, time.Now().Add(-auditOlderThan))
		if err != nil {
			log.Fatalf("failed to purge audit logs: %v", err)
		}
		logger.WithField("removed", removed).Info("Purged review audit logs")
	}
}

// truncateAll empties the intake tables. Identities are not restarted so ids
// handed out earlier are never reused.
func truncateAll(ctx context.Context, db *database.PostgresDB) {
	fmt.Println("Connected to database. Truncating tables...")

	if _, err := db.ExecContext(ctx, `TRUNCATE TABLE hospital_profiles, review_audit_logs`); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	fmt.Println("All data cleared successfully.")

	// Verify by printing row counts for each table
	fmt.Println("Post-clear row counts:")
	for _, t := range []string{"hospital_profiles", "review_audit_logs"} {
		var count int
		if err := db.GetContext(ctx, &count, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
