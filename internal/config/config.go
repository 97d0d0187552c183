package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Admin credential configuration
	Admin AdminConfig

	// Image host configuration
	ImageHost ImageHostConfig

	// Rate limiting configuration
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig

	// Public read API configuration
	Public PublicConfig

	// Scheduled maintenance configuration
	Maintenance MaintenanceConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string // takes precedence over the discrete fields
	Host               string
	Port               string
	Name               string
	User               string
	Password           string
	SSLMode            string
	NeonEndpoint       bool // add options=endpoint=<first host label>
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	AutoMigrate        bool
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// AdminConfig holds the single administrator credential
type AdminConfig struct {
	Username     string
	PasswordHash string // bcrypt
	CookieSecure bool
}

// ImageHostConfig holds Cloudinary settings. Missing values are reported per
// request rather than at startup.
type ImageHostConfig struct {
	CloudName      string
	APIKey         string
	APISecret      string
	Folder         string
	UploadMaxBytes int64
}

// RateLimitConfig holds per-client-IP limits for public write routes
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// PublicConfig holds settings of the approved-profiles read API
type PublicConfig struct {
	CacheTTL time.Duration
}

// MaintenanceConfig holds the background cleanup schedule
type MaintenanceConfig struct {
	Schedule       string        // cron expression with seconds
	AuditRetention time.Duration // zero disables audit cleanup
}

// ConfigurationError lists required settings that are not set
type ConfigurationError struct {
	Component string
	Missing   []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not configured. Set %s.", e.Component, strings.Join(e.Missing, ", "))
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := FromEnv()

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FromEnv reads the environment without loading .env or validating
func FromEnv() *Config {
	environment := getEnv("ENVIRONMENT", "development")

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: environment,
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			Name:               getEnv("DB_NAME", ""),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			SSLMode:            getEnv("DB_SSLMODE", "require"),
			NeonEndpoint:       getEnvAsBool("DB_NEON_ENDPOINT", false),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
			AutoMigrate:        getEnvAsBool("DATABASE_AUTO_MIGRATE", true),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 28800)) * time.Second,
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			CookieSecure: getEnvAsBool("ADMIN_COOKIE_SECURE", environment != "development"),
		},
		ImageHost: ImageHostConfig{
			CloudName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:         getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:      getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:         getEnv("CLOUDINARY_FOLDER", "hospital_profiles"),
			UploadMaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 10<<20)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 30),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Public: PublicConfig{
			CacheTTL: time.Duration(getEnvAsInt("PUBLIC_CACHE_TTL_SECONDS", 60)) * time.Second,
		},
		Maintenance: MaintenanceConfig{
			Schedule:       getEnv("MAINTENANCE_SCHEDULE", "0 0 3 * * *"),
			AuditRetention: time.Duration(getEnvAsInt("AUDIT_RETENTION_DAYS", 180)) * 24 * time.Hour,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var missing []string

	if c.Database.URL == "" {
		for _, kv := range []struct{ key, value string }{
			{"DB_HOST", c.Database.Host},
			{"DB_NAME", c.Database.Name},
			{"DB_USER", c.Database.User},
		} {
			if kv.value == "" {
				missing = append(missing, kv.key)
			}
		}
		if len(missing) > 0 {
			missing = append([]string{"DATABASE_URL or"}, missing...)
		}
	}

	if c.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if c.Admin.PasswordHash == "" {
		missing = append(missing, "ADMIN_PASSWORD_HASH")
	}

	if len(missing) > 0 {
		return &ConfigurationError{Component: "Server", Missing: missing}
	}

	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// DSN returns the connection string for lib/pq. DATABASE_URL wins when set.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	query := url.Values{}
	if d.SSLMode != "" {
		query.Set("sslmode", d.SSLMode)
	}
	if d.NeonEndpoint {
		// Neon routes by endpoint id when SNI is unavailable
		endpoint := strings.SplitN(d.Host, ".", 2)[0]
		query.Set("options", "endpoint="+endpoint)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
