package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/hospitalhub/profile-intake/internal/config"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/pkg/jwt"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator resolves a bearer token into an administrator principal.
// Review handlers depend only on this interface.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.AdminPrincipal, error)
}

// AdminAuthService checks the configured administrator credential and
// issues access tokens
type AdminAuthService struct {
	username     string
	passwordHash []byte
	jwtService   *jwt.Service
	logger       *logrus.Logger
}

// NewAdminAuthService creates a new admin auth service
func NewAdminAuthService(cfg config.AdminConfig, jwtService *jwt.Service, logger *logrus.Logger) (*AdminAuthService, error) {
	if cfg.PasswordHash == "" {
		return nil, &ConfigurationError{Component: "Admin authentication", Missing: []string{"ADMIN_PASSWORD_HASH"}}
	}
	if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}

	return &AdminAuthService{
		username:     cfg.Username,
		passwordHash: []byte(cfg.PasswordHash),
		jwtService:   jwtService,
		logger:       logger,
	}, nil
}

// Login authenticates the administrator and returns an access token
func (s *AdminAuthService) Login(ctx context.Context, username, password string) (*models.AdminLoginResponse, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1

	// Always run bcrypt so a wrong username costs the same as a wrong password
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		s.logger.WithField("username", username).Warn("Admin login failed")
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.jwtService.GenerateAdminToken(s.username, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"username":   s.username,
		"session_id": claims.SessionID(),
	}).Info("Admin logged in")

	return &models.AdminLoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.jwtService.Expiry().Seconds()),
		Admin:       principalFromClaims(claims),
	}, nil
}

// Authenticate validates an access token. Any failure is reported as ErrUnauthorized.
func (s *AdminAuthService) Authenticate(ctx context.Context, token string) (*models.AdminPrincipal, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.jwtService.ValidateAdminToken(token)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.WithError(err).Debug("Rejected admin token")
		}
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if claims.Role != models.RoleAdmin || subtle.ConstantTimeCompare([]byte(claims.Username), []byte(s.username)) != 1 {
		return nil, ErrUnauthorized
	}

	return principalFromClaims(claims), nil
}

func principalFromClaims(claims *jwt.Claims) *models.AdminPrincipal {
	p := &models.AdminPrincipal{
		Username:  claims.Username,
		Role:      claims.Role,
		SessionID: claims.SessionID(),
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p
}
