package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	// AdminContextKey is the key used to store the admin principal in Gin context
	AdminContextKey = "admin"

	// AdminCookieName carries the access token for the HTML dashboard
	AdminCookieName = "admin_token"

	// AdminLoginPath is where HTML requests without a session are sent
	AdminLoginPath = "/admin/login"
)

// AuthMode selects how unauthenticated requests are answered
type AuthMode int

const (
	// ModeAPI answers 401 with a JSON body
	ModeAPI AuthMode = iota
	// ModeHTML redirects to the login page
	ModeHTML
)

// RequireAdmin creates a middleware that resolves the request token through
// auth and stores the principal in the context
func RequireAdmin(auth services.Authenticator, mode AuthMode, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, source := extractToken(c)
		if token == "" {
			deny(c, mode, "MISSING_AUTH", "Authentication required")
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"path":   c.Request.URL.Path,
				"ip":     c.ClientIP(),
				"source": source,
			}).WithError(err).Warn("Admin authentication failed")

			code := "INVALID_TOKEN"
			if !errors.Is(err, services.ErrUnauthorized) {
				code = "AUTH_ERROR"
			}
			if source == "cookie" {
				clearAdminCookie(c)
			}
			deny(c, mode, code, "Invalid or expired session")
			return
		}

		c.Set(AdminContextKey, principal)
		c.Next()
	}
}

// extractToken reads a Bearer header first, then the session cookie
func extractToken(c *gin.Context) (string, string) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1]), "header"
		}
		return "", "header"
	}

	if cookie, err := c.Cookie(AdminCookieName); err == nil {
		return cookie, "cookie"
	}
	return "", ""
}

func deny(c *gin.Context, mode AuthMode, code, message string) {
	if mode == ModeHTML {
		c.Redirect(http.StatusSeeOther, AdminLoginPath)
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": message,
		"code":    code,
	})
}

func clearAdminCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AdminCookieName, "", -1, "/", "", false, true)
}

// GetAdminPrincipal retrieves the admin principal from Gin context
func GetAdminPrincipal(c *gin.Context) (*models.AdminPrincipal, bool) {
	value, exists := c.Get(AdminContextKey)
	if !exists {
		return nil, false
	}

	principal, ok := value.(*models.AdminPrincipal)
	if !ok || principal == nil {
		return nil, false
	}

	return principal, true
}
