package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/middleware"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/internal/services"
	"github.com/hospitalhub/profile-intake/internal/utils"
	"github.com/sirupsen/logrus"
)

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	adminAuthService *services.AdminAuthService
	cookieSecure     bool
	logger           *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(adminAuthService *services.AdminAuthService, cookieSecure bool, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		adminAuthService: adminAuthService,
		cookieSecure:     cookieSecure,
		logger:           logger,
	}
}

// Login handles admin login requests
// @Summary Admin login
// @Description Authenticate the administrator and return an access token
// @Tags Admin Auth
// @Accept json
// @Produce json
// @Param loginRequest body models.AdminLoginRequest true "Login credentials"
// @Success 200 {object} models.AdminLoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/auth/login [post]
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "Username and password are required"})
		return
	}

	response, err := h.adminAuthService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeLoginError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *AdminAuthHandler) writeLoginError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidCredentials) {
		h.logger.WithField("ip", utils.GetRealIP(c)).Warn("Admin login rejected")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid_credentials", Message: "Invalid username or password"})
		return
	}
	h.logger.WithError(err).Error("Admin login failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Login failed"})
}

// LoginPage renders GET /admin/login
func (h *AdminAuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Error": "", "Username": ""})
}

// LoginForm handles POST /admin/login from the HTML form
func (h *AdminAuthHandler) LoginForm(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{"Error": "Username and password are required", "Username": c.PostForm("username")})
		return
	}

	response, err := h.adminAuthService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		status := http.StatusUnauthorized
		msg := "Invalid username or password"
		if !errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.WithError(err).Error("Admin login failed")
			status = http.StatusInternalServerError
			msg = "Login failed"
		}
		c.HTML(status, "login.html", gin.H{"Error": msg, "Username": req.Username})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminCookieName, response.AccessToken, int(response.ExpiresIn), "/", "", h.cookieSecure, true)
	c.Redirect(http.StatusSeeOther, "/admin")
}

// Logout handles POST /admin/logout
func (h *AdminAuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AdminCookieName, "", -1, "/", "", h.cookieSecure, true)
	c.Redirect(http.StatusSeeOther, middleware.AdminLoginPath)
}
