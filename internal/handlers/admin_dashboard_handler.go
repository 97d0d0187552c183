package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/database"
	"github.com/hospitalhub/profile-intake/internal/middleware"
	"github.com/hospitalhub/profile-intake/internal/models"
	"github.com/hospitalhub/profile-intake/internal/services"
	"github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

// LoadTemplates parses the admin pages for gin's HTML renderer
func LoadTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
		"intOr": func(v *int, fallback string) string {
			if v == nil {
				return fallback
			}
			return strconv.Itoa(*v)
		},
		"floatOr": func(v *float64, fallback string) string {
			if v == nil {
				return fallback
			}
			return strconv.FormatFloat(*v, 'f', -1, 64)
		},
	}).ParseFS(templateFS, "templates/*.html")
}

// DashboardHandler serves the server-rendered admin pages
type DashboardHandler struct {
	reviews *services.ReviewService
	logger  *logrus.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(reviews *services.ReviewService, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		reviews: reviews,
		logger:  logger,
	}
}

type dashboardPage struct {
	Admin     *models.AdminPrincipal
	Hospitals []models.HospitalProfile
	Stats     *models.StatusCounts
	Status    string
	Search    string
	Message   string
	Statuses  []models.ProfileStatus
	Actions   []services.Action
}

var dashboardActions = []services.Action{
	services.ActionApprove, services.ActionReject, services.ActionPending, services.ActionDelete,
}

// Index renders GET /admin
func (h *DashboardHandler) Index(c *gin.Context) {
	rawStatus := c.Query("status")
	status, ok := models.ParseProfileStatus(rawStatus)
	if !ok {
		status, rawStatus = "", ""
	}
	search := strings.TrimSpace(c.Query("search"))

	ctx := c.Request.Context()
	hospitals, err := h.reviews.List(ctx, database.ListFilter{Status: status, Search: search})
	if err != nil {
		h.serverError(c, err)
		return
	}

	stats, err := h.reviews.Stats(ctx)
	if err != nil {
		h.serverError(c, err)
		return
	}

	principal, _ := middleware.GetAdminPrincipal(c)
	c.HTML(http.StatusOK, "dashboard.html", dashboardPage{
		Admin:     principal,
		Hospitals: hospitals,
		Stats:     stats,
		Status:    rawStatus,
		Search:    search,
		Message:   c.Query("msg"),
		Statuses:  models.ProfileStatuses,
		Actions:   dashboardActions,
	})
}

// Act handles POST /admin with form fields action and id
func (h *DashboardHandler) Act(c *gin.Context) {
	back := url.Values{}
	if s := c.PostForm("status"); s != "" {
		back.Set("status", s)
	}
	if s := c.PostForm("search"); s != "" {
		back.Set("search", s)
	}

	action, err := services.ParseAction(c.PostForm("action"))
	if err != nil {
		h.redirect(c, back, "Unknown action")
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(c.PostForm("id")), 10, 64)
	if err != nil || id <= 0 {
		h.redirect(c, back, "Hospital not found")
		return
	}

	principal, _ := middleware.GetAdminPrincipal(c)
	result, err := h.reviews.Apply(c.Request.Context(), principal, id, action, requestMeta(c))
	if err != nil {
		var perr *services.PersistenceError
		if errors.As(err, &perr) {
			h.redirect(c, back, msgDatabaseError)
			return
		}
		if errors.Is(err, services.ErrUnauthorized) {
			c.Redirect(http.StatusSeeOther, middleware.AdminLoginPath)
			return
		}
		h.redirect(c, back, "Unknown action")
		return
	}

	h.redirect(c, back, result.Message())
}

// Show renders GET /admin/hospitals/:id
func (h *DashboardHandler) Show(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.redirect(c, url.Values{}, "Hospital not found")
		return
	}

	profile, err := h.reviews.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		h.redirect(c, url.Values{}, "Hospital not found")
		return
	}
	if err != nil {
		h.serverError(c, err)
		return
	}

	principal, _ := middleware.GetAdminPrincipal(c)
	c.HTML(http.StatusOK, "hospital.html", gin.H{
		"Admin":    principal,
		"Hospital": profile,
	})
}

func (h *DashboardHandler) redirect(c *gin.Context, q url.Values, msg string) {
	q.Set("msg", msg)
	c.Redirect(http.StatusSeeOther, "/admin?"+q.Encode())
}

func (h *DashboardHandler) serverError(c *gin.Context, err error) {
	h.logger.WithError(err).Error("Admin page failed")
	c.String(http.StatusInternalServerError, msgDatabaseError)
}
