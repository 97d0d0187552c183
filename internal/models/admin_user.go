package models

import "time"

// RoleAdmin is the only role allowed to review submissions
const RoleAdmin = "admin"

// AdminPrincipal is the authenticated administrator behind a request
type AdminPrincipal struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	SessionID string    `json:"session_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminLoginRequest represents the login request payload
type AdminLoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// AdminLoginResponse represents the login response
type AdminLoginResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int64           `json:"expires_in"`
	Admin       *AdminPrincipal `json:"admin"`
}

// ReviewAuditLog is one recorded administrator action on a profile
type ReviewAuditLog struct {
	ID            string    `json:"id" db:"id"`
	ProfileID     int64     `json:"profile_id" db:"profile_id"`
	AdminUsername string    `json:"admin_username" db:"admin_username"`
	Action        string    `json:"action" db:"action"`
	ResultStatus  *string   `json:"result_status,omitempty" db:"result_status"`
	Affected      int64     `json:"affected" db:"affected"`
	IPAddress     string    `json:"ip_address" db:"ip_address"`
	UserAgent     string    `json:"user_agent" db:"user_agent"`
	Details       JSONB     `json:"details" db:"details"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
