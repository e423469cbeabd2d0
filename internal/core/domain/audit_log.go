package domain

import "time"

// AuditAction names an auth-relevant event.
type AuditAction string

const (
	AuditActionSignup                 AuditAction = "signup"
	AuditActionLogin                  AuditAction = "login"
	AuditActionLoginFailed            AuditAction = "login_failed"
	AuditActionLogout                 AuditAction = "logout"
	AuditActionPasswordResetRequested AuditAction = "password_reset_requested"
	AuditActionPasswordReset          AuditAction = "password_reset"
)

// ProviderLocal marks events that came through email/password auth.
const ProviderLocal = "local"

// AuditLogEntry is an append-only record of an auth event. UserID is nil for
// attempts against unknown accounts.
type AuditLogEntry struct {
	AuditLogID    string      `json:"id"`
	UserID        *string     `json:"userID,omitempty"`
	Action        AuditAction `json:"action"`
	Provider      string      `json:"provider"`
	IPAddress     string      `json:"ipAddress"`
	UserAgent     string      `json:"userAgent"`
	Success       bool        `json:"success"`
	FailureReason *string     `json:"failureReason,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}
