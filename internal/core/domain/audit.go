package domain

import "time"

// AuthEventType classifies an entry of the authentication audit trail.
type AuthEventType string

const (
	EventLoginSucceeded   AuthEventType = "login_succeeded"
	EventLoginFailed      AuthEventType = "login_failed"
	EventLogout           AuthEventType = "logout"
	EventNavigationDenied AuthEventType = "navigation_denied"
	EventAccountDisabled  AuthEventType = "account_disabled"
	EventAccountEnabled   AuthEventType = "account_enabled"
	EventAccountDeleted   AuthEventType = "account_deleted"
	EventPasswordReset    AuthEventType = "password_reset"
)

// AuthEvent is one audit trail entry.
type AuthEvent struct {
	Type      AuthEventType
	Username  string
	Path      string
	Target    string
	Reason    string
	RequestID string
	At        time.Time
}
