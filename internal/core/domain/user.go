package domain

import (
	"errors"
	"time"
)

const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleAgent      = "agent"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrUnauthorized       = errors.New("not logged in or session expired")
	ErrForbidden          = errors.New("access forbidden")
	ErrMalformedUser      = errors.New("malformed user record")
	ErrInvalidStatus      = errors.New("status must be active or disabled")
	ErrSelfAction         = errors.New("operators cannot disable or delete their own account")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

// User is the operator record shared by the server session and the
// console client. It is what gets serialized under the user_info key.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email,omitempty"`
	Avatar       string      `json:"avatar,omitempty"`
	PasswordHash string      `json:"-"`
	Role         string      `json:"role"`
	Status       string      `json:"status,omitempty"`
	Permissions  Permissions `json:"permissions"`
	LastLoginAt  time.Time   `json:"last_login_at,omitzero"`
	CreatedAt    time.Time   `json:"created_at,omitzero"`
	UpdatedAt    time.Time   `json:"updated_at,omitzero"`
}

// Active reports whether the account may log in.
func (u *User) Active() bool {
	return u.Status == "" || u.Status == StatusActive
}
