package domain

import (
	"errors"
	"time"
)

var (
	ErrRoleNotFound = errors.New("role not found")
	ErrRoleExists   = errors.New("role already exists")
	ErrRoleInUse    = errors.New("role is assigned to users")
	ErrRoleBuiltIn  = errors.New("built-in role cannot be deleted")
	ErrInvalidRole  = errors.New("role code and name are required")
)

// Role groups the grants handed to every user holding its code.
type Role struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Permissions Permissions `json:"permissions"`
	BuiltIn     bool        `json:"built_in"`
	CreatedAt   time.Time   `json:"created_at,omitzero"`
	UpdatedAt   time.Time   `json:"updated_at,omitzero"`
}
