// Package permission answers menu, action and role questions about the
// current session. Every check denies when there is no user or no grant.
package permission

import (
	"github.com/minics/console/internal/core/domain"
)

// UserSource yields the current user, or nil.
type UserSource interface {
	User() *domain.User
}

// Evaluator checks grants against a session snapshot taken at call time.
type Evaluator struct {
	src UserSource
}

func NewEvaluator(src UserSource) *Evaluator {
	return &Evaluator{src: src}
}

// HasMenu reports whether the user may open the menu.
func (e *Evaluator) HasMenu(menu string) bool {
	u := e.src.User()
	if u == nil {
		return false
	}
	if u.Permissions.SuperAdmin() {
		return true
	}
	return u.Permissions.GrantsMenu(menu)
}

// HasAction reports whether the user may perform the action.
func (e *Evaluator) HasAction(action string) bool {
	u := e.src.User()
	if u == nil {
		return false
	}
	if u.Permissions.SuperAdmin() {
		return true
	}
	return u.Permissions.GrantsAction(action)
}

// HasRole reports whether the user holds exactly this role.
func (e *Evaluator) HasRole(role string) bool {
	u := e.src.User()
	return u != nil && u.Role == role
}

// HasAnyRole reports whether the user's role is one of roles.
func (e *Evaluator) HasAnyRole(roles ...string) bool {
	u := e.src.User()
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether any key is granted either as a menu or as
// an action.
func (e *Evaluator) HasAnyPermission(keys ...string) bool {
	u := e.src.User()
	if u == nil || len(keys) == 0 {
		return false
	}
	if u.Permissions.SuperAdmin() {
		return true
	}
	for _, k := range keys {
		if u.Permissions.GrantsMenu(k) || u.Permissions.GrantsAction(k) {
			return true
		}
	}
	return false
}
