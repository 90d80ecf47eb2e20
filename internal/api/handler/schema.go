package handler

import (
	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/guard"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type loginRequest struct {
	Username   string `json:"username"    validate:"required"`
	Password   string `json:"password"    validate:"required"`
	CaptchaKey string `json:"captcha_key"`
	Captcha    string `json:"captcha"`
}

type authResponse struct {
	Token string       `json:"token,omitempty"`
	User  *domain.User `json:"user,omitempty"`
}

type captchaResponse struct {
	Enabled  bool   `json:"enabled"`
	Key      string `json:"key,omitempty"`
	Question string `json:"question,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// --- Users ---

type registerRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Role     string `json:"role"     validate:"required"`
}

type updateUserRequest struct {
	Email  string `json:"email"  validate:"omitempty,email"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
	Role   string `json:"role"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active disabled"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type userListResponse struct {
	Users []*domain.User `json:"users"`
}

// --- Roles ---

type roleRequest struct {
	Code        string   `json:"code"        validate:"required"`
	Name        string   `json:"name"        validate:"required"`
	Description string   `json:"description"`
	Menus       []string `json:"menus"`
	Actions     []string `json:"actions"`
}

type roleUpdateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Menus       []string `json:"menus"`
	Actions     []string `json:"actions"`
}

type roleListResponse struct {
	Roles []*domain.Role `json:"roles"`
}

// --- Navigation ---

type decideRequest struct {
	Path string `json:"path" validate:"required,startswith=/"`
}

type decisionResponse struct {
	Outcome string `json:"outcome"`
	Path    string `json:"path"`
	Target  string `json:"target"`
	Replace bool   `json:"replace"`
	State   string `json:"state"`
	Reason  string `json:"reason,omitempty"`
	Menu    string `json:"menu,omitempty"`
}

func toDecisionResponse(d guard.Decision) decisionResponse {
	return decisionResponse{
		Outcome: d.Outcome.String(),
		Path:    d.Path,
		Target:  d.Target,
		Replace: d.Replace,
		State:   d.State.String(),
		Reason:  d.Reason,
		Menu:    d.Menu,
	}
}

type landingResponse struct {
	Path string `json:"path"`
}

// --- Pages ---

type pageResponse struct {
	Path          string       `json:"path"`
	Title         string       `json:"title,omitempty"`
	Menu          string       `json:"menu,omitempty"`
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}
