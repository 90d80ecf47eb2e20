package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/minics/console/internal/core/domain"
)

type stubRoleService struct {
	roles   map[string]*domain.Role
	deleted []string
}

func newStubRoleService() *stubRoleService {
	return &stubRoleService{roles: map[string]*domain.Role{
		"agent": {Code: "agent", Name: "Agent", BuiltIn: true},
	}}
}

func (s *stubRoleService) List(context.Context) ([]*domain.Role, error) {
	out := make([]*domain.Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubRoleService) Get(_ context.Context, code string) (*domain.Role, error) {
	r, ok := s.roles[code]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return r, nil
}

func (s *stubRoleService) Create(_ context.Context, role *domain.Role) (*domain.Role, error) {
	if _, ok := s.roles[role.Code]; ok {
		return nil, domain.ErrRoleExists
	}
	s.roles[role.Code] = role
	return role, nil
}

func (s *stubRoleService) Update(_ context.Context, code, name, description string, perms domain.Permissions) (*domain.Role, error) {
	r, ok := s.roles[code]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	if name != "" {
		r.Name = name
	}
	r.Description = description
	r.Permissions = perms
	return r, nil
}

func (s *stubRoleService) Delete(_ context.Context, code string) error {
	r, ok := s.roles[code]
	if !ok {
		return domain.ErrRoleNotFound
	}
	if r.BuiltIn {
		return domain.ErrRoleBuiltIn
	}
	s.deleted = append(s.deleted, code)
	delete(s.roles, code)
	return nil
}

func TestRoleHandler_CreateGetUpdateDelete(t *testing.T) {
	svc := newStubRoleService()
	h := NewRoleHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/admin/roles",
		`{"code":"auditor","name":"Auditor","menus":["dashboard","dashboard"],"actions":["ticket:view"]}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if menus := svc.roles["auditor"].Permissions.Menus(); len(menus) != 1 {
		t.Fatalf("grants not deduplicated: %v", menus)
	}

	c, rec = newContext(http.MethodGet, "/api/admin/roles/auditor", "")
	c.SetParamNames("code")
	c.SetParamValues("auditor")
	if err := h.Get(c); err != nil {
		t.Fatalf("get: %v", err)
	}
	var got struct {
		Code        string `json:"code"`
		Permissions struct {
			Menus   []string `json:"menus"`
			Actions []string `json:"actions"`
		} `json:"permissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Code != "auditor" || len(got.Permissions.Actions) != 1 {
		t.Fatalf("unexpected role %+v", got)
	}

	c, rec = newContext(http.MethodPut, "/api/admin/roles/auditor", `{"description":"ro","menus":["projects"]}`)
	c.SetParamNames("code")
	c.SetParamValues("auditor")
	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !svc.roles["auditor"].Permissions.GrantsMenu("projects") || svc.roles["auditor"].Name != "Auditor" {
		t.Fatalf("update not applied: %+v", svc.roles["auditor"])
	}

	c, rec = newContext(http.MethodDelete, "/api/admin/roles/auditor", "")
	c.SetParamNames("code")
	c.SetParamValues("auditor")
	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent || len(svc.deleted) != 1 {
		t.Fatalf("expected 204 and deletion, got %d", rec.Code)
	}
}

func TestRoleHandler_Errors(t *testing.T) {
	h := NewRoleHandler(newStubRoleService())

	c, rec := newContext(http.MethodPost, "/api/admin/roles", `{"code":"x"}`)
	if err := h.Create(c); err != nil || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", rec.Code, err)
	}

	c, _ = newContext(http.MethodPost, "/api/admin/roles", `{"code":"agent","name":"Agent"}`)
	if err := h.Create(c); !errors.Is(err, domain.ErrRoleExists) {
		t.Fatalf("expected ErrRoleExists, got %v", err)
	}

	c, _ = newContext(http.MethodDelete, "/api/admin/roles/agent", "")
	c.SetParamNames("code")
	c.SetParamValues("agent")
	if err := h.Delete(c); !errors.Is(err, domain.ErrRoleBuiltIn) {
		t.Fatalf("expected ErrRoleBuiltIn, got %v", err)
	}

	c, _ = newContext(http.MethodGet, "/api/admin/roles/ghost", "")
	c.SetParamNames("code")
	c.SetParamValues("ghost")
	if err := h.Get(c); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestRoleHandler_List(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/admin/roles", "")
	if err := NewRoleHandler(newStubRoleService()).List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	var resp struct {
		Roles []map[string]any `json:"roles"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Roles) != 1 {
		t.Fatalf("expected one role, got %d", len(resp.Roles))
	}
}
