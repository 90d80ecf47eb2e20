package service

import (
	"context"
	"time"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
)

// BuiltinRoles are seeded on startup and cannot be deleted.
func BuiltinRoles() []*domain.Role {
	now := time.Now().UTC()
	return []*domain.Role{
		{
			Code:        domain.RoleSuperAdmin,
			Name:        "Super administrator",
			Permissions: domain.NewPermissions(nil, []string{domain.Wildcard}),
			BuiltIn:     true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Code: domain.RoleAdmin,
			Name: "Administrator",
			Permissions: domain.NewPermissions(
				[]string{"dashboard", "workbench", "projects", "settings", "tickets", "customers", "agents", "roles"},
				[]string{"role:manage", "user:manage"},
			),
			BuiltIn:   true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			Code:        domain.RoleAgent,
			Name:        "Agent",
			Permissions: domain.NewPermissions([]string{"workbench", "tickets", "settings"}, nil),
			BuiltIn:     true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// RoleService administers roles.
type RoleService struct {
	roles ports.RoleRepository
	users ports.UserRepository
	now   func() time.Time
}

// NewRoleService takes the repository writes must go through; pass the
// caching repository so updates invalidate cached grants.
func NewRoleService(roles ports.RoleRepository, users ports.UserRepository) *RoleService {
	return &RoleService{roles: roles, users: users, now: time.Now}
}

func (s *RoleService) List(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, code string) (*domain.Role, error) {
	return s.roles.FindByCode(ctx, code)
}

func (s *RoleService) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	if role.Code == "" || role.Name == "" {
		return nil, domain.ErrInvalidRole
	}
	now := s.now().UTC()
	created := *role
	created.BuiltIn = false
	created.CreatedAt = now
	created.UpdatedAt = now

	if err := s.roles.Create(ctx, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the role's name, description and grants.
func (s *RoleService) Update(ctx context.Context, code, name, description string, perms domain.Permissions) (*domain.Role, error) {
	role, err := s.roles.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if name != "" {
		role.Name = name
	}
	role.Description = description
	role.Permissions = perms
	role.UpdatedAt = s.now().UTC()

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// Delete removes a role nobody holds. Built-in roles are never removed.
func (s *RoleService) Delete(ctx context.Context, code string) error {
	role, err := s.roles.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if role.BuiltIn {
		return domain.ErrRoleBuiltIn
	}

	n, err := s.users.CountByRole(ctx, code)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.ErrRoleInUse
	}
	return s.roles.Delete(ctx, code)
}
