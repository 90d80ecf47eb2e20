// Package cache holds read-through caches in front of the repositories.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
)

const (
	defaultRoleCacheSize = 128
	defaultRoleCacheTTL  = time.Minute
)

// RoleRepository caches role lookups by code. Writes go through to the
// wrapped repository and drop the cached entry.
type RoleRepository struct {
	next  ports.RoleRepository
	roles *expirable.LRU[string, domain.Role]
}

// NewRoleRepository wraps next. Non-positive size or ttl use the defaults.
func NewRoleRepository(next ports.RoleRepository, size int, ttl time.Duration) *RoleRepository {
	if size <= 0 {
		size = defaultRoleCacheSize
	}
	if ttl <= 0 {
		ttl = defaultRoleCacheTTL
	}
	return &RoleRepository{
		next:  next,
		roles: expirable.NewLRU[string, domain.Role](size, nil, ttl),
	}
}

func (r *RoleRepository) FindByCode(ctx context.Context, code string) (*domain.Role, error) {
	if role, ok := r.roles.Get(code); ok {
		return &role, nil
	}
	role, err := r.next.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	r.roles.Add(code, *role)
	out := *role
	return &out, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	return r.next.List(ctx)
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	r.roles.Remove(role.Code)
	return r.next.Create(ctx, role)
}

func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	defer r.roles.Remove(role.Code)
	return r.next.Update(ctx, role)
}

func (r *RoleRepository) Delete(ctx context.Context, code string) error {
	defer r.roles.Remove(code)
	return r.next.Delete(ctx, code)
}

// Len returns the number of cached roles.
func (r *RoleRepository) Len() int {
	return r.roles.Len()
}
