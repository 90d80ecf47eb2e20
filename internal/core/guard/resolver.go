package guard

import "github.com/minics/console/internal/core/domain"

// Resolver picks a landing page from a user's menu grants. The first entry
// of the static priority list the user holds wins; the user's own ordering
// is irrelevant.
type Resolver struct {
	priority []domain.Landing
	fallback string
}

// NewResolver copies the priority list. fallback may be empty, in which
// case Resolve can return "".
func NewResolver(priority []domain.Landing, fallback string) *Resolver {
	p := make([]domain.Landing, len(priority))
	copy(p, priority)
	return &Resolver{priority: p, fallback: fallback}
}

// DefaultLandings is the built-in priority order.
func DefaultLandings() []domain.Landing {
	return []domain.Landing{
		{Menu: MenuDashboard, Path: "/admin/dashboard"},
		{Menu: MenuWorkbench, Path: "/admin/chat"},
		{Menu: MenuProjects, Path: "/admin/projects"},
		{Menu: MenuSettings, Path: "/admin/settings"},
	}
}

// DefaultResolver falls back to the settings page, which carries no menu
// gate in the default table.
func DefaultResolver() *Resolver {
	return NewResolver(DefaultLandings(), "/admin/settings")
}

// Resolve returns the landing path for menus.
func (r *Resolver) Resolve(menus []string) string {
	held := make(map[string]struct{}, len(menus))
	for _, m := range menus {
		held[m] = struct{}{}
	}
	for _, l := range r.priority {
		if _, ok := held[l.Menu]; ok {
			return l.Path
		}
	}
	return r.fallback
}

// ResolveFor resolves from a full grant set. The wildcard holds every menu,
// so it lands on the first priority entry.
func (r *Resolver) ResolveFor(p domain.Permissions) string {
	if p.SuperAdmin() && len(r.priority) > 0 {
		return r.priority[0].Path
	}
	return r.Resolve(p.Menus())
}

// Priority returns a copy of the priority list.
func (r *Resolver) Priority() []domain.Landing {
	out := make([]domain.Landing, len(r.priority))
	copy(out, r.priority)
	return out
}

// Fallback returns the path used when no priority entry matches.
func (r *Resolver) Fallback() string {
	return r.fallback
}
