package guard

import (
	"fmt"
	"path"
	"strings"

	"github.com/minics/console/internal/core/domain"
)

// Table is a compiled route declaration tree.
type Table struct {
	routes []compiledRoute
}

type compiledRoute struct {
	full     string
	segments []string
	wildcard bool
	chain    []domain.RouteDescriptor
}

// Match is the result of looking a path up in the table.
type Match struct {
	// Path is the normalized path that was looked up.
	Path string
	// Route is the full declared pattern that matched; empty when nothing did.
	Route string
	// Chain holds the matched descriptors from the root to the leaf.
	Chain []domain.RouteDescriptor
}

// NewTable compiles the declarations. Top-level paths must be absolute and
// redirect targets must be absolute paths.
func NewTable(decls []domain.RouteDescriptor) (*Table, error) {
	t := &Table{}
	for _, d := range decls {
		if !strings.HasPrefix(d.Path, "/") {
			return nil, fmt.Errorf("route %q: top-level path must start with /", d.Path)
		}
		if err := t.compile("", nil, d); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustTable is NewTable for static declarations.
func MustTable(decls []domain.RouteDescriptor) *Table {
	t, err := NewTable(decls)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) compile(parent string, chain []domain.RouteDescriptor, d domain.RouteDescriptor) error {
	full := joinRoute(parent, d.Path)
	if d.Redirect != "" && !strings.HasPrefix(d.Redirect, "/") {
		return fmt.Errorf("route %q: redirect %q must start with /", full, d.Redirect)
	}

	leaf := d
	leaf.Children = nil
	next := make([]domain.RouteDescriptor, len(chain), len(chain)+1)
	copy(next, chain)
	next = append(next, leaf)

	segs := splitPath(full)
	wildcard := false
	for i, s := range segs {
		if s == "*" {
			if i != len(segs)-1 {
				return fmt.Errorf("route %q: * is only allowed as the last segment", full)
			}
			wildcard = true
			segs = segs[:i]
		}
	}

	t.routes = append(t.routes, compiledRoute{full: full, segments: segs, wildcard: wildcard, chain: next})

	for _, c := range d.Children {
		if err := t.compile(full, next, c); err != nil {
			return err
		}
	}
	return nil
}

// Match finds the most specific route for p: more static segments win, then
// non-wildcard routes, then deeper declarations.
func (t *Table) Match(p string) Match {
	p = Normalize(p)
	segs := splitPath(p)

	var (
		best      *compiledRoute
		bestScore [3]int
	)
	for i := range t.routes {
		r := &t.routes[i]
		static, ok := r.match(segs)
		if !ok {
			continue
		}
		score := [3]int{static, 1, len(r.chain)}
		if r.wildcard {
			score[1] = 0
		}
		if best == nil || better(score, bestScore) {
			best, bestScore = r, score
		}
	}

	if best == nil {
		return Match{Path: p}
	}
	return Match{Path: p, Route: best.full, Chain: best.chain}
}

func better(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

func (r *compiledRoute) match(segs []string) (int, bool) {
	if r.wildcard {
		if len(segs) < len(r.segments) {
			return 0, false
		}
	} else if len(segs) != len(r.segments) {
		return 0, false
	}

	static := 0
	for i, want := range r.segments {
		if strings.HasPrefix(want, ":") {
			continue
		}
		if segs[i] != want {
			return 0, false
		}
		static++
	}
	return static, true
}

// Found reports whether any route matched.
func (m Match) Found() bool {
	return len(m.Chain) > 0
}

// RequiresAuth is true when any descriptor in the chain requires it.
func (m Match) RequiresAuth() bool {
	for _, d := range m.Chain {
		if d.RequiresAuth {
			return true
		}
	}
	return false
}

// Menu returns the deepest menu key declared in the chain.
func (m Match) Menu() string {
	for i := len(m.Chain) - 1; i >= 0; i-- {
		if m.Chain[i].Menu != "" {
			return m.Chain[i].Menu
		}
	}
	return ""
}

// Redirect returns the leaf's redirect target.
func (m Match) Redirect() string {
	if len(m.Chain) == 0 {
		return ""
	}
	return m.Chain[len(m.Chain)-1].Redirect
}

// Title returns the deepest title declared in the chain.
func (m Match) Title() string {
	for i := len(m.Chain) - 1; i >= 0; i-- {
		if m.Chain[i].Title != "" {
			return m.Chain[i].Title
		}
	}
	return ""
}

// Normalize strips query and fragment, cleans the path and makes it
// absolute without a trailing slash.
func Normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

func joinRoute(parent, child string) string {
	switch {
	case strings.HasPrefix(child, "/"):
		return Normalize(child)
	case child == "":
		return Normalize(parent)
	default:
		return Normalize(parent + "/" + child)
	}
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
