// Package guard decides what happens to a navigation request: proceed,
// go to the login page, or go to the user's default landing page.
//
// Decide is a pure function of the route table and the session state; the
// hosts (the HTTP page middleware, the terminal navigator) translate a
// Decision into their own navigation primitive.
package guard

import (
	"context"
	"fmt"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/permission"
)

const maxRedirects = 8

// Outcome is what the host should do with a navigation.
type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// State is a navigation state of the guard machine.
type State int

const (
	Idle State = iota
	Evaluating
	Allowed
	DeniedUnauthenticated
	DeniedUnauthorized
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Evaluating:
		return "evaluating"
	case Allowed:
		return "allowed"
	case DeniedUnauthenticated:
		return "denied_unauthenticated"
	case DeniedUnauthorized:
		return "denied_unauthorized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Decision is the guard's answer for one navigation.
type Decision struct {
	Outcome Outcome
	// Path is the normalized path evaluated, after declared redirects.
	Path string
	// Target is where the host should end up.
	Target string
	// Replace asks the host to replace the current history entry.
	Replace bool
	State   State
	Reason  string
	// Menu is the menu key gating Path, if any.
	Menu string
}

// Session is what the guard reads from the session store.
type Session interface {
	IsAuthenticated(ctx context.Context) bool
	User() *domain.User
	Permissions() domain.Permissions
}

// Guard evaluates navigations against a route table.
type Guard struct {
	table     *Table
	resolver  *Resolver
	loginPath string
}

type Option func(*Guard)

// WithLoginPath overrides the login page path.
func WithLoginPath(p string) Option {
	return func(g *Guard) {
		if p != "" {
			g.loginPath = Normalize(p)
		}
	}
}

func New(table *Table, resolver *Resolver, opts ...Option) *Guard {
	g := &Guard{table: table, resolver: resolver, loginPath: LoginPath}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Default returns a guard over the built-in table and priority list.
func Default() *Guard {
	return New(MustTable(DefaultRoutes()), DefaultResolver())
}

// LoginPath returns the login page path.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Table returns the route table.
func (g *Guard) Table() *Table {
	return g.table
}

// Decide evaluates a navigation to path for sess.
func (g *Guard) Decide(ctx context.Context, path string, sess Session) Decision {
	p := Normalize(path)
	m := g.table.Match(p)

	hops := 0
	for m.Redirect() != "" {
		if hops == maxRedirects {
			return g.toLogin(p, DeniedUnauthenticated, "too many route redirects")
		}
		p = Normalize(m.Redirect())
		m = g.table.Match(p)
		hops++
	}

	authed := sess.IsAuthenticated(ctx)
	ev := permission.NewEvaluator(sess)

	if m.RequiresAuth() {
		if !authed {
			return g.toLogin(p, DeniedUnauthenticated, "authentication required")
		}

		menu := m.Menu()
		if menu != "" && !ev.HasMenu(menu) {
			target, ok := g.landing(ev, sess)
			if !ok || target == p {
				d := g.toLogin(p, DeniedUnauthorized, "no navigable default route")
				d.Menu = menu
				return d
			}
			return Decision{
				Outcome: Redirect,
				Path:    p,
				Target:  target,
				Replace: true,
				State:   DeniedUnauthorized,
				Reason:  fmt.Sprintf("menu %q not granted", menu),
				Menu:    menu,
			}
		}
		return allow(p, menu, hops > 0)
	}

	if authed && p == g.loginPath {
		if target, ok := g.landing(ev, sess); ok {
			return Decision{
				Outcome: Redirect,
				Path:    p,
				Target:  target,
				Replace: true,
				State:   Allowed,
				Reason:  "already authenticated",
			}
		}
	}

	return allow(p, m.Menu(), hops > 0)
}

// Landing returns the default route for an authenticated session.
func (g *Guard) Landing(ctx context.Context, sess Session) (string, bool) {
	if !sess.IsAuthenticated(ctx) {
		return "", false
	}
	return g.landing(permission.NewEvaluator(sess), sess)
}

// landing resolves the default route and checks that the user would be
// let through on it, so a redirect never lands on another denial.
func (g *Guard) landing(ev *permission.Evaluator, sess Session) (string, bool) {
	target := g.resolver.ResolveFor(sess.Permissions())
	if target == "" {
		return "", false
	}
	target = Normalize(target)
	if menu := g.table.Match(target).Menu(); menu != "" && !ev.HasMenu(menu) {
		return "", false
	}
	return target, true
}

func (g *Guard) toLogin(p string, st State, reason string) Decision {
	return Decision{
		Outcome: RedirectLogin,
		Path:    p,
		Target:  g.loginPath,
		Replace: true,
		State:   st,
		Reason:  reason,
	}
}

func allow(p, menu string, redirected bool) Decision {
	return Decision{
		Outcome: Allow,
		Path:    p,
		Target:  p,
		Replace: redirected,
		State:   Allowed,
		Menu:    menu,
	}
}
