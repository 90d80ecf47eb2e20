package guard

import (
	"context"
	"sync"
)

// Navigator runs every navigation intent of one session through the guard
// and keeps the resulting history. Between navigations it is Idle.
type Navigator struct {
	guard *Guard
	sess  Session

	mu      sync.Mutex
	state   State
	history []string
	last    Decision
}

func NewNavigator(g *Guard, sess Session) *Navigator {
	return &Navigator{guard: g, sess: sess}
}

// Navigate evaluates a navigation to path and commits the outcome.
func (n *Navigator) Navigate(ctx context.Context, path string) Decision {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.navigate(ctx, path, false)
}

// Back returns to the previous history entry, re-running the guard on it.
// It reports false when there is nothing to go back to.
func (n *Navigator) Back(ctx context.Context) (Decision, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.history) < 2 {
		return Decision{}, false
	}
	n.history = n.history[:len(n.history)-1]
	return n.navigate(ctx, n.history[len(n.history)-1], true), true
}

// RedirectToLogin is called when the session expires under the user.
func (n *Navigator) RedirectToLogin(ctx context.Context) Decision {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.navigate(ctx, n.guard.LoginPath(), true)
}

func (n *Navigator) navigate(ctx context.Context, path string, replace bool) Decision {
	n.state = Evaluating
	d := n.guard.Decide(ctx, path, n.sess)
	n.state = d.State

	if (replace || d.Replace) && len(n.history) > 0 {
		n.history[len(n.history)-1] = d.Target
	} else {
		n.history = append(n.history, d.Target)
	}

	n.last = d
	n.state = Idle
	return d
}

// Current returns the committed location, empty before the first navigation.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.history) == 0 {
		return ""
	}
	return n.history[len(n.history)-1]
}

// State returns the machine state; Idle whenever no navigation is running.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Last returns the most recent decision.
func (n *Navigator) Last() Decision {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// History returns a copy of the history stack, oldest first.
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, len(n.history))
	copy(out, n.history)
	return out
}
