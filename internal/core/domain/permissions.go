package domain

import (
	"encoding/json"
	"sort"
)

// Wildcard is the action grant that satisfies every menu and action check.
const Wildcard = "*"

// Permissions holds a user's menu and action grants. Menus keep their
// declared order; both sides are sets for membership checks. The zero value
// grants nothing.
type Permissions struct {
	menus   []string
	menuSet map[string]struct{}
	actions map[string]struct{}
}

// NewPermissions builds a grant set. Duplicate and empty menu keys are
// dropped, first occurrence wins.
func NewPermissions(menus, actions []string) Permissions {
	p := Permissions{
		menus:   make([]string, 0, len(menus)),
		menuSet: make(map[string]struct{}, len(menus)),
		actions: make(map[string]struct{}, len(actions)),
	}
	for _, m := range menus {
		if m == "" {
			continue
		}
		if _, dup := p.menuSet[m]; dup {
			continue
		}
		p.menuSet[m] = struct{}{}
		p.menus = append(p.menus, m)
	}
	for _, a := range actions {
		if a != "" {
			p.actions[a] = struct{}{}
		}
	}
	return p
}

// Menus returns the granted menus in declared order.
func (p Permissions) Menus() []string {
	out := make([]string, len(p.menus))
	copy(out, p.menus)
	return out
}

// Actions returns the granted actions sorted.
func (p Permissions) Actions() []string {
	out := make([]string, 0, len(p.actions))
	for a := range p.actions {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// SuperAdmin reports whether the wildcard action is granted.
func (p Permissions) SuperAdmin() bool {
	_, ok := p.actions[Wildcard]
	return ok
}

// GrantsMenu is a literal, case-sensitive membership test. It does not
// apply the wildcard.
func (p Permissions) GrantsMenu(menu string) bool {
	_, ok := p.menuSet[menu]
	return ok
}

// GrantsAction is a literal membership test. It does not apply the
// wildcard.
func (p Permissions) GrantsAction(action string) bool {
	_, ok := p.actions[action]
	return ok
}

// Empty reports whether nothing at all is granted.
func (p Permissions) Empty() bool {
	return len(p.menus) == 0 && len(p.actions) == 0
}

type permissionsJSON struct {
	Menus   []string `json:"menus"`
	Actions []string `json:"actions"`
}

func (p Permissions) MarshalJSON() ([]byte, error) {
	return json.Marshal(permissionsJSON{Menus: p.Menus(), Actions: p.Actions()})
}

// UnmarshalJSON accepts null, a missing field or a field of the wrong shape
// as "no grants"; it never fails on the permission object itself.
func (p *Permissions) UnmarshalJSON(data []byte) error {
	var raw struct {
		Menus   json.RawMessage `json:"menus"`
		Actions json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*p = Permissions{}
		return nil
	}
	*p = NewPermissions(stringList(raw.Menus), stringList(raw.Actions))
	return nil
}

func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}
