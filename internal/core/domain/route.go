package domain

// RouteDescriptor declares one navigable page. Children inherit the
// parent's path as prefix; a child path starting with "/" is absolute.
type RouteDescriptor struct {
	Path         string            `json:"path"                    yaml:"path"`
	Title        string            `json:"title,omitempty"         yaml:"title,omitempty"`
	RequiresAuth bool              `json:"requires_auth,omitempty" yaml:"requires_auth,omitempty"`
	Menu         string            `json:"menu,omitempty"          yaml:"menu,omitempty"`
	Redirect     string            `json:"redirect,omitempty"      yaml:"redirect,omitempty"`
	Children     []RouteDescriptor `json:"children,omitempty"      yaml:"children,omitempty"`
}

// Landing maps a menu grant to the page a user lands on when that menu is
// the highest priority grant they hold.
type Landing struct {
	Menu string `json:"menu" yaml:"menu"`
	Path string `json:"path" yaml:"path"`
}
