// Package routetable loads the console's route declarations and landing
// priority from a YAML file and keeps a live guard in sync with it.
package routetable

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/guard"
)

// File is the on-disk shape of a route table.
type File struct {
	Login    string                   `yaml:"login"`
	Fallback string                   `yaml:"fallback"`
	Landings []domain.Landing         `yaml:"landings"`
	Routes   []domain.RouteDescriptor `yaml:"routes"`
}

// Parse decodes a route table. Missing sections fall back to the built-in
// declarations. An empty document is an error.
func Parse(data []byte) (*File, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("parse route table: empty document")
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse route table: %w", err)
	}
	if len(f.Routes) == 0 {
		f.Routes = guard.DefaultRoutes()
	}
	if len(f.Landings) == 0 {
		f.Landings = guard.DefaultLandings()
	}
	if f.Fallback == "" {
		f.Fallback = guard.DefaultResolver().Fallback()
	}
	if f.Login == "" {
		f.Login = guard.LoginPath
	}
	for i, l := range f.Landings {
		if l.Menu == "" || l.Path == "" {
			return nil, fmt.Errorf("landing %d: menu and path are required", i)
		}
	}
	return &f, nil
}

// Guard compiles the file into a guard.
func (f *File) Guard() (*guard.Guard, error) {
	table, err := guard.NewTable(f.Routes)
	if err != nil {
		return nil, err
	}
	return guard.New(table, guard.NewResolver(f.Landings, f.Fallback), guard.WithLoginPath(f.Login)), nil
}

// Load reads and compiles the route table at path.
func Load(path string) (*guard.Guard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read route table: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return f.Guard()
}

// LoadOrDefault loads path, or returns the built-in guard when path is empty.
func LoadOrDefault(path string) (*guard.Guard, error) {
	if path == "" {
		return guard.Default(), nil
	}
	return Load(path)
}

// Live holds the guard currently in effect.
type Live struct {
	current atomic.Pointer[guard.Guard]
}

func NewLive(g *guard.Guard) (*Live, error) {
	if g == nil {
		return nil, errors.New("routetable: nil guard")
	}
	l := &Live{}
	l.current.Store(g)
	return l, nil
}

// Current returns the guard in effect.
func (l *Live) Current() *guard.Guard {
	return l.current.Load()
}

// Store swaps in a new guard.
func (l *Live) Store(g *guard.Guard) {
	if g != nil {
		l.current.Store(g)
	}
}
