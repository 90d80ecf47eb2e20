package service

import (
	"context"
	"sort"
	"sync"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
	"github.com/minics/console/internal/infrastructure/storage"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users   map[string]*domain.User
	touched []string
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	c := cloneUser(user)
	if c.ID == "" {
		c.ID = "id-" + user.Username
	}
	r.users[c.Username] = cloneUser(c)
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id string) error {
	r.touched = append(r.touched, id)
	return nil
}

func (r *stubUserRepo) CountByRole(_ context.Context, code string) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Role == code {
			n++
		}
	}
	return n, nil
}

func (r *stubUserRepo) List(context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *stubUserRepo) byID(id string) *domain.User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	u := r.byID(user.ID)
	if u == nil {
		return domain.ErrUserNotFound
	}
	u.Email, u.Avatar, u.Role = user.Email, user.Avatar, user.Role
	return nil
}

func (r *stubUserRepo) SetStatus(_ context.Context, id, status string) error {
	u := r.byID(id)
	if u == nil {
		return domain.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (r *stubUserRepo) SetPassword(_ context.Context, id, hash string) error {
	u := r.byID(id)
	if u == nil {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	u := r.byID(id)
	if u == nil {
		return domain.ErrUserNotFound
	}
	delete(r.users, u.Username)
	return nil
}

type stubRoleRepo struct {
	roles map[string]*domain.Role
}

func newStubRoleRepo() *stubRoleRepo {
	r := &stubRoleRepo{roles: make(map[string]*domain.Role)}
	for _, role := range BuiltinRoles() {
		r.roles[role.Code] = role
	}
	return r
}

func (r *stubRoleRepo) FindByCode(_ context.Context, code string) (*domain.Role, error) {
	role, ok := r.roles[code]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	clone := *role
	return &clone, nil
}

func (r *stubRoleRepo) List(context.Context) ([]*domain.Role, error) {
	out := make([]*domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *stubRoleRepo) Create(_ context.Context, role *domain.Role) error {
	if _, ok := r.roles[role.Code]; ok {
		return domain.ErrRoleExists
	}
	r.roles[role.Code] = role
	return nil
}

func (r *stubRoleRepo) Update(_ context.Context, role *domain.Role) error {
	if _, ok := r.roles[role.Code]; !ok {
		return domain.ErrRoleNotFound
	}
	r.roles[role.Code] = role
	return nil
}

func (r *stubRoleRepo) Delete(_ context.Context, code string) error {
	delete(r.roles, code)
	return nil
}

type stubCaptchaStore struct {
	answers map[string]string
}

func newStubCaptchaStore() *stubCaptchaStore {
	return &stubCaptchaStore{answers: make(map[string]string)}
}

func (s *stubCaptchaStore) Save(_ context.Context, key, answer string) error {
	s.answers[key] = answer
	return nil
}

func (s *stubCaptchaStore) Take(_ context.Context, key string) (string, error) {
	a, ok := s.answers[key]
	if !ok {
		return "", domain.ErrCaptchaExpired
	}
	delete(s.answers, key)
	return a, nil
}

// memSessions keeps every session namespace in memory.
type memSessions struct {
	mu       sync.Mutex
	spaces   map[string]*storage.Memory
	owners   map[string][]string
	trackErr error
}

func newMemSessions() *memSessions {
	return &memSessions{
		spaces: make(map[string]*storage.Memory),
		owners: make(map[string][]string),
	}
}

func (m *memSessions) Track(_ context.Context, userID, sessionID string) error {
	if m.trackErr != nil {
		return m.trackErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[userID] = append(m.owners[userID], sessionID)
	return nil
}

func (m *memSessions) RevokeUser(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range m.owners[userID] {
		if _, ok := m.spaces[id]; ok {
			delete(m.spaces, id)
			n++
		}
	}
	delete(m.owners, userID)
	return n, nil
}

func (m *memSessions) Namespace(id string) ports.KeyValueStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.spaces[id]
	if !ok {
		kv = storage.NewMemory()
		m.spaces[id] = kv
	}
	return kv
}

type recorder struct {
	events []domain.AuthEvent
}

func (r *recorder) Enqueue(e domain.AuthEvent) {
	r.events = append(r.events, e)
}

func (r *recorder) types() []domain.AuthEventType {
	out := make([]domain.AuthEventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
