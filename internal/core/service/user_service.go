package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
)

const minPasswordLen = 6

// UserService administers operator accounts. Changes that alter what an
// operator may do (disable, delete, role change, password reset) end the
// operator's open sessions.
type UserService struct {
	users    ports.UserRepository
	roles    ports.RoleRepository
	sessions ports.SessionStorage
	audit    ports.AuditRecorder
	log      zerolog.Logger
}

// NewUserService builds the service; audit may be nil.
func NewUserService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	sessions ports.SessionStorage,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *UserService {
	return &UserService{users: users, roles: roles, sessions: sessions, audit: audit, log: log}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// Update changes the email, avatar or role of an account.
func (s *UserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	roleChanged := in.Role != "" && in.Role != user.Role
	if roleChanged {
		if _, err := s.roles.FindByCode(ctx, in.Role); err != nil {
			return nil, err
		}
		user.Role = in.Role
	}
	if in.Email != "" {
		user.Email = in.Email
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if roleChanged {
		if err := s.endSessions(ctx, user); err != nil {
			return nil, err
		}
	}
	user.PasswordHash = ""
	return user, nil
}

// SetStatus enables or disables an account.
func (s *UserService) SetStatus(ctx context.Context, actorID, id, status string) (*domain.User, error) {
	if status != domain.StatusActive && status != domain.StatusDisabled {
		return nil, domain.ErrInvalidStatus
	}
	if id == actorID && status == domain.StatusDisabled {
		return nil, domain.ErrSelfAction
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	if user.Status == status {
		return user, nil
	}

	if err := s.users.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	user.Status = status
	user.UpdatedAt = time.Now().UTC()

	if status == domain.StatusDisabled {
		if err := s.endSessions(ctx, user); err != nil {
			return nil, err
		}
		s.record(domain.EventAccountDisabled, user.Username)
	} else {
		s.record(domain.EventAccountEnabled, user.Username)
	}
	return user, nil
}

// ResetPassword sets a new password and logs the operator out everywhere.
func (s *UserService) ResetPassword(ctx context.Context, id, password string) error {
	if len(password) < minPasswordLen {
		return domain.ErrWeakPassword
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, id, string(hash)); err != nil {
		return err
	}
	if err := s.endSessions(ctx, user); err != nil {
		return err
	}
	s.record(domain.EventPasswordReset, user.Username)
	return nil
}

// Delete removes an account other than the caller's own.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if id == actorID {
		return domain.ErrSelfAction
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.endSessions(ctx, user); err != nil {
		return err
	}
	s.record(domain.EventAccountDeleted, user.Username)
	return nil
}

func (s *UserService) endSessions(ctx context.Context, user *domain.User) error {
	n, err := s.sessions.RevokeUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("end sessions of %s: %w", user.Username, err)
	}
	if n > 0 {
		s.log.Info().Str("username", user.Username).Int("sessions", n).Msg("sessions ended")
	}
	return nil
}

func (s *UserService) record(t domain.AuthEventType, username string) {
	if s.audit != nil {
		s.audit.Enqueue(domain.AuthEvent{Type: t, Username: username})
	}
}
