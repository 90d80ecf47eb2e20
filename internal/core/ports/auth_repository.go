package ports

import (
	"context"

	"github.com/minics/console/internal/core/domain"
)

// UserRepository persists operator accounts.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string) error
	CountByRole(ctx context.Context, roleCode string) (int64, error)
	// List returns every account ordered by username.
	List(ctx context.Context) ([]*domain.User, error)
	// Update writes the email, avatar and role of an existing account.
	Update(ctx context.Context, user *domain.User) error
	SetStatus(ctx context.Context, id, status string) error
	SetPassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// RoleRepository persists roles and their grants.
type RoleRepository interface {
	FindByCode(ctx context.Context, code string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, code string) error
}

// CaptchaStore keeps captcha answers until they are used or expire.
type CaptchaStore interface {
	Save(ctx context.Context, key, answer string) error
	// Take returns the answer and deletes it; domain.ErrCaptchaExpired when
	// the key is unknown.
	Take(ctx context.Context, key string) (string, error)
}
