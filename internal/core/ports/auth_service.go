package ports

import (
	"context"

	"github.com/minics/console/internal/core/domain"
)

// LoginInput carries the login form.
type LoginInput struct {
	Username   string
	Password   string
	CaptchaKey string
	Captcha    string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token     string
	SessionID string
	User      *domain.User
}

// RegisterInput carries a new operator account.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     string
}

// Session is the part of a session store the auth flows drive.
type Session interface {
	User() *domain.User
	SetUser(ctx context.Context, user *domain.User) error
	ClearUser(ctx context.Context) error
}

type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Refresh(ctx context.Context, sess Session) (*domain.User, error)
	Logout(ctx context.Context, sess Session) error
}

// UpdateUserInput carries editable account fields. Empty fields are left
// unchanged.
type UpdateUserInput struct {
	Email  string
	Avatar string
	Role   string
}

// UserService manages operator accounts. actorID is the operator making the
// change; nobody may disable or delete their own account.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error)
	SetStatus(ctx context.Context, actorID, id, status string) (*domain.User, error)
	ResetPassword(ctx context.Context, id, password string) error
	Delete(ctx context.Context, actorID, id string) error
}

type CaptchaService interface {
	Generate(ctx context.Context) (*domain.Captcha, error)
}

type RoleService interface {
	List(ctx context.Context) ([]*domain.Role, error)
	Get(ctx context.Context, code string) (*domain.Role, error)
	Create(ctx context.Context, role *domain.Role) (*domain.Role, error)
	Update(ctx context.Context, code, name, description string, perms domain.Permissions) (*domain.Role, error)
	Delete(ctx context.Context, code string) error
}
