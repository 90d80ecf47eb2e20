package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
	"github.com/minics/console/internal/core/session"
)

// Claims is the JWT payload. The token id (jti) names the server-side
// session holding the token and the user record.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements login, registration and session refresh.
type AuthService struct {
	users     ports.UserRepository
	roles     ports.RoleRepository
	sessions  ports.SessionStorage
	captchas  ports.CaptchaStore
	audit     ports.AuditRecorder
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

type AuthOption func(*AuthService)

// WithCaptcha requires a solved captcha on every login.
func WithCaptcha(store ports.CaptchaStore) AuthOption {
	return func(s *AuthService) { s.captchas = store }
}

// WithAudit records logins and logouts.
func WithAudit(rec ports.AuditRecorder) AuthOption {
	return func(s *AuthService) { s.audit = rec }
}

func WithLogger(log zerolog.Logger) AuthOption {
	return func(s *AuthService) { s.log = log }
}

func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	sessions ports.SessionStorage,
	jwtSecret string,
	tokenTTL time.Duration,
	opts ...AuthOption,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	s := &AuthService{
		users:     users,
		roles:     roles,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Username == "" || in.Password == "" || in.Role == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if _, err := s.roles.FindByCode(ctx, in.Role); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.users.Create(ctx, user)
}

// Login checks the captcha and the credentials, issues a token and writes
// the server-side session named by the token id.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	res, err := s.login(ctx, in)
	if err != nil {
		s.record(domain.AuthEvent{Type: domain.EventLoginFailed, Username: in.Username, Reason: err.Error()})
		return nil, err
	}
	s.record(domain.AuthEvent{Type: domain.EventLoginSucceeded, Username: in.Username})
	return res, nil
}

func (s *AuthService) login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	if in.Username == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if err := s.checkCaptcha(ctx, in.CaptchaKey, in.Captcha); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, in.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, domain.ErrAccountDisabled
	}

	user.PasswordHash = ""
	user.Permissions = s.rolePermissions(ctx, user.Role)
	user.LastLoginAt = s.now().UTC()

	sessionID := uuid.NewString()
	token, err := s.generateToken(user, sessionID)
	if err != nil {
		return nil, err
	}

	store := session.NewStore(s.sessions.Namespace(sessionID), s.log)
	if err := store.SetToken(ctx, token); err != nil {
		return nil, fmt.Errorf("write session: %w", err)
	}
	if err := store.SetUser(ctx, user); err != nil {
		return nil, fmt.Errorf("write session: %w", err)
	}
	if err := s.sessions.Track(ctx, user.ID, sessionID); err != nil {
		_ = store.ClearUser(ctx)
		return nil, fmt.Errorf("write session: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Str("username", user.Username).Msg("failed to stamp last login")
	}

	return &ports.LoginResult{Token: token, SessionID: sessionID, User: store.User()}, nil
}

// Refresh reloads the session's user from the repository and rewrites the
// cached record. A disabled or deleted account ends the session.
func (s *AuthService) Refresh(ctx context.Context, sess ports.Session) (*domain.User, error) {
	current := sess.User()
	if current == nil {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.users.FindByUsername(ctx, current.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = sess.ClearUser(ctx)
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.Active() {
		_ = sess.ClearUser(ctx)
		return nil, domain.ErrAccountDisabled
	}

	user.PasswordHash = ""
	user.Permissions = s.rolePermissions(ctx, user.Role)
	if err := sess.SetUser(ctx, user); err != nil {
		return nil, fmt.Errorf("write session: %w", err)
	}
	return sess.User(), nil
}

// Logout clears the session, which revokes its token before it expires.
func (s *AuthService) Logout(ctx context.Context, sess ports.Session) error {
	username := ""
	if u := sess.User(); u != nil {
		username = u.Username
	}
	if err := sess.ClearUser(ctx); err != nil {
		return err
	}
	s.record(domain.AuthEvent{Type: domain.EventLogout, Username: username})
	return nil
}

// VerifyToken checks the signature and expiry of a token.
func (s *AuthService) VerifyToken(raw string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid || claims.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// TokenTTL returns the lifetime of issued tokens.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *AuthService) checkCaptcha(ctx context.Context, key, answer string) error {
	if s.captchas == nil {
		return nil
	}
	if key == "" || strings.TrimSpace(answer) == "" {
		return domain.ErrCaptchaRequired
	}
	want, err := s.captchas.Take(ctx, key)
	if err != nil {
		return err
	}
	if strings.TrimSpace(answer) != want {
		return domain.ErrCaptchaInvalid
	}
	return nil
}

// rolePermissions returns the grants of role; an unknown role grants nothing.
func (s *AuthService) rolePermissions(ctx context.Context, code string) domain.Permissions {
	role, err := s.roles.FindByCode(ctx, code)
	if err != nil {
		s.log.Warn().Err(err).Str("role", code).Msg("role lookup failed, granting nothing")
		return domain.Permissions{}
	}
	return role.Permissions
}

func (s *AuthService) generateToken(user *domain.User, sessionID string) (string, error) {
	now := s.now()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) record(event domain.AuthEvent) {
	if s.audit != nil {
		s.audit.Enqueue(event)
	}
}
