// Package client is the console's HTTP collaborator. It attaches the
// stored auth token to every request and tears the session down when the
// server answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/session"
)

const defaultTimeout = 10 * time.Second

// ErrServer wraps non-401 error responses.
var ErrServer = errors.New("server error")

// Captcha is the login challenge; Enabled is false when the server skips it.
type Captcha struct {
	Enabled  bool   `json:"enabled"`
	Key      string `json:"key"`
	Question string `json:"question"`
}

// Credentials are the login form fields.
type Credentials struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	CaptchaKey string `json:"captcha_key,omitempty"`
	Captcha    string `json:"captcha,omitempty"`
}

// Decision is the server-side guard answer for a path.
type Decision struct {
	Outcome string `json:"outcome"`
	Path    string `json:"path"`
	Target  string `json:"target"`
	Replace bool   `json:"replace"`
	State   string `json:"state"`
	Reason  string `json:"reason,omitempty"`
	Menu    string `json:"menu,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Client talks to the console API on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
	log     zerolog.Logger

	// OnUnauthorized runs after a 401 has cleared the session.
	OnUnauthorized func(ctx context.Context)
}

type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for baseURL bound to sess.
func New(baseURL string, sess *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: sess,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Captcha fetches a login challenge.
func (c *Client) Captcha(ctx context.Context) (*Captcha, error) {
	var out Captcha
	if err := c.do(ctx, http.MethodGet, "/api/admin/auth/captcha", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and persists the token and user record.
func (c *Client) Login(ctx context.Context, creds Credentials) (*domain.User, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/api/admin/auth/login", creds, &out); err != nil {
		return nil, err
	}
	if out.Token == "" || out.User == nil {
		return nil, fmt.Errorf("%w: login response without token or user", ErrServer)
	}
	if err := c.session.SetToken(ctx, out.Token); err != nil {
		return nil, err
	}
	if err := c.session.SetUser(ctx, out.User); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Logout ends the server session and always clears the local one.
func (c *Client) Logout(ctx context.Context) error {
	callErr := c.do(ctx, http.MethodPost, "/api/admin/auth/logout", nil, nil)
	if err := c.session.ClearUser(ctx); err != nil {
		return err
	}
	if errors.Is(callErr, domain.ErrUnauthorized) {
		return nil
	}
	return callErr
}

// Me refreshes the stored user record from the server.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodGet, "/api/admin/auth/me", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("%w: empty user", ErrServer)
	}
	if err := c.session.SetUser(ctx, out.User); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Decide asks the server to evaluate a navigation.
func (c *Client) Decide(ctx context.Context, path string) (*Decision, error) {
	var out Decision
	body := map[string]string{"path": path}
	if err := c.do(ctx, http.MethodPost, "/api/navigation/decide", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.unauthorized(ctx, path)
		return domain.ErrUnauthorized
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s %s: %d %s", ErrServer, method, path, resp.StatusCode, errorMessage(resp.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) unauthorized(ctx context.Context, path string) {
	c.log.Warn().Str("path", path).Msg("session rejected by server")
	if err := c.session.ClearUser(ctx); err != nil {
		c.log.Error().Err(err).Msg("clear session after 401")
	}
	if c.OnUnauthorized != nil {
		c.OnUnauthorized(ctx)
	}
}

func errorMessage(r io.Reader) string {
	var env struct {
		Error string `json:"error"`
	}
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	if json.Unmarshal(b, &env) == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(b))
}
