package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minics/console/internal/api/metrics"
	"github.com/minics/console/internal/api/middleware"
	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
)

type AuthHandler struct {
	authService    ports.AuthService
	captchaService ports.CaptchaService
	tokenTTL       time.Duration
	secureCookie   bool
}

// NewAuthHandler builds the handler. captchaService is nil when captchas
// are disabled.
func NewAuthHandler(authService ports.AuthService, captchaService ports.CaptchaService, tokenTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		captchaService: captchaService,
		tokenTTL:       tokenTTL,
		secureCookie:   secureCookie,
	}
}

// Captcha issues a login captcha.
//
// @Summary      Get a login captcha
// @Tags         auth
// @Produce      json
// @Success      200  {object}  captchaResponse
// @Failure      500  {object}  map[string]string
// @Router       /api/admin/auth/captcha [get]
func (h *AuthHandler) Captcha(c echo.Context) error {
	if h.captchaService == nil {
		return c.JSON(http.StatusOK, captchaResponse{Enabled: false})
	}
	captcha, err := h.captchaService.Generate(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, captchaResponse{Enabled: true, Key: captcha.Key, Question: captcha.Question})
}

// Login authenticates an operator and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/admin/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Username:   req.Username,
		Password:   req.Password,
		CaptchaKey: req.CaptchaKey,
		Captcha:    req.Captcha,
	})
	metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokenTTL),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, authResponse{Token: res.Token, User: res.User})
}

// Logout ends the caller's session.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  statusResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/admin/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	store, err := ctxAuthSession(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), store); err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
	return c.JSON(http.StatusOK, statusResponse{Status: "logged_out"})
}

// Me reloads and returns the caller's user record.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /api/admin/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	store, err := ctxAuthSession(c)
	if err != nil {
		return err
	}
	user, err := h.authService.Refresh(c.Request().Context(), store)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResponse{User: user})
}

func loginResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, domain.ErrCaptchaRequired),
		errors.Is(err, domain.ErrCaptchaExpired),
		errors.Is(err, domain.ErrCaptchaInvalid):
		return "captcha"
	default:
		return "error"
	}
}
