package api

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/minics/console/docs"
	"github.com/minics/console/internal/api/handler"
	"github.com/minics/console/internal/api/middleware"
	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
	"github.com/minics/console/internal/infrastructure/http/handlers"
)

// Authenticator is the auth service as the router needs it.
type Authenticator interface {
	ports.AuthService
	middleware.TokenVerifier
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Log      zerolog.Logger
	Auth     Authenticator
	Captcha  ports.CaptchaService // nil disables captchas
	Roles    ports.RoleService
	Users    ports.UserService
	Sessions ports.SessionStorage
	Guards   middleware.GuardProvider
	Audit    ports.AuditRecorder
	Health   map[string]handlers.Checker

	TokenTTL     time.Duration
	SecureCookie bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(middleware.Session(d.Auth, d.Sessions, d.Log))

	authHandler := handler.NewAuthHandler(d.Auth, d.Captcha, d.TokenTTL, d.SecureCookie)
	userHandler := handler.NewUserHandler(d.Auth, d.Users)
	roleHandler := handler.NewRoleHandler(d.Roles)
	navHandler := handler.NewNavigationHandler(d.Guards)
	pageHandler := handler.NewPageHandler(d.Guards)
	requireAuth := middleware.RequireAuth()

	// --- Auth routes ---
	auth := e.Group("/api/admin/auth")
	auth.GET("/captcha", authHandler.Captcha)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, requireAuth)
	auth.GET("/me", authHandler.Me, requireAuth)

	// --- Navigation ---
	nav := e.Group("/api/navigation")
	nav.POST("/decide", navHandler.Decide)
	nav.GET("/landing", navHandler.Landing, requireAuth)

	// --- Administration ---
	roles := e.Group("/api/admin/roles", requireAuth,
		middleware.RequirePermission([]string{"role:manage"}, []string{domain.RoleAdmin}))
	roles.GET("", roleHandler.List)
	roles.POST("", roleHandler.Create)
	roles.GET("/:code", roleHandler.Get)
	roles.PUT("/:code", roleHandler.Update)
	roles.DELETE("/:code", roleHandler.Delete)

	users := e.Group("/api/admin/users", requireAuth,
		middleware.RequirePermission([]string{"user:manage"}, []string{domain.RoleAdmin}))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.PUT("/:id/status", userHandler.SetStatus)
	users.PUT("/:id/password", userHandler.ResetPassword)
	users.DELETE("/:id", userHandler.Delete)

	// --- Console pages (route guard) ---
	pageGuard := middleware.PageGuard(d.Guards, d.Audit)
	for _, p := range []string{"/", "/login", "/admin", "/admin/*", "/portal", "/portal/*", "/mobile/*"} {
		e.GET(p, pageHandler.Render, pageGuard)
	}

	// --- Health checks (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
