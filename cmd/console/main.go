// console serves the admin console API: operator login, role
// administration and server-side route guarding.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minics/console/internal/api"
	"github.com/minics/console/internal/core/ports"
	"github.com/minics/console/internal/core/service"
	"github.com/minics/console/internal/infrastructure/cache"
	mongodb "github.com/minics/console/internal/infrastructure/db/mongo"
	redisdb "github.com/minics/console/internal/infrastructure/db/redis"
	"github.com/minics/console/internal/infrastructure/http/handlers"
	"github.com/minics/console/internal/infrastructure/queue"
	"github.com/minics/console/internal/infrastructure/routetable"
	"github.com/minics/console/internal/pkg/config"
	"github.com/minics/console/pkg/logger"
)

//go:generate go run github.com/swaggo/swag/cmd/swag@v1.16.2 init -d ../.. -g cmd/console/main.go -o ../../docs --parseInternal --outputTypes go

const shutdownTimeout = 15 * time.Second

// @title                       Console API
// @version                     1.0
// @description                 Operator authentication, role administration and route guarding for the admin console.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "console",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  cfg.Mongo.AppName,
		Roles:    service.BuiltinRoles(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	roles := cache.NewRoleRepository(mongodb.NewRoleRepository(db), cfg.Roles.Size, cfg.Roles.TTL)
	sessions := redisdb.NewSessionStore(rdb, cfg.TokenTTL)

	auditService := service.NewAuditService(mongodb.NewAuditRepository(db), logger.Component("audit"))
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditService, logger.Component("audit"))
	// Workers outlive the signal context until the HTTP server has stopped.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher.Start(auditCtx)

	authOpts := []service.AuthOption{
		service.WithAudit(dispatcher),
		service.WithLogger(logger.Component("auth")),
	}
	var captchas ports.CaptchaService
	if cfg.Captcha.Enabled {
		store := redisdb.NewCaptchaStore(rdb, cfg.Captcha.TTL)
		captchas = service.NewCaptchaService(store)
		authOpts = append(authOpts, service.WithCaptcha(store))
	}
	auth := service.NewAuthService(users, roles, sessions, cfg.JWTSecret, cfg.TokenTTL, authOpts...)

	table, err := routetable.LoadOrDefault(cfg.RoutesFile)
	if err != nil {
		return err
	}
	live, err := routetable.NewLive(table)
	if err != nil {
		return err
	}
	if cfg.RoutesFile != "" {
		if err := routetable.Watch(ctx, cfg.RoutesFile, live, logger.Component("routetable")); err != nil {
			log.Warn().Err(err).Msg("route table hot reload disabled")
		}
	}

	e := api.NewRouter(api.Deps{
		Log:      log,
		Auth:     auth,
		Captcha:  captchas,
		Roles:    service.NewRoleService(roles, users),
		Users:    service.NewUserService(users, roles, sessions, dispatcher, logger.Component("users")),
		Sessions: sessions,
		Guards:   live,
		Audit:    dispatcher,
		Health: map[string]handlers.Checker{
			"mongodb": handlers.MongoChecker(db),
			"redis":   handlers.RedisChecker(rdb),
		},
		TokenTTL:     cfg.TokenTTL,
		SecureCookie: cfg.Production(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Bool("captcha", cfg.Captcha.Enabled).Msg("console listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			stopAudit()
			dispatcher.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	stopAudit()
	dispatcher.Wait()
	return nil
}
