package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minics/console/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config holds the connection settings for the account store.
type Config struct {
	URI      string
	Database string
	// AppName is reported to the server and shows up in its logs and
	// currentOp output.
	AppName string
	Timeout time.Duration
	// Roles are seeded on connect; existing roles are left untouched.
	Roles []*domain.Role
}

// Connect opens the client, pings it and prepares the database: indexes on
// users and auth events, and the seed roles.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	if err := Prepare(connectCtx, db, cfg.Roles); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, err
	}
	return client, db, nil
}

// Prepare creates the collections' indexes and seeds roles. It is safe to
// run on every start.
func Prepare(ctx context.Context, db *mongo.Database, roles []*domain.Role) error {
	if err := NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := NewAuditRepository(db).EnsureIndexes(ctx); err != nil {
		return err
	}
	if len(roles) > 0 {
		if err := NewRoleRepository(db).Seed(ctx, roles); err != nil {
			return err
		}
	}
	return nil
}
