package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/minics/console/internal/core/domain"
)

const auditCollection = "auth_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

// EnsureIndexes indexes events by user and time for per-operator history.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}, {Key: "at", Value: -1}},
		Options: options.Index().SetName("username_at"),
	})
	if err != nil {
		return fmt.Errorf("auth event indexes: %w", err)
	}
	return nil
}

// Insert persists an event to the auth_events audit collection.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	doc := bson.M{
		"type":         string(event.Type),
		"username":     event.Username,
		"at":           event.At.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if event.Path != "" {
		doc["path"] = event.Path
	}
	if event.Target != "" {
		doc["target"] = event.Target
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	if event.RequestID != "" {
		doc["request_id"] = event.RequestID
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
