package ports

import (
	"context"

	"github.com/minics/console/internal/core/domain"
)

// AuditRepository appends to the authentication audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditService records audit events.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

// AuditRecorder accepts audit events without blocking the caller.
type AuditRecorder interface {
	Enqueue(event domain.AuthEvent)
}
