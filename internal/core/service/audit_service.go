package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/minics/console/internal/core/domain"
	"github.com/minics/console/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists one audit event.
func (s *auditService) Record(ctx context.Context, event domain.AuthEvent) error {
	if event.Type == "" {
		return fmt.Errorf("record audit event: missing type")
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	s.log.Debug().
		Str("type", string(event.Type)).
		Str("username", event.Username).
		Str("path", event.Path).
		Msg("audit event recorded")
	return nil
}
