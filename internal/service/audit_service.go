package service

import (
	"context"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

// auditService implements ports.AuditRecorder. Persistence happens on a
// bounded worker pool so a slow audit table never backpressures the primary
// write path; a failed audit write is logged and dropped, never rolled into
// the caller's result.
type auditService struct {
	repo ports.AuditRepository
	pool *ants.Pool
	log  zerolog.Logger
}

// NewAuditService creates an audit recorder backed by a worker pool of the
// given size. If repo is nil, audit events are only written to the logger.
func NewAuditService(repo ports.AuditRepository, workers int, log zerolog.Logger) (*auditService, error) {
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &auditService{repo: repo, pool: pool, log: log}, nil
}

// Record appends one audit event. Fire-and-forget.
func (s *auditService) Record(ctx context.Context, actorID *uuid.UUID, action domain.AuditAction, resourceType, resourceID string, details map[string]any) {
	entry := &domain.AuditEvent{
		ID:           uuid.New(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      details,
		CreatedAt:    time.Now().UTC(),
	}

	s.log.Info().
		Str("action", string(action)).
		Str("resource_type", resourceType).
		Str("resource_id", resourceID).
		Msg("audit")

	if s.repo == nil {
		return
	}

	persist := func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.Create(writeCtx, entry); err != nil {
			s.log.Warn().Err(err).Str("action", string(action)).Msg("failed to persist audit event")
		}
	}

	if err := s.pool.Submit(persist); err != nil {
		// Pool saturated or released: write synchronously rather than drop.
		persist()
	}
}

// Close drains the worker pool.
func (s *auditService) Close() {
	s.pool.Release()
}
