package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"
	"escrow-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultEventPageSize = 50
	maxEventPageSize     = 200
)

// EventServiceImpl implements ports.EventService.
//
// Events are immutable and append-only; dedup priority is exact event
// identity, then (provider, provider_event_id), then idempotency key. A
// dedup hit returns the stored event unchanged even when the replayed
// payload disagrees — the natural key wins over the payload.
type EventServiceImpl struct {
	repo  ports.TransactionEventRepository
	audit ports.AuditRecorder
	log   zerolog.Logger
}

// NewEventService creates a new EventServiceImpl.
func NewEventService(repo ports.TransactionEventRepository, audit ports.AuditRecorder, log zerolog.Logger) *EventServiceImpl {
	return &EventServiceImpl{repo: repo, audit: audit, log: log}
}

// IngestEvent records a provider transaction event exactly once.
func (s *EventServiceImpl) IngestEvent(ctx context.Context, req ports.IngestEventRequest) (*domain.TransactionEvent, error) {
	if req.Currency == "" {
		return nil, apperror.Validation("currency is required")
	}
	if req.OccurredAt.IsZero() {
		return nil, apperror.Validation("occurred_at is required")
	}

	// Dedup (a): exact event identity.
	if req.EventID != uuid.Nil {
		event, err := s.repo.GetByID(ctx, req.EventID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("event lookup: %w", err))
		}
		if event != nil {
			return event, nil
		}
	}

	// Dedup (b): the provider's natural key.
	if req.ProviderEventID != "" {
		event, err := s.repo.GetByProviderEventID(ctx, req.Provider, req.ProviderEventID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("provider event lookup: %w", err))
		}
		if event != nil {
			return event, nil
		}
	}

	// Dedup (c): idempotency key.
	if req.IdempotencyKey != "" {
		event, err := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("idempotency lookup: %w", err))
		}
		if event != nil {
			return event, nil
		}
	}

	// (d): insert as new.
	id := req.EventID
	if id == uuid.Nil {
		id = uuid.New()
	}
	event := &domain.TransactionEvent{
		ID:              id,
		WalletID:        req.WalletID,
		Provider:        req.Provider,
		EventType:       req.EventType,
		Amount:          req.Amount,
		Currency:        req.Currency,
		ProviderEventID: req.ProviderEventID,
		IdempotencyKey:  req.IdempotencyKey,
		Metadata:        req.Metadata,
		OccurredAt:      req.OccurredAt.UTC(),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		if errors.Is(err, ports.ErrDuplicateEntry) {
			return s.resolveEventRace(ctx, req, err)
		}
		return nil, apperror.InternalError(fmt.Errorf("insert event: %w", err))
	}

	s.audit.Record(ctx, nil, domain.AuditActionIngestWalletEvent, "transaction_event", event.ID.String(), map[string]any{
		"wallet_id":         req.WalletID.String(),
		"provider":          string(req.Provider),
		"event_type":        string(req.EventType),
		"provider_event_id": req.ProviderEventID,
		"idempotency_key":   req.IdempotencyKey,
	})

	s.log.Info().
		Str("event_id", event.ID.String()).
		Str("wallet_id", req.WalletID.String()).
		Str("event_type", string(req.EventType)).
		Str("amount", req.Amount.String()).
		Msg("wallet event ingested")

	return event, nil
}

// ListByWalletID returns events for a wallet ordered by occurred_at
// descending (event time, not ingestion time).
func (s *EventServiceImpl) ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.TransactionEvent, error) {
	if limit <= 0 {
		limit = defaultEventPageSize
	}
	if limit > maxEventPageSize {
		limit = maxEventPageSize
	}
	if offset < 0 {
		offset = 0
	}
	events, err := s.repo.ListByWalletID(ctx, walletID, limit, offset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list events: %w", err))
	}
	return events, nil
}

// resolveEventRace re-resolves after a unique-constraint violation using the
// same keys the constraints enforce: (provider, provider_event_id), then
// idempotency key, then latest-by-wallet.
func (s *EventServiceImpl) resolveEventRace(ctx context.Context, req ports.IngestEventRequest, cause error) (*domain.TransactionEvent, error) {
	if req.ProviderEventID != "" {
		if event, err := s.repo.GetByProviderEventID(ctx, req.Provider, req.ProviderEventID); err == nil && event != nil {
			return event, nil
		}
	}
	if req.IdempotencyKey != "" {
		if event, err := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey); err == nil && event != nil {
			return event, nil
		}
	}
	if event, err := s.repo.GetLatestByWalletID(ctx, req.WalletID); err == nil && event != nil {
		return event, nil
	}
	s.log.Warn().Err(cause).Str("wallet_id", req.WalletID.String()).Msg("event race could not be re-resolved")
	return nil, apperror.ErrRaceUnresolved(cause)
}
