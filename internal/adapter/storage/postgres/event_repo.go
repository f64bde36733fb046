package postgres

import (
	"context"
	"errors"
	"fmt"

	"escrow-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const eventColumns = `id, wallet_id, provider, event_type, amount::text, currency,
	provider_event_id, idempotency_key, metadata, occurred_at, created_at`

// EventRepo implements ports.TransactionEventRepository. Append-only.
type EventRepo struct {
	pool Pool
}

// NewEventRepo creates a new EventRepo.
func NewEventRepo(pool Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// Create inserts a new transaction event. Returns ports.ErrDuplicateEntry
// when any uniqueness constraint is violated.
func (r *EventRepo) Create(ctx context.Context, event *domain.TransactionEvent) error {
	metadata, err := marshalMetadata(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal event metadata: %w", err)
	}

	query := `INSERT INTO transaction_events
		(id, wallet_id, provider, event_type, amount, currency, provider_event_id, idempotency_key, metadata, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.pool.Exec(ctx, query,
		event.ID, event.WalletID, string(event.Provider), string(event.EventType),
		event.Amount.String(), event.Currency,
		nullIfEmpty(event.ProviderEventID), nullIfEmpty(event.IdempotencyKey),
		metadata, event.OccurredAt, event.CreatedAt,
	)
	if err != nil {
		return translateError("insert event", err)
	}
	return nil
}

// GetByID fetches an event by id.
func (r *EventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transaction_events WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get event by id")
}

// GetByIdempotencyKey fetches an event by idempotency key.
func (r *EventRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.TransactionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transaction_events WHERE idempotency_key = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, key), "get event by idempotency key")
}

// GetByProviderEventID fetches an event by the provider's natural dedup key.
func (r *EventRepo) GetByProviderEventID(ctx context.Context, provider domain.Provider, providerEventID string) (*domain.TransactionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transaction_events
		WHERE provider = $1 AND provider_event_id = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, string(provider), providerEventID), "get event by provider event id")
}

// GetLatestByWalletID fetches the most recently ingested event for a wallet.
func (r *EventRepo) GetLatestByWalletID(ctx context.Context, walletID uuid.UUID) (*domain.TransactionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transaction_events
		WHERE wallet_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, walletID), "get latest event")
}

// ListByWalletID returns events for a wallet ordered by occurred_at
// descending. Ordering among events sharing an occurred_at is unspecified.
func (r *EventRepo) ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.TransactionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM transaction_events
		WHERE wallet_id = $1 ORDER BY occurred_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.TransactionEvent
	for rows.Next() {
		event, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (r *EventRepo) scanOne(row pgx.Row, op string) (*domain.TransactionEvent, error) {
	event, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return event, nil
}

func (r *EventRepo) scanRow(row pgx.Row) (*domain.TransactionEvent, error) {
	event := &domain.TransactionEvent{}
	var (
		provider        string
		eventType       string
		amount          string
		providerEventID *string
		idempotencyKey  *string
		metadata        []byte
	)
	err := row.Scan(
		&event.ID, &event.WalletID, &provider, &eventType, &amount, &event.Currency,
		&providerEventID, &idempotencyKey, &metadata, &event.OccurredAt, &event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Provider = domain.Provider(provider)
	event.EventType = domain.EventType(eventType)
	if event.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	event.ProviderEventID = derefString(providerEventID)
	event.IdempotencyKey = derefString(idempotencyKey)
	if event.Metadata, err = unmarshalMetadata(metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return event, nil
}
