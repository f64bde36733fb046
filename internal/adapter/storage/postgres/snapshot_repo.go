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

const snapshotColumns = `id, wallet_id, provider, balance::text, currency,
	external_balance_id, idempotency_key, as_of, metadata, created_at`

// SnapshotRepo implements ports.BalanceSnapshotRepository. Snapshots are
// append-only; there is deliberately no update statement here.
type SnapshotRepo struct {
	pool Pool
}

// NewSnapshotRepo creates a new SnapshotRepo.
func NewSnapshotRepo(pool Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Create inserts a new balance snapshot. Returns ports.ErrDuplicateEntry
// when any uniqueness constraint is violated.
func (r *SnapshotRepo) Create(ctx context.Context, snap *domain.BalanceSnapshot) error {
	metadata, err := marshalMetadata(snap.Metadata)
	if err != nil {
		return fmt.Errorf("marshal snapshot metadata: %w", err)
	}

	query := `INSERT INTO balance_snapshots
		(id, wallet_id, provider, balance, currency, external_balance_id, idempotency_key, as_of, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		snap.ID, snap.WalletID, string(snap.Provider), snap.Balance.String(), snap.Currency,
		nullIfEmpty(snap.ExternalBalanceID), nullIfEmpty(snap.IdempotencyKey),
		snap.AsOf, metadata, snap.CreatedAt,
	)
	if err != nil {
		return translateError("insert snapshot", err)
	}
	return nil
}

// GetByIdempotencyKey fetches a snapshot by idempotency key.
func (r *SnapshotRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.BalanceSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM balance_snapshots WHERE idempotency_key = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, key), "get snapshot by idempotency key")
}

// GetByExternalBalanceID fetches a snapshot by the provider-issued id.
func (r *SnapshotRepo) GetByExternalBalanceID(ctx context.Context, externalBalanceID string) (*domain.BalanceSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM balance_snapshots WHERE external_balance_id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, externalBalanceID), "get snapshot by external balance id")
}

// GetLatestByWalletID fetches the most recent snapshot for a wallet by as_of.
func (r *SnapshotRepo) GetLatestByWalletID(ctx context.Context, walletID uuid.UUID) (*domain.BalanceSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM balance_snapshots
		WHERE wallet_id = $1 ORDER BY as_of DESC LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, walletID), "get latest snapshot")
}

// ListByWalletID returns snapshots for a wallet, newest first.
func (r *SnapshotRepo) ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.BalanceSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM balance_snapshots
		WHERE wallet_id = $1 ORDER BY as_of DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.BalanceSnapshot
	for rows.Next() {
		snap, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, rows.Err()
}

func (r *SnapshotRepo) scanOne(row pgx.Row, op string) (*domain.BalanceSnapshot, error) {
	snap, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return snap, nil
}

func (r *SnapshotRepo) scanRow(row pgx.Row) (*domain.BalanceSnapshot, error) {
	snap := &domain.BalanceSnapshot{}
	var (
		provider          string
		balance           string
		externalBalanceID *string
		idempotencyKey    *string
		metadata          []byte
	)
	err := row.Scan(
		&snap.ID, &snap.WalletID, &provider, &balance, &snap.Currency,
		&externalBalanceID, &idempotencyKey, &snap.AsOf, &metadata, &snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	snap.Provider = domain.Provider(provider)
	if snap.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	snap.ExternalBalanceID = derefString(externalBalanceID)
	snap.IdempotencyKey = derefString(idempotencyKey)
	if snap.Metadata, err = unmarshalMetadata(metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return snap, nil
}
