package postgres

import (
	"context"
	"errors"
	"fmt"

	"escrow-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const registrationColumns = `id, user_id, provider, provider_account_id, provider_customer_id,
	idempotency_key, metadata, is_active, created_at, updated_at`

// RegistryRepo implements ports.WalletRegistrationRepository.
type RegistryRepo struct {
	pool Pool
}

// NewRegistryRepo creates a new RegistryRepo.
func NewRegistryRepo(pool Pool) *RegistryRepo {
	return &RegistryRepo{pool: pool}
}

// Create inserts a new wallet registration. Returns ports.ErrDuplicateEntry
// when any uniqueness constraint is violated.
func (r *RegistryRepo) Create(ctx context.Context, reg *domain.WalletRegistration) error {
	metadata, err := marshalMetadata(reg.Metadata)
	if err != nil {
		return fmt.Errorf("marshal registration metadata: %w", err)
	}

	query := `INSERT INTO wallet_registrations
		(id, user_id, provider, provider_account_id, provider_customer_id, idempotency_key, metadata, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		reg.ID, reg.UserID, string(reg.Provider), reg.ProviderAccountID,
		nullIfEmpty(reg.ProviderCustomerID), nullIfEmpty(reg.IdempotencyKey),
		metadata, reg.IsActive, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		return translateError("insert registration", err)
	}
	return nil
}

// GetByID fetches a registration by wallet id.
func (r *RegistryRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM wallet_registrations WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id), "get registration by id")
}

// GetByIdempotencyKey fetches a registration by idempotency key.
func (r *RegistryRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.WalletRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM wallet_registrations WHERE idempotency_key = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, key), "get registration by idempotency key")
}

// GetByNaturalKey fetches a registration by its (user, provider, account) triple.
func (r *RegistryRepo) GetByNaturalKey(ctx context.Context, userID uuid.UUID, provider domain.Provider, providerAccountID string) (*domain.WalletRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM wallet_registrations
		WHERE user_id = $1 AND provider = $2 AND provider_account_id = $3`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID, string(provider), providerAccountID), "get registration by natural key")
}

// GetLatestByUserID fetches the most recently created registration for a user.
func (r *RegistryRepo) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*domain.WalletRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM wallet_registrations
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID), "get latest registration by user")
}

// SetActive flips the is_active flag.
func (r *RegistryRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE wallet_registrations SET is_active = $1, updated_at = NOW() WHERE id = $2`
	tag, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("set registration active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("registration not found: %s", id)
	}
	return nil
}

func (r *RegistryRepo) scanOne(row pgx.Row, op string) (*domain.WalletRegistration, error) {
	reg := &domain.WalletRegistration{}
	var (
		provider           string
		providerCustomerID *string
		idempotencyKey     *string
		metadata           []byte
	)
	err := row.Scan(
		&reg.ID, &reg.UserID, &provider, &reg.ProviderAccountID,
		&providerCustomerID, &idempotencyKey, &metadata,
		&reg.IsActive, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	reg.Provider = domain.Provider(provider)
	reg.ProviderCustomerID = derefString(providerCustomerID)
	reg.IdempotencyKey = derefString(idempotencyKey)
	if reg.Metadata, err = unmarshalMetadata(metadata); err != nil {
		return nil, fmt.Errorf("%s: decode metadata: %w", op, err)
	}
	return reg, nil
}
