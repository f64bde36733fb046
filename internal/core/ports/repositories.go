package ports

import (
	"context"
	"errors"

	"escrow-backend/internal/core/domain"

	"github.com/google/uuid"
)

// ErrDuplicateEntry is the single normalized signal a persistence adapter
// raises when any unique constraint is violated, regardless of which
// underlying constraint fired. Services resolve concurrent-writer races by
// catching it and re-querying; it must never reach the HTTP boundary.
var ErrDuplicateEntry = errors.New("duplicate entry")

// Lookups that find nothing return (nil, nil): absence is a normal outcome,
// not a failure.

// WalletRegistrationRepository persists wallet registrations.
type WalletRegistrationRepository interface {
	Create(ctx context.Context, reg *domain.WalletRegistration) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletRegistration, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.WalletRegistration, error)
	GetByNaturalKey(ctx context.Context, userID uuid.UUID, provider domain.Provider, providerAccountID string) (*domain.WalletRegistration, error)
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*domain.WalletRegistration, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// BalanceSnapshotRepository persists balance snapshots (append-only).
type BalanceSnapshotRepository interface {
	Create(ctx context.Context, snap *domain.BalanceSnapshot) error
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.BalanceSnapshot, error)
	GetByExternalBalanceID(ctx context.Context, externalBalanceID string) (*domain.BalanceSnapshot, error)
	GetLatestByWalletID(ctx context.Context, walletID uuid.UUID) (*domain.BalanceSnapshot, error)
	ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.BalanceSnapshot, error)
}

// TransactionEventRepository persists transaction events (append-only).
// ListByWalletID orders by occurred_at descending: event time, not
// ingestion time.
type TransactionEventRepository interface {
	Create(ctx context.Context, event *domain.TransactionEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TransactionEvent, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.TransactionEvent, error)
	GetByProviderEventID(ctx context.Context, provider domain.Provider, providerEventID string) (*domain.TransactionEvent, error)
	GetLatestByWalletID(ctx context.Context, walletID uuid.UUID) (*domain.TransactionEvent, error)
	ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.TransactionEvent, error)
}

// AuditRepository is the append-only audit sink.
type AuditRepository interface {
	Create(ctx context.Context, event *domain.AuditEvent) error
}

// UserRepository persists users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// KYCRepository persists KYC submissions (one per user).
type KYCRepository interface {
	Create(ctx context.Context, sub *domain.KYCSubmission) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.KYCSubmission, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.KYCStatus, reviewedBy uuid.UUID) error
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error)
}

// MilestoneRepository persists milestones.
// UpdateStatus is a compare-and-set on the current status; it reports whether
// the transition was applied.
type MilestoneRepository interface {
	Create(ctx context.Context, m *domain.Milestone) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Milestone, error)
	ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Milestone, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.MilestoneStatus, walletID *uuid.UUID) (bool, error)
}
