package ports

//go:generate mockgen -destination=mocks/wallet_provider_mock.go -package=mocks escrow-backend/internal/core/ports WalletProvider
//go:generate mockgen -destination=mocks/service_mocks.go -package=mocks escrow-backend/internal/core/ports AuthService,RegistryService,BalanceService,EventService,KYCService,EscrowService,TokenService

import (
	"context"
	"time"

	"escrow-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceReport is a provider's view of an account balance at fetch time.
type BalanceReport struct {
	Balance           decimal.Decimal
	Currency          string
	ExternalBalanceID string // provider-issued id for this observation, may be empty
	AsOf              time.Time
	Metadata          map[string]any
}

// WalletProvider is the outbound port to an external wallet/payment service.
// FetchBalance failures abort the current sync attempt; they are never
// translated into a persisted partial snapshot.
type WalletProvider interface {
	Name() domain.Provider
	FetchBalance(ctx context.Context, providerAccountID string) (*BalanceReport, error)
}

// IdempotencyCache is the Redis fast path in front of the durable
// idempotency-key lookups. Best-effort: errors are logged and fall through
// to the database.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil when absent
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AuditRecorder is the fire-and-forget audit sink services write to on every
// first-time state change. Recorder failures never roll back the primary
// write.
type AuditRecorder interface {
	Record(ctx context.Context, actorID *uuid.UUID, action domain.AuditAction, resourceType, resourceID string, details map[string]any)
}

// --- Service ports ---

// RegisterWalletRequest holds validated input for wallet registration.
type RegisterWalletRequest struct {
	UserID             uuid.UUID
	Provider           domain.Provider
	ProviderAccountID  string
	ProviderCustomerID string
	IdempotencyKey     string
	Metadata           map[string]any
}

// RegistryService registers wallets idempotently.
type RegistryService interface {
	Register(ctx context.Context, req RegisterWalletRequest) (*domain.WalletRegistration, error)
	GetByID(ctx context.Context, walletID uuid.UUID) (*domain.WalletRegistration, error)
	Deactivate(ctx context.Context, walletID uuid.UUID) error
}

// BalanceService fetches provider balances and persists point-in-time
// snapshots when (and only when) new information exists.
type BalanceService interface {
	SyncBalance(ctx context.Context, walletID uuid.UUID, idempotencyKey string) (*domain.BalanceSnapshot, error)
	GetLatest(ctx context.Context, walletID uuid.UUID) (*domain.BalanceSnapshot, error)
	ListSnapshots(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.BalanceSnapshot, error)
}

// IngestEventRequest holds validated input for event ingestion.
type IngestEventRequest struct {
	EventID         uuid.UUID // optional exact identity; zero value means unset
	WalletID        uuid.UUID
	Provider        domain.Provider
	EventType       domain.EventType
	Amount          decimal.Decimal
	Currency        string
	ProviderEventID string
	IdempotencyKey  string
	Metadata        map[string]any
	OccurredAt      time.Time
}

// EventService records provider transaction events exactly once.
type EventService interface {
	IngestEvent(ctx context.Context, req IngestEventRequest) (*domain.TransactionEvent, error)
	ListByWalletID(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.TransactionEvent, error)
}

// AuthService defines user authentication.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry
}

// KYCService defines identity-verification submission and review.
type KYCService interface {
	Submit(ctx context.Context, userID uuid.UUID, documentType, documentRef string) (*domain.KYCSubmission, error)
	Review(ctx context.Context, userID uuid.UUID, approved bool, reviewerID uuid.UUID) (*domain.KYCSubmission, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.KYCSubmission, error)
}

// EscrowService manages projects, milestones and escrow hold/release.
type EscrowService interface {
	CreateProject(ctx context.Context, ownerID uuid.UUID, title string) (*domain.Project, error)
	ListProjects(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, []domain.Milestone, error)
	AddMilestone(ctx context.Context, projectID uuid.UUID, title string, amount decimal.Decimal, currency string) (*domain.Milestone, error)
	HoldMilestone(ctx context.Context, milestoneID, walletID uuid.UUID, actorID uuid.UUID) (*domain.Milestone, error)
	ReleaseMilestone(ctx context.Context, milestoneID uuid.UUID, actorID uuid.UUID) (*domain.Milestone, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, email string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}
