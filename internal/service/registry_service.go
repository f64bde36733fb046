package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"
	"escrow-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// RegistryServiceImpl implements ports.RegistryService.
//
// Registration is idempotent: duplicate requests (same idempotency key or
// same (user, provider, provider_account_id) triple) converge on the first
// persisted row. Concurrent duplicate writers are detected via the
// persistence layer's unique constraints, never via an in-process lock.
type RegistryServiceImpl struct {
	repo  ports.WalletRegistrationRepository
	cache ports.IdempotencyCache // nil disables the Redis fast path
	audit ports.AuditRecorder
	log   zerolog.Logger
}

// NewRegistryService creates a new RegistryServiceImpl.
func NewRegistryService(
	repo ports.WalletRegistrationRepository,
	cache ports.IdempotencyCache,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *RegistryServiceImpl {
	return &RegistryServiceImpl{repo: repo, cache: cache, audit: audit, log: log}
}

// Register records a wallet registration at most once.
func (s *RegistryServiceImpl) Register(ctx context.Context, req ports.RegisterWalletRequest) (*domain.WalletRegistration, error) {
	if req.ProviderAccountID == "" {
		return nil, apperror.Validation("provider_account_id is required")
	}

	// Step 1: idempotency-key short-circuit. No provider call, no new write,
	// no new audit entry on replay.
	if req.IdempotencyKey != "" {
		if reg := s.cachedRegistration(ctx, req.IdempotencyKey); reg != nil {
			return reg, nil
		}
		reg, err := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("idempotency lookup: %w", err))
		}
		if reg != nil {
			s.cacheRegistration(ctx, req.IdempotencyKey, reg)
			return reg, nil
		}
	}

	// Step 2: natural-key lookup.
	existing, err := s.repo.GetByNaturalKey(ctx, req.UserID, req.Provider, req.ProviderAccountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("natural key lookup: %w", err))
	}
	if existing != nil {
		return existing, nil
	}

	// Step 3: attempt the durable insert.
	now := time.Now().UTC()
	reg := &domain.WalletRegistration{
		ID:                 uuid.New(),
		UserID:             req.UserID,
		Provider:           req.Provider,
		ProviderAccountID:  req.ProviderAccountID,
		ProviderCustomerID: req.ProviderCustomerID,
		IdempotencyKey:     req.IdempotencyKey,
		Metadata:           req.Metadata,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		if errors.Is(err, ports.ErrDuplicateEntry) {
			// Step 4: a concurrent writer won the race; re-resolve.
			return s.resolveRegistrationRace(ctx, req, err)
		}
		return nil, apperror.InternalError(fmt.Errorf("insert registration: %w", err))
	}

	s.audit.Record(ctx, &req.UserID, domain.AuditActionRegisterWallet, "wallet_registration", reg.ID.String(), map[string]any{
		"provider":            string(req.Provider),
		"provider_account_id": req.ProviderAccountID,
		"idempotency_key":     req.IdempotencyKey,
	})
	s.cacheRegistration(ctx, req.IdempotencyKey, reg)

	s.log.Info().
		Str("wallet_id", reg.ID.String()).
		Str("user_id", req.UserID.String()).
		Str("provider", string(req.Provider)).
		Msg("wallet registered")

	return reg, nil
}

// GetByID fetches a registration by wallet id.
func (s *RegistryServiceImpl) GetByID(ctx context.Context, walletID uuid.UUID) (*domain.WalletRegistration, error) {
	reg, err := s.repo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get registration: %w", err))
	}
	if reg == nil {
		return nil, apperror.ErrNotFound("wallet registration")
	}
	return reg, nil
}

// Deactivate flips the is_active flag. Registrations are never deleted.
func (s *RegistryServiceImpl) Deactivate(ctx context.Context, walletID uuid.UUID) error {
	reg, err := s.GetByID(ctx, walletID)
	if err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, reg.ID, false); err != nil {
		return apperror.InternalError(fmt.Errorf("deactivate registration: %w", err))
	}
	return nil
}

// resolveRegistrationRace re-resolves after a unique-constraint violation:
// idempotency key, then natural key, then latest-by-user. If nothing
// resolves (the winner's transaction is not yet visible), the original
// duplicate error propagates as a retryable failure.
func (s *RegistryServiceImpl) resolveRegistrationRace(ctx context.Context, req ports.RegisterWalletRequest, cause error) (*domain.WalletRegistration, error) {
	if req.IdempotencyKey != "" {
		if reg, err := s.repo.GetByIdempotencyKey(ctx, req.IdempotencyKey); err == nil && reg != nil {
			return reg, nil
		}
	}
	if reg, err := s.repo.GetByNaturalKey(ctx, req.UserID, req.Provider, req.ProviderAccountID); err == nil && reg != nil {
		return reg, nil
	}
	if reg, err := s.repo.GetLatestByUserID(ctx, req.UserID); err == nil && reg != nil {
		return reg, nil
	}
	s.log.Warn().Err(cause).Str("user_id", req.UserID.String()).Msg("registration race could not be re-resolved")
	return nil, apperror.ErrRaceUnresolved(cause)
}

const registryCachePrefix = "wallet:reg:"

func (s *RegistryServiceImpl) cachedRegistration(ctx context.Context, key string) *domain.WalletRegistration {
	if s.cache == nil || key == "" {
		return nil
	}
	data, err := s.cache.Get(ctx, registryCachePrefix+key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
		return nil
	}
	if data == nil {
		return nil
	}
	reg := &domain.WalletRegistration{}
	if err := json.Unmarshal(data, reg); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cached registration")
		return nil
	}
	return reg
}

func (s *RegistryServiceImpl) cacheRegistration(ctx context.Context, key string, reg *domain.WalletRegistration) {
	if s.cache == nil || key == "" {
		return
	}
	data, err := json.Marshal(reg)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, registryCachePrefix+key, data, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache registration in redis")
	}
}
