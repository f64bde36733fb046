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

// BalanceServiceImpl implements ports.BalanceService.
//
// SyncBalance holds no lock across the provider network call; the snapshot
// table's unique constraints are the sole serialization point. Two
// concurrent syncs for the same wallet may each return a different (but
// individually consistent) row; the invariant is that every uniqueness
// constraint holds afterward, not that one caller's view wins.
type BalanceServiceImpl struct {
	snapRepo  ports.BalanceSnapshotRepository
	registry  ports.WalletRegistrationRepository
	providers map[domain.Provider]ports.WalletProvider
	cache     ports.IdempotencyCache // nil disables the Redis fast path
	audit     ports.AuditRecorder
	log       zerolog.Logger
}

// NewBalanceService creates a new BalanceServiceImpl.
func NewBalanceService(
	snapRepo ports.BalanceSnapshotRepository,
	registry ports.WalletRegistrationRepository,
	providers []ports.WalletProvider,
	cache ports.IdempotencyCache,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *BalanceServiceImpl {
	byName := make(map[domain.Provider]ports.WalletProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &BalanceServiceImpl{
		snapRepo:  snapRepo,
		registry:  registry,
		providers: byName,
		cache:     cache,
		audit:     audit,
		log:       log,
	}
}

// SyncBalance fetches the wallet's current balance from its provider and
// persists a snapshot only when new information exists.
func (s *BalanceServiceImpl) SyncBalance(ctx context.Context, walletID uuid.UUID, idempotencyKey string) (*domain.BalanceSnapshot, error) {
	// Step 1: idempotency-key short-circuit.
	if idempotencyKey != "" {
		if snap := s.cachedSnapshot(ctx, idempotencyKey); snap != nil {
			return snap, nil
		}
		snap, err := s.snapRepo.GetByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("idempotency lookup: %w", err))
		}
		if snap != nil {
			s.cacheSnapshot(ctx, idempotencyKey, snap)
			return snap, nil
		}
	}

	// Step 2: resolve provider + account through the registry. The wallet id
	// is the registration id; inferring the provider from prior snapshots
	// would silently mis-route wallets that have never synced.
	reg, err := s.registry.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve wallet: %w", err))
	}
	if reg == nil {
		return nil, apperror.ErrNotFound("wallet registration")
	}
	if !reg.IsActive {
		return nil, apperror.ErrWalletInactive()
	}
	provider, ok := s.providers[reg.Provider]
	if !ok {
		return nil, apperror.ErrUnknownProvider(string(reg.Provider))
	}

	// Step 3: provider fetch. A failure aborts the attempt with nothing
	// persisted; the caller may retry the whole sync later.
	report, err := provider.FetchBalance(ctx, reg.ProviderAccountID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("wallet_id", walletID.String()).
			Str("provider", string(reg.Provider)).
			Msg("provider balance fetch failed")
		return nil, apperror.ErrProviderFetch(err)
	}

	// Step 4: provider-issued balance id already recorded -> return it.
	if report.ExternalBalanceID != "" {
		snap, err := s.snapRepo.GetByExternalBalanceID(ctx, report.ExternalBalanceID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("external balance lookup: %w", err))
		}
		if snap != nil {
			return snap, nil
		}
	}

	// Step 5: unchanged balance and no explicit key -> no snapshot spam.
	// A supplied idempotency key signals the caller wants a recorded
	// observation even when nothing changed.
	latest, err := s.snapRepo.GetLatestByWalletID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("latest snapshot lookup: %w", err))
	}
	if latest != nil && idempotencyKey == "" && latest.SameObservation(report.Balance, report.Currency) {
		return latest, nil
	}

	// Step 6: construct and insert the new snapshot.
	asOf := report.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	snap := &domain.BalanceSnapshot{
		ID:                uuid.New(),
		WalletID:          walletID,
		Provider:          reg.Provider,
		Balance:           report.Balance,
		Currency:          report.Currency,
		ExternalBalanceID: report.ExternalBalanceID,
		IdempotencyKey:    idempotencyKey,
		AsOf:              asOf,
		Metadata:          report.Metadata,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.snapRepo.Create(ctx, snap); err != nil {
		if errors.Is(err, ports.ErrDuplicateEntry) {
			// Step 7: concurrent writer won; re-resolve.
			return s.resolveSnapshotRace(ctx, walletID, idempotencyKey, report.ExternalBalanceID, err)
		}
		return nil, apperror.InternalError(fmt.Errorf("insert snapshot: %w", err))
	}

	s.audit.Record(ctx, &reg.UserID, domain.AuditActionSyncBalance, "balance_snapshot", snap.ID.String(), map[string]any{
		"wallet_id":       walletID.String(),
		"balance":         snap.Balance.String(),
		"currency":        snap.Currency,
		"idempotency_key": idempotencyKey,
	})
	s.cacheSnapshot(ctx, idempotencyKey, snap)

	s.log.Info().
		Str("snapshot_id", snap.ID.String()).
		Str("wallet_id", walletID.String()).
		Str("balance", snap.Balance.String()).
		Str("currency", snap.Currency).
		Msg("balance snapshot recorded")

	return snap, nil
}

// GetLatest returns the most recent snapshot for the wallet, or a not-found
// error when the wallet has never synced.
func (s *BalanceServiceImpl) GetLatest(ctx context.Context, walletID uuid.UUID) (*domain.BalanceSnapshot, error) {
	snap, err := s.snapRepo.GetLatestByWalletID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("latest snapshot lookup: %w", err))
	}
	if snap == nil {
		return nil, apperror.ErrNotFound("balance snapshot")
	}
	return snap, nil
}

// ListSnapshots returns the wallet's snapshot history, newest first.
func (s *BalanceServiceImpl) ListSnapshots(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.BalanceSnapshot, error) {
	if limit <= 0 {
		limit = defaultEventPageSize
	}
	if limit > maxEventPageSize {
		limit = maxEventPageSize
	}
	if offset < 0 {
		offset = 0
	}
	snaps, err := s.snapRepo.ListByWalletID(ctx, walletID, limit, offset)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list snapshots: %w", err))
	}
	return snaps, nil
}

// resolveSnapshotRace re-resolves after a unique-constraint violation:
// idempotency key, then external balance id, then latest-by-wallet.
func (s *BalanceServiceImpl) resolveSnapshotRace(ctx context.Context, walletID uuid.UUID, idempotencyKey, externalBalanceID string, cause error) (*domain.BalanceSnapshot, error) {
	if idempotencyKey != "" {
		if snap, err := s.snapRepo.GetByIdempotencyKey(ctx, idempotencyKey); err == nil && snap != nil {
			return snap, nil
		}
	}
	if externalBalanceID != "" {
		if snap, err := s.snapRepo.GetByExternalBalanceID(ctx, externalBalanceID); err == nil && snap != nil {
			return snap, nil
		}
	}
	if snap, err := s.snapRepo.GetLatestByWalletID(ctx, walletID); err == nil && snap != nil {
		return snap, nil
	}
	s.log.Warn().Err(cause).Str("wallet_id", walletID.String()).Msg("snapshot race could not be re-resolved")
	return nil, apperror.ErrRaceUnresolved(cause)
}

const snapshotCachePrefix = "wallet:snap:"

func (s *BalanceServiceImpl) cachedSnapshot(ctx context.Context, key string) *domain.BalanceSnapshot {
	if s.cache == nil || key == "" {
		return nil
	}
	data, err := s.cache.Get(ctx, snapshotCachePrefix+key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
		return nil
	}
	if data == nil {
		return nil
	}
	snap := &domain.BalanceSnapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil
	}
	return snap
}

func (s *BalanceServiceImpl) cacheSnapshot(ctx context.Context, key string, snap *domain.BalanceSnapshot) {
	if s.cache == nil || key == "" {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, snapshotCachePrefix+key, data, idempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache snapshot in redis")
	}
}
