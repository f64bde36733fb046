package service

import (
	"context"
	"sync"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"

	"github.com/google/uuid"
)

// In-memory repository fakes. Each enforces the same unique constraints the
// migrations declare, atomically under its own mutex, and returns
// ports.ErrDuplicateEntry on violation — so the services' race-resolution
// paths run against the same semantics the postgres adapters provide.

type fakeRegistryRepo struct {
	mu   sync.Mutex
	rows []domain.WalletRegistration
}

func (f *fakeRegistryRepo) Create(_ context.Context, reg *domain.WalletRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if reg.IdempotencyKey != "" && r.IdempotencyKey == reg.IdempotencyKey {
			return ports.ErrDuplicateEntry
		}
		if r.UserID == reg.UserID && r.Provider == reg.Provider && r.ProviderAccountID == reg.ProviderAccountID {
			return ports.ErrDuplicateEntry
		}
	}
	f.rows = append(f.rows, *reg)
	return nil
}

func (f *fakeRegistryRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.WalletRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRegistryRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.WalletRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].IdempotencyKey == key {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRegistryRepo) GetByNaturalKey(_ context.Context, userID uuid.UUID, provider domain.Provider, providerAccountID string) (*domain.WalletRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		r := f.rows[i]
		if r.UserID == userID && r.Provider == provider && r.ProviderAccountID == providerAccountID {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRegistryRepo) GetLatestByUserID(_ context.Context, userID uuid.UUID) (*domain.WalletRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.WalletRegistration
	for i := range f.rows {
		if f.rows[i].UserID != userID {
			continue
		}
		if latest == nil || f.rows[i].CreatedAt.After(latest.CreatedAt) {
			r := f.rows[i]
			latest = &r
		}
	}
	return latest, nil
}

func (f *fakeRegistryRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].IsActive = active
			return nil
		}
	}
	return nil
}

func (f *fakeRegistryRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeSnapshotRepo struct {
	mu   sync.Mutex
	rows []domain.BalanceSnapshot
}

func (f *fakeSnapshotRepo) Create(_ context.Context, snap *domain.BalanceSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if snap.IdempotencyKey != "" && r.IdempotencyKey == snap.IdempotencyKey {
			return ports.ErrDuplicateEntry
		}
		if snap.ExternalBalanceID != "" && r.ExternalBalanceID == snap.ExternalBalanceID {
			return ports.ErrDuplicateEntry
		}
		if r.WalletID == snap.WalletID && r.AsOf.Equal(snap.AsOf) {
			return ports.ErrDuplicateEntry
		}
	}
	f.rows = append(f.rows, *snap)
	return nil
}

func (f *fakeSnapshotRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.BalanceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].IdempotencyKey == key {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeSnapshotRepo) GetByExternalBalanceID(_ context.Context, externalBalanceID string) (*domain.BalanceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ExternalBalanceID == externalBalanceID {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeSnapshotRepo) GetLatestByWalletID(_ context.Context, walletID uuid.UUID) (*domain.BalanceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.BalanceSnapshot
	for i := range f.rows {
		if f.rows[i].WalletID != walletID {
			continue
		}
		if latest == nil || f.rows[i].AsOf.After(latest.AsOf) {
			r := f.rows[i]
			latest = &r
		}
	}
	return latest, nil
}

func (f *fakeSnapshotRepo) ListByWalletID(_ context.Context, walletID uuid.UUID, limit, offset int) ([]domain.BalanceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BalanceSnapshot
	for i := range f.rows {
		if f.rows[i].WalletID == walletID {
			out = append(out, f.rows[i])
		}
	}
	// newest first
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].AsOf.After(out[i].AsOf) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSnapshotRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeEventRepo struct {
	mu   sync.Mutex
	rows []domain.TransactionEvent
}

func (f *fakeEventRepo) Create(_ context.Context, event *domain.TransactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == event.ID {
			return ports.ErrDuplicateEntry
		}
		if event.ProviderEventID != "" && r.Provider == event.Provider && r.ProviderEventID == event.ProviderEventID {
			return ports.ErrDuplicateEntry
		}
		if event.IdempotencyKey != "" && r.IdempotencyKey == event.IdempotencyKey {
			return ports.ErrDuplicateEntry
		}
	}
	f.rows = append(f.rows, *event)
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.TransactionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeEventRepo) GetByIdempotencyKey(_ context.Context, key string) (*domain.TransactionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].IdempotencyKey == key {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeEventRepo) GetByProviderEventID(_ context.Context, provider domain.Provider, providerEventID string) (*domain.TransactionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].Provider == provider && f.rows[i].ProviderEventID == providerEventID {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeEventRepo) GetLatestByWalletID(_ context.Context, walletID uuid.UUID) (*domain.TransactionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.TransactionEvent
	for i := range f.rows {
		if f.rows[i].WalletID != walletID {
			continue
		}
		if latest == nil || f.rows[i].CreatedAt.After(latest.CreatedAt) {
			r := f.rows[i]
			latest = &r
		}
	}
	return latest, nil
}

func (f *fakeEventRepo) ListByWalletID(_ context.Context, walletID uuid.UUID, limit, offset int) ([]domain.TransactionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TransactionEvent
	for i := range f.rows {
		if f.rows[i].WalletID == walletID {
			out = append(out, f.rows[i])
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].OccurredAt.After(out[i].OccurredAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEventRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeUserRepo struct {
	mu   sync.Mutex
	rows []domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Email == user.Email {
			return ports.ErrDuplicateEntry
		}
	}
	f.rows = append(f.rows, *user)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].Email == email {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

type fakeKYCRepo struct {
	mu   sync.Mutex
	rows []domain.KYCSubmission
}

func (f *fakeKYCRepo) Create(_ context.Context, sub *domain.KYCSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.UserID == sub.UserID {
			return ports.ErrDuplicateEntry
		}
	}
	f.rows = append(f.rows, *sub)
	return nil
}

func (f *fakeKYCRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.KYCSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].UserID == userID {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeKYCRepo) UpdateStatus(_ context.Context, id uuid.UUID, status domain.KYCStatus, reviewedBy uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = status
			f.rows[i].ReviewedBy = &reviewedBy
			f.rows[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

type fakeProjectRepo struct {
	mu   sync.Mutex
	rows []domain.Project
}

func (f *fakeProjectRepo) Create(_ context.Context, project *domain.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *project)
	return nil
}

func (f *fakeProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeProjectRepo) ListByOwnerID(_ context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Project
	for i := range f.rows {
		if f.rows[i].OwnerID == ownerID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

type fakeMilestoneRepo struct {
	mu   sync.Mutex
	rows []domain.Milestone
}

func (f *fakeMilestoneRepo) Create(_ context.Context, m *domain.Milestone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *m)
	return nil
}

func (f *fakeMilestoneRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeMilestoneRepo) ListByProjectID(_ context.Context, projectID uuid.UUID) ([]domain.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Milestone
	for i := range f.rows {
		if f.rows[i].ProjectID == projectID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

// UpdateStatus is a compare-and-set, like the SQL UPDATE ... WHERE status = $4.
func (f *fakeMilestoneRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to domain.MilestoneStatus, walletID *uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].Status == from {
			f.rows[i].Status = to
			if walletID != nil {
				f.rows[i].WalletID = walletID
			}
			f.rows[i].UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

// fakeAuditRecorder counts Record calls synchronously, keyed by action.
type fakeAuditRecorder struct {
	mu      sync.Mutex
	entries []domain.AuditAction
}

func (f *fakeAuditRecorder) Record(_ context.Context, _ *uuid.UUID, action domain.AuditAction, _, _ string, _ map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, action)
}

func (f *fakeAuditRecorder) countAction(action domain.AuditAction) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.entries {
		if a == action {
			n++
		}
	}
	return n
}

// fakeCache is a map-backed ports.IdempotencyCache. TTLs are ignored.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

// fakeAuditRepo collects persisted audit events for audit service tests.
type fakeAuditRepo struct {
	mu   sync.Mutex
	rows []domain.AuditEvent
}

func (f *fakeAuditRepo) Create(_ context.Context, event *domain.AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *event)
	return nil
}

func (f *fakeAuditRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}
