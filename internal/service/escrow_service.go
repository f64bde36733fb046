package service

import (
	"context"
	"fmt"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"
	"escrow-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EscrowServiceImpl implements ports.EscrowService.
//
// Every hold/release transition is recorded through the wallet event
// ingestion service with an idempotency key derived from the milestone id,
// so a retried transition produces exactly one wallet event.
type EscrowServiceImpl struct {
	projects   ports.ProjectRepository
	milestones ports.MilestoneRepository
	registry   ports.RegistryService
	events     ports.EventService
	audit      ports.AuditRecorder
	log        zerolog.Logger
}

// NewEscrowService creates a new EscrowServiceImpl.
func NewEscrowService(
	projects ports.ProjectRepository,
	milestones ports.MilestoneRepository,
	registry ports.RegistryService,
	events ports.EventService,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *EscrowServiceImpl {
	return &EscrowServiceImpl{
		projects:   projects,
		milestones: milestones,
		registry:   registry,
		events:     events,
		audit:      audit,
		log:        log,
	}
}

// CreateProject opens a new project.
func (s *EscrowServiceImpl) CreateProject(ctx context.Context, ownerID uuid.UUID, title string) (*domain.Project, error) {
	if title == "" {
		return nil, apperror.Validation("title is required")
	}
	now := time.Now().UTC()
	project := &domain.Project{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     title,
		Status:    domain.ProjectStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("insert project: %w", err))
	}
	return project, nil
}

// ListProjects returns the owner's projects.
func (s *EscrowServiceImpl) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	projects, err := s.projects.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list projects: %w", err))
	}
	return projects, nil
}

// GetProject returns the project and its milestones.
func (s *EscrowServiceImpl) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, []domain.Milestone, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("get project: %w", err))
	}
	if project == nil {
		return nil, nil, apperror.ErrNotFound("project")
	}
	milestones, err := s.milestones.ListByProjectID(ctx, id)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("list milestones: %w", err))
	}
	return project, milestones, nil
}

// AddMilestone attaches a milestone to a project.
func (s *EscrowServiceImpl) AddMilestone(ctx context.Context, projectID uuid.UUID, title string, amount decimal.Decimal, currency string) (*domain.Milestone, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if currency == "" {
		return nil, apperror.Validation("currency is required")
	}
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get project: %w", err))
	}
	if project == nil {
		return nil, apperror.ErrNotFound("project")
	}

	now := time.Now().UTC()
	m := &domain.Milestone{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     title,
		Amount:    amount,
		Currency:  currency,
		Status:    domain.MilestoneStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.milestones.Create(ctx, m); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("insert milestone: %w", err))
	}
	return m, nil
}

// HoldMilestone places the milestone amount in escrow against the given
// wallet. Idempotent: repeating the call returns the held milestone without
// a second wallet event.
func (s *EscrowServiceImpl) HoldMilestone(ctx context.Context, milestoneID, walletID uuid.UUID, actorID uuid.UUID) (*domain.Milestone, error) {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get milestone: %w", err))
	}
	if m == nil {
		return nil, apperror.ErrNotFound("milestone")
	}
	if m.Status == domain.MilestoneStatusHeld {
		return m, nil
	}
	if m.Status != domain.MilestoneStatusPending {
		return nil, apperror.ErrInvalidTransition(string(m.Status), string(domain.MilestoneStatusHeld))
	}

	reg, err := s.registry.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	// The milestone-derived idempotency key makes the hold event
	// exactly-once across retries and concurrent callers.
	if _, err := s.events.IngestEvent(ctx, ports.IngestEventRequest{
		WalletID:       walletID,
		Provider:       reg.Provider,
		EventType:      domain.EventTypeHold,
		Amount:         m.Amount,
		Currency:       m.Currency,
		IdempotencyKey: "milestone-hold:" + m.ID.String(),
		Metadata:       map[string]any{"milestone_id": m.ID.String(), "project_id": m.ProjectID.String()},
		OccurredAt:     time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	applied, err := s.milestones.UpdateStatus(ctx, m.ID, domain.MilestoneStatusPending, domain.MilestoneStatusHeld, &walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hold milestone: %w", err))
	}
	if !applied {
		// A concurrent hold won; re-read and accept its outcome.
		current, lookupErr := s.milestones.GetByID(ctx, m.ID)
		if lookupErr == nil && current != nil && current.Status == domain.MilestoneStatusHeld {
			return current, nil
		}
		return nil, apperror.ErrInvalidTransition(string(m.Status), string(domain.MilestoneStatusHeld))
	}
	m.Status = domain.MilestoneStatusHeld
	m.WalletID = &walletID

	s.audit.Record(ctx, &actorID, domain.AuditActionMilestoneHeld, "milestone", m.ID.String(), map[string]any{
		"wallet_id": walletID.String(),
		"amount":    m.Amount.String(),
		"currency":  m.Currency,
	})

	s.log.Info().
		Str("milestone_id", m.ID.String()).
		Str("wallet_id", walletID.String()).
		Str("amount", m.Amount.String()).
		Msg("milestone funds held")

	return m, nil
}

// ReleaseMilestone releases held funds. Idempotent like HoldMilestone.
func (s *EscrowServiceImpl) ReleaseMilestone(ctx context.Context, milestoneID uuid.UUID, actorID uuid.UUID) (*domain.Milestone, error) {
	m, err := s.milestones.GetByID(ctx, milestoneID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get milestone: %w", err))
	}
	if m == nil {
		return nil, apperror.ErrNotFound("milestone")
	}
	if m.Status == domain.MilestoneStatusReleased {
		return m, nil
	}
	if m.Status != domain.MilestoneStatusHeld || m.WalletID == nil {
		return nil, apperror.ErrInvalidTransition(string(m.Status), string(domain.MilestoneStatusReleased))
	}

	reg, err := s.registry.GetByID(ctx, *m.WalletID)
	if err != nil {
		return nil, err
	}

	if _, err := s.events.IngestEvent(ctx, ports.IngestEventRequest{
		WalletID:       *m.WalletID,
		Provider:       reg.Provider,
		EventType:      domain.EventTypeRelease,
		Amount:         m.Amount,
		Currency:       m.Currency,
		IdempotencyKey: "milestone-release:" + m.ID.String(),
		Metadata:       map[string]any{"milestone_id": m.ID.String(), "project_id": m.ProjectID.String()},
		OccurredAt:     time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	applied, err := s.milestones.UpdateStatus(ctx, m.ID, domain.MilestoneStatusHeld, domain.MilestoneStatusReleased, m.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("release milestone: %w", err))
	}
	if !applied {
		current, lookupErr := s.milestones.GetByID(ctx, m.ID)
		if lookupErr == nil && current != nil && current.Status == domain.MilestoneStatusReleased {
			return current, nil
		}
		return nil, apperror.ErrInvalidTransition(string(m.Status), string(domain.MilestoneStatusReleased))
	}
	m.Status = domain.MilestoneStatusReleased

	s.audit.Record(ctx, &actorID, domain.AuditActionMilestoneReleased, "milestone", m.ID.String(), map[string]any{
		"wallet_id": m.WalletID.String(),
		"amount":    m.Amount.String(),
		"currency":  m.Currency,
	})

	s.log.Info().
		Str("milestone_id", m.ID.String()).
		Str("amount", m.Amount.String()).
		Msg("milestone funds released")

	return m, nil
}
