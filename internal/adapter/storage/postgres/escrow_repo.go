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

// ProjectRepo implements ports.ProjectRepository.
type ProjectRepo struct {
	pool Pool
}

// NewProjectRepo creates a new ProjectRepo.
func NewProjectRepo(pool Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

// Create inserts a new project.
func (r *ProjectRepo) Create(ctx context.Context, project *domain.Project) error {
	query := `INSERT INTO projects (id, owner_id, title, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		project.ID, project.OwnerID, project.Title, string(project.Status),
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return translateError("insert project", err)
	}
	return nil
}

// GetByID fetches a project by id.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `SELECT id, owner_id, title, status, created_at, updated_at FROM projects WHERE id = $1`

	project := &domain.Project{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&project.ID, &project.OwnerID, &project.Title, &status,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	project.Status = domain.ProjectStatus(status)
	return project, nil
}

// ListByOwnerID returns the owner's projects, newest first.
func (r *ProjectRepo) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]domain.Project, error) {
	query := `SELECT id, owner_id, title, status, created_at, updated_at
		FROM projects WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		var status string
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		p.Status = domain.ProjectStatus(status)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

const milestoneColumns = `id, project_id, title, amount::text, currency, status, wallet_id, created_at, updated_at`

// MilestoneRepo implements ports.MilestoneRepository.
type MilestoneRepo struct {
	pool Pool
}

// NewMilestoneRepo creates a new MilestoneRepo.
func NewMilestoneRepo(pool Pool) *MilestoneRepo {
	return &MilestoneRepo{pool: pool}
}

// Create inserts a new milestone.
func (r *MilestoneRepo) Create(ctx context.Context, m *domain.Milestone) error {
	query := `INSERT INTO milestones (id, project_id, title, amount, currency, status, wallet_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.ProjectID, m.Title, m.Amount.String(), m.Currency,
		string(m.Status), m.WalletID, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return translateError("insert milestone", err)
	}
	return nil
}

// GetByID fetches a milestone by id.
func (r *MilestoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`

	m, err := r.scanRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get milestone: %w", err)
	}
	return m, nil
}

// ListByProjectID returns a project's milestones in creation order.
func (r *MilestoneRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]domain.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones
		WHERE project_id = $1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var milestones []domain.Milestone
	for rows.Next() {
		m, err := r.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list milestones: %w", err)
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

// UpdateStatus transitions a milestone from one status to another in a single
// guarded statement. It reports false when the milestone was not in the
// expected status, which is how concurrent transitions lose the race.
func (r *MilestoneRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.MilestoneStatus, walletID *uuid.UUID) (bool, error) {
	query := `UPDATE milestones
		SET status = $1, wallet_id = COALESCE($2, wallet_id), updated_at = NOW()
		WHERE id = $3 AND status = $4`

	tag, err := r.pool.Exec(ctx, query, string(to), walletID, id, string(from))
	if err != nil {
		return false, fmt.Errorf("update milestone status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MilestoneRepo) scanRow(row pgx.Row) (*domain.Milestone, error) {
	m := &domain.Milestone{}
	var (
		amount string
		status string
	)
	err := row.Scan(
		&m.ID, &m.ProjectID, &m.Title, &amount, &m.Currency,
		&status, &m.WalletID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = domain.MilestoneStatus(status)
	if m.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return m, nil
}
