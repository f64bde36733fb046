package postgres

import (
	"context"
	"errors"
	"fmt"

	"escrow-backend/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// KYCRepo implements ports.KYCRepository.
type KYCRepo struct {
	pool Pool
}

// NewKYCRepo creates a new KYCRepo.
func NewKYCRepo(pool Pool) *KYCRepo {
	return &KYCRepo{pool: pool}
}

// Create inserts a KYC submission. Returns ports.ErrDuplicateEntry when the
// user already has one.
func (r *KYCRepo) Create(ctx context.Context, sub *domain.KYCSubmission) error {
	query := `INSERT INTO kyc_submissions (id, user_id, document_type, document_ref, status, reviewed_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		sub.ID, sub.UserID, sub.DocumentType, sub.DocumentRef,
		string(sub.Status), sub.ReviewedBy, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return translateError("insert kyc submission", err)
	}
	return nil
}

// GetByUserID fetches a user's submission.
func (r *KYCRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.KYCSubmission, error) {
	query := `SELECT id, user_id, document_type, document_ref, status, reviewed_by, created_at, updated_at
		FROM kyc_submissions WHERE user_id = $1`

	sub := &domain.KYCSubmission{}
	var status string
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.DocumentType, &sub.DocumentRef,
		&status, &sub.ReviewedBy, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get kyc submission: %w", err)
	}
	sub.Status = domain.KYCStatus(status)
	return sub, nil
}

// UpdateStatus records a review decision.
func (r *KYCRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.KYCStatus, reviewedBy uuid.UUID) error {
	query := `UPDATE kyc_submissions SET status = $1, reviewed_by = $2, updated_at = NOW() WHERE id = $3`
	tag, err := r.pool.Exec(ctx, query, string(status), reviewedBy, id)
	if err != nil {
		return fmt.Errorf("update kyc status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("kyc submission not found: %s", id)
	}
	return nil
}
