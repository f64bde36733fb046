package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"
	"escrow-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// KYCServiceImpl implements ports.KYCService. One submission per user;
// re-submits return the existing record unchanged.
type KYCServiceImpl struct {
	repo  ports.KYCRepository
	audit ports.AuditRecorder
	log   zerolog.Logger
}

// NewKYCService creates a new KYCServiceImpl.
func NewKYCService(repo ports.KYCRepository, audit ports.AuditRecorder, log zerolog.Logger) *KYCServiceImpl {
	return &KYCServiceImpl{repo: repo, audit: audit, log: log}
}

// Submit records a KYC document reference for the user, idempotently.
func (s *KYCServiceImpl) Submit(ctx context.Context, userID uuid.UUID, documentType, documentRef string) (*domain.KYCSubmission, error) {
	if documentType == "" || documentRef == "" {
		return nil, apperror.Validation("document_type and document_ref are required")
	}

	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("kyc lookup: %w", err))
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now().UTC()
	sub := &domain.KYCSubmission{
		ID:           uuid.New(),
		UserID:       userID,
		DocumentType: documentType,
		DocumentRef:  documentRef,
		Status:       domain.KYCStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, ports.ErrDuplicateEntry) {
			// Concurrent submit won the race; the stored row is the answer.
			if winner, lookupErr := s.repo.GetByUserID(ctx, userID); lookupErr == nil && winner != nil {
				return winner, nil
			}
			return nil, apperror.ErrRaceUnresolved(err)
		}
		return nil, apperror.InternalError(fmt.Errorf("insert kyc submission: %w", err))
	}

	s.audit.Record(ctx, &userID, domain.AuditActionKYCSubmitted, "kyc_submission", sub.ID.String(), map[string]any{
		"document_type": documentType,
	})

	return sub, nil
}

// Review approves or rejects the user's pending submission.
func (s *KYCServiceImpl) Review(ctx context.Context, userID uuid.UUID, approved bool, reviewerID uuid.UUID) (*domain.KYCSubmission, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("kyc lookup: %w", err))
	}
	if sub == nil {
		return nil, apperror.ErrKYCNotSubmitted()
	}

	status := domain.KYCStatusRejected
	if approved {
		status = domain.KYCStatusApproved
	}
	if err := s.repo.UpdateStatus(ctx, sub.ID, status, reviewerID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update kyc status: %w", err))
	}
	sub.Status = status
	sub.ReviewedBy = &reviewerID

	s.audit.Record(ctx, &reviewerID, domain.AuditActionKYCReviewed, "kyc_submission", sub.ID.String(), map[string]any{
		"user_id": userID.String(),
		"status":  string(status),
	})

	return sub, nil
}

// GetByUserID fetches the user's submission.
func (s *KYCServiceImpl) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.KYCSubmission, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("kyc lookup: %w", err))
	}
	if sub == nil {
		return nil, apperror.ErrKYCNotSubmitted()
	}
	return sub, nil
}
