package service

import (
	"context"
	"testing"

	"escrow-backend/internal/core/domain"
	"escrow-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKYCFixture() (*KYCServiceImpl, *fakeAuditRecorder) {
	audit := &fakeAuditRecorder{}
	return NewKYCService(&fakeKYCRepo{}, audit, zerolog.Nop()), audit
}

func TestKYCService_Submit(t *testing.T) {
	svc, audit := newKYCFixture()
	userID := uuid.New()

	sub, err := svc.Submit(context.Background(), userID, "passport", "doc-ref-1")
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusPending, sub.Status)
	assert.Equal(t, 1, audit.countAction(domain.AuditActionKYCSubmitted))

	// Re-submitting returns the existing record, even with a new document.
	again, err := svc.Submit(context.Background(), userID, "drivers_license", "doc-ref-2")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID)
	assert.Equal(t, "passport", again.DocumentType)
	assert.Equal(t, 1, audit.countAction(domain.AuditActionKYCSubmitted))
}

func TestKYCService_Submit_Validation(t *testing.T) {
	svc, _ := newKYCFixture()

	_, err := svc.Submit(context.Background(), uuid.New(), "", "doc-ref-1")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_002", appErr.Code)
}

func TestKYCService_Review(t *testing.T) {
	svc, audit := newKYCFixture()
	userID := uuid.New()
	reviewerID := uuid.New()

	_, err := svc.Submit(context.Background(), userID, "passport", "doc-ref-1")
	require.NoError(t, err)

	approved, err := svc.Review(context.Background(), userID, true, reviewerID)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, reviewerID, *approved.ReviewedBy)
	assert.Equal(t, 1, audit.countAction(domain.AuditActionKYCReviewed))

	got, err := svc.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusApproved, got.Status)
}

func TestKYCService_Review_Reject(t *testing.T) {
	svc, _ := newKYCFixture()
	userID := uuid.New()

	_, err := svc.Submit(context.Background(), userID, "passport", "doc-ref-1")
	require.NoError(t, err)

	rejected, err := svc.Review(context.Background(), userID, false, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, domain.KYCStatusRejected, rejected.Status)
}

func TestKYCService_Review_WithoutSubmission(t *testing.T) {
	svc, _ := newKYCFixture()

	_, err := svc.Review(context.Background(), uuid.New(), true, uuid.New())
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "KYC_001", appErr.Code)
}
