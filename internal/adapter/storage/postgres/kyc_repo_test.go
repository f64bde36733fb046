package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kycColumnNames() []string {
	return []string{"id", "user_id", "document_type", "document_ref", "status",
		"reviewed_by", "created_at", "updated_at"}
}

func TestKYCRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewKYCRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	sub := &domain.KYCSubmission{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		DocumentType: "passport",
		DocumentRef:  "doc-ref-1",
		Status:       domain.KYCStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec("INSERT INTO kyc_submissions").
		WithArgs(sub.ID, sub.UserID, "passport", "doc-ref-1", "PENDING",
			(*uuid.UUID)(nil), now, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), sub))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKYCRepo_Create_DuplicateUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewKYCRepo(mock)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO kyc_submissions").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "kyc_submissions_user_id_key"})

	err = repo.Create(context.Background(), &domain.KYCSubmission{
		ID: uuid.New(), UserID: uuid.New(), DocumentType: "passport",
		DocumentRef: "doc-ref-1", Status: domain.KYCStatusPending,
		CreatedAt: now, UpdatedAt: now,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrDuplicateEntry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKYCRepo_GetByUserID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewKYCRepo(mock)
	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := uuid.New()
	reviewerID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM kyc_submissions WHERE user_id").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(kycColumnNames()).
			AddRow(uuid.New(), userID, "passport", "doc-ref-1", "APPROVED", &reviewerID, now, now))

	sub, err := repo.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, domain.KYCStatusApproved, sub.Status)
	require.NotNil(t, sub.ReviewedBy)
	assert.Equal(t, reviewerID, *sub.ReviewedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKYCRepo_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewKYCRepo(mock)
	id := uuid.New()
	reviewerID := uuid.New()

	mock.ExpectExec("UPDATE kyc_submissions SET status").
		WithArgs("APPROVED", reviewerID, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.UpdateStatus(context.Background(), id, domain.KYCStatusApproved, reviewerID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKYCRepo_UpdateStatus_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewKYCRepo(mock)

	mock.ExpectExec("UPDATE kyc_submissions SET status").
		WithArgs("REJECTED", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateStatus(context.Background(), uuid.New(), domain.KYCStatusRejected, uuid.New())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
