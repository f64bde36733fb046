package service

import (
	"context"
	"testing"
	"time"

	"escrow-backend/internal/core/domain"
	"escrow-backend/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture() (*AuthServiceImpl, *fakeAuditRecorder) {
	audit := &fakeAuditRecorder{}
	hashSvc := NewArgon2HashService()
	tokenSvc := NewJWTTokenService("test-secret-please-rotate", time.Hour, "escrow-backend")
	return NewAuthService(&fakeUserRepo{}, hashSvc, tokenSvc, audit, zerolog.Nop()), audit
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, audit := newAuthFixture()

	user, err := svc.Register(context.Background(), "  Alice@Example.COM ", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.Equal(t, 1, audit.countAction(domain.AuditActionUserRegistered))

	token, expiry, err := svc.Login(context.Background(), "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiry.After(time.Now()))
	assert.Equal(t, 1, audit.countAction(domain.AuditActionUserLogin))
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "ALICE@example.com", "another password")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_002", appErr.Code)
}

func TestAuthService_Register_ShortPassword(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), "alice@example.com", "short")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_002", appErr.Code)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), "alice@example.com", "correct horse battery")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alice@example.com", "wrong password")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_001", appErr.Code)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc, _ := newAuthFixture()

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever password")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_001", appErr.Code)
}
