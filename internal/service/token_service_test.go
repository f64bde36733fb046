package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-please-rotate", time.Hour, "escrow-backend")
	userID := uuid.New()

	token, expiry, err := svc.Generate(userID, "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestJWTTokenService_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTTokenService("secret-a", time.Hour, "escrow-backend")
	verifier := NewJWTTokenService("secret-b", time.Hour, "escrow-backend")

	token, _, err := issuer.Generate(uuid.New(), "alice@example.com")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
}

func TestJWTTokenService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTTokenService("test-secret-please-rotate", -time.Minute, "escrow-backend")

	token, _, err := svc.Generate(uuid.New(), "alice@example.com")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
}

func TestJWTTokenService_RejectsGarbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-please-rotate", time.Hour, "escrow-backend")

	_, err := svc.Validate("not.a.jwt")
	require.Error(t, err)
}
