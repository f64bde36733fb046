package postgres

import (
	"errors"
	"testing"

	"escrow-backend/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_wallet_natural_key"}

	err := translateError("insert registration", pgErr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrDuplicateEntry))
	assert.Contains(t, err.Error(), "uq_wallet_natural_key")
}

func TestTranslateError_OtherPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "fk_wallet_user"}

	err := translateError("insert registration", pgErr)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrDuplicateEntry))
}

func TestTranslateError_PlainError(t *testing.T) {
	err := translateError("insert registration", errors.New("connection reset"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ports.ErrDuplicateEntry))
	assert.Contains(t, err.Error(), "insert registration")
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "value", nullIfEmpty("value"))
}

func TestMetadataRoundTrip(t *testing.T) {
	data, err := marshalMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = marshalMetadata(map[string]any{"source": "webhook"})
	require.NoError(t, err)

	m, err := unmarshalMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, "webhook", m["source"])

	m, err = unmarshalMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}
