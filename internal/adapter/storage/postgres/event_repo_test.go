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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent() *domain.TransactionEvent {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.TransactionEvent{
		ID:              uuid.New(),
		WalletID:        uuid.New(),
		Provider:        domain.ProviderLNbits,
		EventType:       domain.EventTypeDeposit,
		Amount:          decimal.RequireFromString("42.01"),
		Currency:        "SAT",
		ProviderEventID: "evt-77",
		IdempotencyKey:  "evt-key-1",
		OccurredAt:      now.Add(-time.Minute),
		CreatedAt:       now,
	}
}

func eventColumnNames() []string {
	return []string{"id", "wallet_id", "provider", "event_type", "amount", "currency",
		"provider_event_id", "idempotency_key", "metadata", "occurred_at", "created_at"}
}

// Amount comes back as text because the query casts it.
func eventRow(event *domain.TransactionEvent) *pgxmock.Rows {
	return pgxmock.NewRows(eventColumnNames()).AddRow(
		event.ID, event.WalletID, string(event.Provider), string(event.EventType),
		event.Amount.String(), event.Currency,
		&event.ProviderEventID, &event.IdempotencyKey, []byte(nil),
		event.OccurredAt, event.CreatedAt,
	)
}

func TestEventRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)
	event := newTestEvent()

	mock.ExpectExec("INSERT INTO transaction_events").
		WithArgs(event.ID, event.WalletID, "LNBITS", "deposit", "42.01", "SAT",
			"evt-77", "evt-key-1", []byte(nil), event.OccurredAt, event.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_Create_UniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)
	event := newTestEvent()

	mock.ExpectExec("INSERT INTO transaction_events").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_event_provider_event_id"})

	err = repo.Create(context.Background(), event)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrDuplicateEntry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_GetByProviderEventID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)
	event := newTestEvent()

	mock.ExpectQuery("SELECT .+ FROM transaction_events\\s+WHERE provider = \\$1 AND provider_event_id = \\$2").
		WithArgs("LNBITS", "evt-77").
		WillReturnRows(eventRow(event))

	result, err := repo.GetByProviderEventID(context.Background(), domain.ProviderLNbits, "evt-77")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, event.ID, result.ID)
	assert.Equal(t, domain.EventTypeDeposit, result.EventType)
	assert.True(t, result.Amount.Equal(decimal.RequireFromString("42.01")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM transaction_events WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(eventColumnNames()))

	result, err := repo.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepo_ListByWalletID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewEventRepo(mock)
	walletID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)

	rows := pgxmock.NewRows(eventColumnNames()).
		AddRow(uuid.New(), walletID, "FINCRA", "withdrawal", "15", "USD",
			(*string)(nil), (*string)(nil), []byte(nil), now, now).
		AddRow(uuid.New(), walletID, "FINCRA", "deposit", "90", "USD",
			(*string)(nil), (*string)(nil), []byte(nil), now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT .+ FROM transaction_events\\s+WHERE wallet_id = \\$1 ORDER BY occurred_at DESC").
		WithArgs(walletID, 50, 0).
		WillReturnRows(rows)

	events, err := repo.ListByWalletID(context.Background(), walletID, 50, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTypeWithdrawal, events[0].EventType)
	assert.Equal(t, domain.EventTypeDeposit, events[1].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
