package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType classifies a discrete money movement reported by a provider.
type EventType string

const (
	EventTypeDeposit     EventType = "deposit"
	EventTypeWithdrawal  EventType = "withdrawal"
	EventTypeTransferIn  EventType = "transfer_in"
	EventTypeTransferOut EventType = "transfer_out"
	EventTypeFee         EventType = "fee"
	EventTypeRefund      EventType = "refund"
	EventTypeHold        EventType = "hold"
	EventTypeRelease     EventType = "release"
)

// ParseEventType validates a raw event type string.
func ParseEventType(raw string) (EventType, error) {
	switch EventType(raw) {
	case EventTypeDeposit, EventTypeWithdrawal, EventTypeTransferIn,
		EventTypeTransferOut, EventTypeFee, EventTypeRefund,
		EventTypeHold, EventTypeRelease:
		return EventType(raw), nil
	}
	return "", fmt.Errorf("unknown event type: %q", raw)
}

// TransactionEvent is an immutable, append-only record of a provider-reported
// transaction. OccurredAt is event time at the provider; CreatedAt is
// ingestion time. The two are distinct and never conflated.
//
// Uniqueness: by (provider, provider_event_id) when the provider issued a
// natural dedup key, and by idempotency key when supplied.
type TransactionEvent struct {
	ID              uuid.UUID       `json:"id"`
	WalletID        uuid.UUID       `json:"wallet_id"`
	Provider        Provider        `json:"provider"`
	EventType       EventType       `json:"event_type"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	ProviderEventID string          `json:"provider_event_id,omitempty"`
	IdempotencyKey  string          `json:"-"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
	CreatedAt       time.Time       `json:"created_at"`
}
