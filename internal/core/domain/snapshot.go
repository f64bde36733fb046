package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BalanceSnapshot is an immutable, point-in-time observation of a wallet's
// balance at its provider. A new balance always creates a new snapshot;
// snapshots are never updated in place.
//
// Uniqueness: by idempotency key when supplied, by external_balance_id when
// the provider issued one, and by (wallet_id, as_of).
type BalanceSnapshot struct {
	ID                uuid.UUID       `json:"id"`
	WalletID          uuid.UUID       `json:"wallet_id"`
	Provider          Provider        `json:"provider"`
	Balance           decimal.Decimal `json:"balance"`
	Currency          string          `json:"currency"`
	ExternalBalanceID string          `json:"external_balance_id,omitempty"`
	IdempotencyKey    string          `json:"-"`
	AsOf              time.Time       `json:"as_of"`
	Metadata          map[string]any  `json:"metadata,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// SameObservation reports whether a fresh provider reading carries no new
// information compared to this snapshot. Currency comparison is exact
// ISO 4217 string equality.
func (s *BalanceSnapshot) SameObservation(balance decimal.Decimal, currency string) bool {
	return s.Balance.Equal(balance) && s.Currency == currency
}
