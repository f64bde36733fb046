package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletRegistration ties a user to an account held at an external provider.
// At most one registration exists per (user, provider, provider_account_id),
// and at most one per idempotency key when the caller supplied one.
// Identity fields are immutable after creation; deactivation is a flag flip,
// never a delete.
type WalletRegistration struct {
	ID                 uuid.UUID      `json:"id"`
	UserID             uuid.UUID      `json:"user_id"`
	Provider           Provider       `json:"provider"`
	ProviderAccountID  string         `json:"provider_account_id"`
	ProviderCustomerID string         `json:"provider_customer_id,omitempty"`
	IdempotencyKey     string         `json:"-"`
	Metadata           map[string]any `json:"metadata,omitempty"`
	IsActive           bool           `json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
