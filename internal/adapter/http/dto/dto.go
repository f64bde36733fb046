package dto

import "time"

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// RegisterWalletRequest is the request body for wallet registration.
// The idempotency key travels in the X-Idempotency-Key header, not here.
type RegisterWalletRequest struct {
	Provider           string         `json:"provider" binding:"required"`
	ProviderAccountID  string         `json:"provider_account_id" binding:"required,max=255,safe_id"`
	ProviderCustomerID string         `json:"provider_customer_id,omitempty" binding:"omitempty,max=255,safe_id"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// IngestEventRequest is the request body for transaction event ingestion.
// Amount is a decimal string; floats are never accepted on the wire.
type IngestEventRequest struct {
	EventID         string         `json:"event_id,omitempty" binding:"omitempty,uuid"`
	Provider        string         `json:"provider" binding:"required"`
	EventType       string         `json:"event_type" binding:"required"`
	Amount          string         `json:"amount" binding:"required"`
	Currency        string         `json:"currency" binding:"required,len=3"`
	ProviderEventID string         `json:"provider_event_id,omitempty" binding:"omitempty,max=255"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	OccurredAt      time.Time      `json:"occurred_at" binding:"required"`
}

// CreateProjectRequest is the request body for project creation.
type CreateProjectRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
}

// AddMilestoneRequest is the request body for adding a milestone.
type AddMilestoneRequest struct {
	Title    string `json:"title" binding:"required,min=1,max=200"`
	Amount   string `json:"amount" binding:"required"`
	Currency string `json:"currency" binding:"required,len=3"`
}

// HoldMilestoneRequest names the wallet that escrows the milestone funds.
type HoldMilestoneRequest struct {
	WalletID string `json:"wallet_id" binding:"required,uuid"`
}

// SubmitKYCRequest is the request body for a KYC document submission.
type SubmitKYCRequest struct {
	DocumentType string `json:"document_type" binding:"required,max=50,safe_id"`
	DocumentRef  string `json:"document_ref" binding:"required,max=255"`
}

// ReviewKYCRequest is the request body for a KYC review decision.
type ReviewKYCRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	Approved bool   `json:"approved"`
}

// PageQuery holds common pagination query parameters.
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}
