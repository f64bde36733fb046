package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Passwords are stored as Argon2id hashes.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// KYCStatus is the review state of a KYC submission.
type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "PENDING"
	KYCStatusApproved KYCStatus = "APPROVED"
	KYCStatusRejected KYCStatus = "REJECTED"
)

// KYCSubmission holds a user's identity-verification document reference.
// One submission per user; re-submits return the existing record.
type KYCSubmission struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	DocumentType string     `json:"document_type"`
	DocumentRef  string     `json:"document_ref"`
	Status       KYCStatus  `json:"status"`
	ReviewedBy   *uuid.UUID `json:"reviewed_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
