package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionRegisterWallet    AuditAction = "register_wallet"
	AuditActionSyncBalance       AuditAction = "sync_balance"
	AuditActionIngestWalletEvent AuditAction = "ingest_wallet_event"
	AuditActionUserRegistered    AuditAction = "user_registered"
	AuditActionUserLogin         AuditAction = "user_login"
	AuditActionKYCSubmitted      AuditAction = "kyc_submitted"
	AuditActionKYCReviewed       AuditAction = "kyc_reviewed"
	AuditActionMilestoneHeld     AuditAction = "milestone_held"
	AuditActionMilestoneReleased AuditAction = "milestone_released"
)

// AuditEvent records a single audited state change. Append-only.
type AuditEvent struct {
	ID           uuid.UUID      `json:"id"`
	ActorID      *uuid.UUID     `json:"actor_id,omitempty"`
	Action       AuditAction    `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
