package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusOpen   ProjectStatus = "OPEN"
	ProjectStatusClosed ProjectStatus = "CLOSED"
)

// Project groups escrow milestones under an owner.
type Project struct {
	ID        uuid.UUID     `json:"id"`
	OwnerID   uuid.UUID     `json:"owner_id"`
	Title     string        `json:"title"`
	Status    ProjectStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// MilestoneStatus is the escrow state of a milestone.
type MilestoneStatus string

const (
	MilestoneStatusPending  MilestoneStatus = "PENDING"
	MilestoneStatusHeld     MilestoneStatus = "HELD"
	MilestoneStatusReleased MilestoneStatus = "RELEASED"
	MilestoneStatusRefunded MilestoneStatus = "REFUNDED"
)

// Milestone is a unit of escrowed work. Funds move pending -> held on escrow
// hold and held -> released (or refunded) on settlement; each transition is
// recorded as a wallet transaction event.
type Milestone struct {
	ID        uuid.UUID       `json:"id"`
	ProjectID uuid.UUID       `json:"project_id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    MilestoneStatus `json:"status"`
	WalletID  *uuid.UUID      `json:"wallet_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
