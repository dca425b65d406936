package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"

	BillingMonthly = "monthly"
	BillingAnnual  = "annual"
)

// Subscription snapshots plan name and price at creation time so later plan
// edits never change what a user is billed. The partial unique index is what
// actually enforces the one-active-subscription-per-user invariant; the
// application-level pre-check only gives nicer error messages.
type Subscription struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_one_active_subscription,where:status = 'active'" json:"user_id"`
	PlanID      uuid.UUID `gorm:"type:uuid;not null;index" json:"plan_id"`
	PlanName    string    `gorm:"size:100;not null" json:"plan_name"`
	BillingType string    `gorm:"size:20;not null" json:"billing_type"`
	Price       float64   `gorm:"not null" json:"price"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	Status      string    `gorm:"size:20;not null;default:'active';index" json:"status"`
	AutoRenew   bool      `gorm:"default:true" json:"auto_renew"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
