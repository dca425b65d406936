package models

import (
	"time"

	"github.com/google/uuid"
)

// UpstreamTokenMeta records that a bearer token was minted upstream for a user.
// Only metadata is kept; the raw token value is delivered once by email and the
// upstream token service remains the source of truth for validity.
type UpstreamTokenMeta struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Plan      string    `gorm:"size:100;not null" json:"plan"`
	IssuedAt  time.Time `gorm:"not null" json:"issued_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
