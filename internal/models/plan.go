package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Plan is a purchasable API-access tier. Tag is the stable join key into the
// entitlement catalog; renaming a plan never touches its tag.
type Plan struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"not null;size:100;uniqueIndex" json:"name"`
	Tag          string         `gorm:"not null;size:50;uniqueIndex" json:"tag"`
	Description  string         `gorm:"size:500" json:"description"`
	MonthlyPrice float64        `gorm:"not null" json:"monthly_price"`
	AnnualPrice  float64        `gorm:"not null" json:"annual_price"`
	Features     datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"features"`
	Popular      bool           `gorm:"default:false" json:"popular"`
	Active       bool           `gorm:"default:true" json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
