package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Advertiser is one merchant/program synced from an affiliate network.
// is_active is the sync-owned soft-delete flag; status mirrors the
// network-reported program state (active|paused).
type Advertiser struct {
	ID                  uint64          `gorm:"primaryKey;autoIncrement"`
	Network             string          `gorm:"type:text;not null;uniqueIndex:uniq_advertisers_network_key,priority:1"`
	NetworkAdvertiserID string          `gorm:"type:text;not null;uniqueIndex:uniq_advertisers_network_key,priority:2"`
	Name                string          `gorm:"type:text;not null"`
	WebsiteURL          string          `gorm:"type:text"`
	Category            string          `gorm:"type:text"`
	EPC                 decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0"`
	Status              string          `gorm:"type:text;not null;default:active"`
	IsActive            bool            `gorm:"not null;default:true"`
	RawHash             string          `gorm:"type:text;not null"`
	RawJSON             datatypes.JSON

	// Dashboard-owned columns; the sync never writes these after insert.
	CommissionRate decimal.Decimal `gorm:"type:numeric(10,4);not null;default:0"`
	TotalClicks    int64           `gorm:"not null;default:0"`
	TotalRevenue   decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0"`
	DefaultWeight  int             `gorm:"not null;default:6"`

	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Advertiser) TableName() string {
	return "advertisers"
}
