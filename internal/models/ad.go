package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Ad is one creative/link belonging to exactly one Advertiser. Ads have
// no soft-delete flag: stale rows are hard-deleted during reconciliation.
type Ad struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	AdvertiserID uint64 `gorm:"not null;index"`
	Network      string `gorm:"type:text;not null;uniqueIndex:uniq_ads_network_key,priority:1"`
	NetworkAdID  string `gorm:"type:text;not null;uniqueIndex:uniq_ads_network_key,priority:2"`

	CreativeType   string          `gorm:"type:text;not null;default:banner"`
	TrackingURL    string          `gorm:"type:text;not null"`
	DestinationURL string          `gorm:"type:text"`
	Status         string          `gorm:"type:text;not null;default:active"`
	EPC            decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0"`
	RawHash        string          `gorm:"type:text;not null"`
	RawJSON        datatypes.JSON

	// Rotator fields consumed by the ad-serving side.
	AdvertName   string `gorm:"type:text;not null"`
	BannerCode   string `gorm:"type:text;not null"`
	ImageType    string `gorm:"type:text"`
	ImageURL     string `gorm:"type:text"`
	Width        int    `gorm:"not null;default:0"`
	Height       int    `gorm:"not null;default:0"`
	CampaignName string `gorm:"type:text;not null;default:'General Promotion'"`

	EnableStats  string `gorm:"type:varchar(1);not null;default:Y"`
	ShowEveryone string `gorm:"type:varchar(1);not null;default:Y"`
	ShowDesktop  string `gorm:"type:varchar(1);not null;default:Y"`
	ShowMobile   string `gorm:"type:varchar(1);not null;default:Y"`
	ShowTablet   string `gorm:"type:varchar(1);not null;default:Y"`
	ShowIOS      string `gorm:"column:show_ios;type:varchar(1);not null;default:Y"`
	ShowAndroid  string `gorm:"type:varchar(1);not null;default:Y"`
	AutoDelete   string `gorm:"type:varchar(1);not null;default:Y"`
	AutoDisable  string `gorm:"type:varchar(1);not null;default:N"`

	Budget         decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0"`
	ClickRate      decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0"`
	ImpressionRate decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0"`

	// Geo targeting as PHP-serialized arrays, empty by default.
	StateRequired string `gorm:"type:varchar(1);not null;default:N"`
	GeoCities     string `gorm:"type:text;not null;default:'a:0:{}'"`
	GeoStates     string `gorm:"type:text;not null;default:'a:0:{}'"`
	GeoCountries  string `gorm:"type:text;not null;default:'a:0:{}'"`

	ScheduleStart int64 `gorm:"not null;default:0"`
	ScheduleEnd   int64 `gorm:"not null;default:2650941780"`

	// Dashboard-owned columns; never written by the sync after insert.
	Clicks         int64           `gorm:"not null;default:0"`
	Revenue        decimal.Decimal `gorm:"type:numeric(20,6);not null;default:0"`
	ApprovalStatus string          `gorm:"type:text"`
	ApprovalReason string          `gorm:"type:text"`
	WeightOverride *int

	LastSyncedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Ad) TableName() string {
	return "ads"
}
