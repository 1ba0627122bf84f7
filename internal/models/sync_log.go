package models

import "time"

// SyncLog is one orchestrator run: created as running, finalized exactly
// once as success or failed.
type SyncLog struct {
	ID                     uint64 `gorm:"primaryKey;autoIncrement"`
	Network                string `gorm:"type:text;not null;index"`
	SiteDomain             string `gorm:"type:text"`
	Status                 string `gorm:"type:text;not null;default:running"`
	AdvertisersSynced      int    `gorm:"not null;default:0"`
	AdsSynced              int    `gorm:"not null;default:0"`
	AdsDeleted             int    `gorm:"not null;default:0"`
	AdvertisersDeactivated int    `gorm:"not null;default:0"`
	Errors                 int    `gorm:"not null;default:0"`
	ErrorMessage           string `gorm:"type:text"`
	StartedAt              time.Time
	CompletedAt            *time.Time
	DurationMS             int64 `gorm:"not null;default:0"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}
