package models

import "time"

// Site is an external consumer property permitted to display synced ads.
// Rows are managed elsewhere; the sync only reads them for rule bootstrapping.
type Site struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"type:text;not null"`
	Domain       string `gorm:"type:text;not null;uniqueIndex"`
	WordpressURL string `gorm:"type:text"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Site) TableName() string {
	return "sites"
}
