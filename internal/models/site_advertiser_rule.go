package models

import "time"

// SiteAdvertiserRule controls whether a site may show an advertiser's ads.
// The sync only ever inserts rule=default and never overwrites an existing
// row; allowed/denied are set by the dashboard.
type SiteAdvertiserRule struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	SiteID       uint64 `gorm:"not null;uniqueIndex:uniq_site_advertiser,priority:1"`
	AdvertiserID uint64 `gorm:"not null;uniqueIndex:uniq_site_advertiser,priority:2"`
	Rule         string `gorm:"type:text;not null;default:'default'"`
	Reason       string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SiteAdvertiserRule) TableName() string {
	return "site_advertiser_rules"
}
