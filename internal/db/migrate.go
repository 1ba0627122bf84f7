package db

import (
	"adsync/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Site{},
		&models.Advertiser{},
		&models.Ad{},
		&models.SiteAdvertiserRule{},
		&models.SyncLog{},
	)
}
