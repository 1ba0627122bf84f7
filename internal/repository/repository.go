package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"adsync/internal/models"
)

// UpsertResult reports the row id a record landed on and whether any
// write happened. Changed is false when the stored raw_hash already
// matched, in which case the row was not touched at all.
type UpsertResult struct {
	ID      uint64
	Changed bool
}

// SyncRepository is the storage surface of the sync pipeline. All
// mutating operations of one network run execute inside a single InTx
// transaction; the *Tx methods take the transaction handle the
// orchestrator owns.
type SyncRepository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	GetAdvertiserByKeyTx(ctx context.Context, tx *gorm.DB, network, networkAdvertiserID string) (*models.Advertiser, error)
	UpsertAdvertiserTx(ctx context.Context, tx *gorm.DB, item *models.Advertiser) (UpsertResult, error)
	GetAdByKeyTx(ctx context.Context, tx *gorm.DB, network, networkAdID string) (*models.Ad, error)
	UpsertAdTx(ctx context.Context, tx *gorm.DB, item *models.Ad) (UpsertResult, error)
	EnsureSiteAdvertiserRuleTx(ctx context.Context, tx *gorm.DB, siteID, advertiserID uint64) error
	DeleteStaleAdsTx(ctx context.Context, tx *gorm.DB, network string, advertiserID uint64, seenAdIDs []string) (int64, error)
	DeactivateStaleAdvertisersTx(ctx context.Context, tx *gorm.DB, network string, seenAdvertiserIDs []string) (int64, error)

	ListActiveSites(ctx context.Context) ([]models.Site, error)
	GetSiteByDomain(ctx context.Context, domain string) (*models.Site, error)

	CreateSyncLog(ctx context.Context, item *models.SyncLog) error
	UpdateSyncLog(ctx context.Context, item *models.SyncLog) error
	ListSyncLogs(ctx context.Context, params ListSyncLogsParams) ([]models.SyncLog, error)
	CountSyncLogs(ctx context.Context, params ListSyncLogsParams) (int64, error)

	ListAdvertisers(ctx context.Context, params ListAdvertisersParams) ([]models.Advertiser, error)
	CountAdvertisers(ctx context.Context, params ListAdvertisersParams) (int64, error)
	ListAds(ctx context.Context, params ListAdsParams) ([]models.Ad, error)
	CountAds(ctx context.Context, params ListAdsParams) (int64, error)
}

type ListSyncLogsParams struct {
	Limit   int
	Offset  int
	Network *string
	Status  *string
	Since   *time.Time
}

type ListAdvertisersParams struct {
	Limit    int
	Offset   int
	Network  *string
	Status   *string
	IsActive *bool
	Name     *string
	OrderBy  string
	Asc      *bool
}

type ListAdsParams struct {
	Limit        int
	Offset       int
	Network      *string
	AdvertiserID *uint64
	CreativeType *string
	Status       *string
	OrderBy      string
	Asc          *bool
}
