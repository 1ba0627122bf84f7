package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"adsync/internal/models"
	"adsync/internal/repository"
)

// Store is the gorm adapter behind repository.SyncRepository. The same
// adapter serves Postgres and SQLite; the backend is chosen at db.Open.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- advertisers ------------------------------------------------------------

var advertiserUpdateColumns = []string{
	"name",
	"website_url",
	"category",
	"epc",
	"status",
	"raw_hash",
	"raw_json",
	"is_active",
	"last_synced_at",
	"updated_at",
}

func (s *Store) GetAdvertiserByKeyTx(ctx context.Context, tx *gorm.DB, network, networkAdvertiserID string) (*models.Advertiser, error) {
	var item models.Advertiser
	err := tx.WithContext(ctx).
		Where("network = ? AND network_advertiser_id = ?", network, networkAdvertiserID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertAdvertiserTx performs the hash-gated insert-or-update. An equal
// raw_hash skips the write entirely, timestamp included.
func (s *Store) UpsertAdvertiserTx(ctx context.Context, tx *gorm.DB, item *models.Advertiser) (repository.UpsertResult, error) {
	existing, err := s.GetAdvertiserByKeyTx(ctx, tx, item.Network, item.NetworkAdvertiserID)
	if err != nil {
		return repository.UpsertResult{}, err
	}
	if existing != nil && existing.RawHash == item.RawHash {
		return repository.UpsertResult{ID: existing.ID, Changed: false}, nil
	}

	item.IsActive = true
	item.LastSyncedAt = time.Now().UTC()
	err = tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "network"}, {Name: "network_advertiser_id"}},
		DoUpdates: clause.AssignmentColumns(advertiserUpdateColumns),
	}).Create(item).Error
	if err != nil {
		return repository.UpsertResult{}, err
	}

	// On conflict-update the Create does not report the surviving row id;
	// re-read by key.
	saved, err := s.GetAdvertiserByKeyTx(ctx, tx, item.Network, item.NetworkAdvertiserID)
	if err != nil {
		return repository.UpsertResult{}, err
	}
	if saved == nil {
		return repository.UpsertResult{}, gorm.ErrRecordNotFound
	}
	return repository.UpsertResult{ID: saved.ID, Changed: true}, nil
}

// --- ads --------------------------------------------------------------------

var adUpdateColumns = []string{
	"advertiser_id",
	"creative_type",
	"tracking_url",
	"destination_url",
	"status",
	"epc",
	"raw_hash",
	"raw_json",
	"advert_name",
	"banner_code",
	"image_type",
	"image_url",
	"width",
	"height",
	"campaign_name",
	"enable_stats",
	"show_everyone",
	"show_desktop",
	"show_mobile",
	"show_tablet",
	"show_ios",
	"show_android",
	"auto_delete",
	"auto_disable",
	"budget",
	"click_rate",
	"impression_rate",
	"state_required",
	"geo_cities",
	"geo_states",
	"geo_countries",
	"schedule_start",
	"schedule_end",
	"last_synced_at",
	"updated_at",
}

func (s *Store) GetAdByKeyTx(ctx context.Context, tx *gorm.DB, network, networkAdID string) (*models.Ad, error) {
	var item models.Ad
	err := tx.WithContext(ctx).
		Where("network = ? AND network_ad_id = ?", network, networkAdID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertAdTx(ctx context.Context, tx *gorm.DB, item *models.Ad) (repository.UpsertResult, error) {
	existing, err := s.GetAdByKeyTx(ctx, tx, item.Network, item.NetworkAdID)
	if err != nil {
		return repository.UpsertResult{}, err
	}
	if existing != nil && existing.RawHash == item.RawHash {
		return repository.UpsertResult{ID: existing.ID, Changed: false}, nil
	}

	item.LastSyncedAt = time.Now().UTC()
	err = tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "network"}, {Name: "network_ad_id"}},
		DoUpdates: clause.AssignmentColumns(adUpdateColumns),
	}).Create(item).Error
	if err != nil {
		return repository.UpsertResult{}, err
	}

	saved, err := s.GetAdByKeyTx(ctx, tx, item.Network, item.NetworkAdID)
	if err != nil {
		return repository.UpsertResult{}, err
	}
	if saved == nil {
		return repository.UpsertResult{}, gorm.ErrRecordNotFound
	}
	return repository.UpsertResult{ID: saved.ID, Changed: true}, nil
}

// --- site advertiser rules --------------------------------------------------

// EnsureSiteAdvertiserRuleTx inserts a default rule only when the pair
// has none. Existing rows (including allowed/denied set by the
// dashboard) are never overwritten.
func (s *Store) EnsureSiteAdvertiserRuleTx(ctx context.Context, tx *gorm.DB, siteID, advertiserID uint64) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site_id"}, {Name: "advertiser_id"}},
		DoNothing: true,
	}).Create(&models.SiteAdvertiserRule{
		SiteID:       siteID,
		AdvertiserID: advertiserID,
		Rule:         "default",
	}).Error
}

// --- stale reconciliation ---------------------------------------------------

// DeleteStaleAdsTx hard-deletes an advertiser's ads absent from seenAdIDs.
// An empty seen set no-ops: it usually signals an upstream fetch failure,
// never a wipe request.
func (s *Store) DeleteStaleAdsTx(ctx context.Context, tx *gorm.DB, network string, advertiserID uint64, seenAdIDs []string) (int64, error) {
	if len(seenAdIDs) == 0 {
		return 0, nil
	}
	res := tx.WithContext(ctx).
		Where("network = ?", network).
		Where("advertiser_id = ?", advertiserID).
		Where("network_ad_id NOT IN ?", seenAdIDs).
		Delete(&models.Ad{})
	return res.RowsAffected, res.Error
}

// DeactivateStaleAdvertisersTx soft-deletes a network's active
// advertisers absent from seenAdvertiserIDs, with the same empty-set
// guard.
func (s *Store) DeactivateStaleAdvertisersTx(ctx context.Context, tx *gorm.DB, network string, seenAdvertiserIDs []string) (int64, error) {
	if len(seenAdvertiserIDs) == 0 {
		return 0, nil
	}
	res := tx.WithContext(ctx).
		Model(&models.Advertiser{}).
		Where("network = ?", network).
		Where("is_active = ?", true).
		Where("network_advertiser_id NOT IN ?", seenAdvertiserIDs).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// --- sites ------------------------------------------------------------------

func (s *Store) ListActiveSites(ctx context.Context) ([]models.Site, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Site
	if err := s.db.WithContext(ctx).
		Model(&models.Site{}).
		Where("is_active = ?", true).
		Order("domain asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetSiteByDomain(ctx context.Context, domain string) (*models.Site, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, nil
	}
	var item models.Site
	err := s.db.WithContext(ctx).Model(&models.Site{}).Where("domain = ?", domain).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// --- sync logs --------------------------------------------------------------

func (s *Store) CreateSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil || item.ID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) ListSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applySyncLogFilters(ctx, params)
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.SyncLog
	if err := query.Order("started_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.applySyncLogFilters(ctx, params).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) applySyncLogFilters(ctx context.Context, params repository.ListSyncLogsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.SyncLog{})
	if params.Network != nil && strings.TrimSpace(*params.Network) != "" {
		query = query.Where("network = ?", strings.TrimSpace(*params.Network))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("started_at >= ?", *params.Since)
	}
	return query
}

// --- catalog queries --------------------------------------------------------

func (s *Store) ListAdvertisers(ctx context.Context, params repository.ListAdvertisersParams) ([]models.Advertiser, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyAdvertiserFilters(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "name")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Advertiser
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAdvertisers(ctx context.Context, params repository.ListAdvertisersParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.applyAdvertiserFilters(ctx, params).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) applyAdvertiserFilters(ctx context.Context, params repository.ListAdvertisersParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Advertiser{})
	if params.Network != nil && strings.TrimSpace(*params.Network) != "" {
		query = query.Where("network = ?", strings.TrimSpace(*params.Network))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.IsActive != nil {
		query = query.Where("is_active = ?", *params.IsActive)
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) != "" {
		query = query.Where("name LIKE ?", "%"+strings.TrimSpace(*params.Name)+"%")
	}
	return query
}

func (s *Store) ListAds(ctx context.Context, params repository.ListAdsParams) ([]models.Ad, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyAdFilters(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "id")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Ad
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAds(ctx context.Context, params repository.ListAdsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.applyAdFilters(ctx, params).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) applyAdFilters(ctx context.Context, params repository.ListAdsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Ad{})
	if params.Network != nil && strings.TrimSpace(*params.Network) != "" {
		query = query.Where("network = ?", strings.TrimSpace(*params.Network))
	}
	if params.AdvertiserID != nil && *params.AdvertiserID > 0 {
		query = query.Where("advertiser_id = ?", *params.AdvertiserID)
	}
	if params.CreativeType != nil && strings.TrimSpace(*params.CreativeType) != "" {
		query = query.Where("creative_type = ?", strings.TrimSpace(*params.CreativeType))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	return query
}

// --- shared helpers ---------------------------------------------------------

var allowedOrderColumns = map[string]struct{}{
	"id":             {},
	"name":           {},
	"network":        {},
	"status":         {},
	"epc":            {},
	"width":          {},
	"height":         {},
	"started_at":     {},
	"last_synced_at": {},
	"created_at":     {},
	"updated_at":     {},
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(strings.ToLower(orderBy))
	if _, ok := allowedOrderColumns[column]; !ok {
		column = fallback
	}
	direction := "asc"
	if asc != nil && !*asc {
		direction = "desc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 || limit > 1000 {
		return fallback
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
