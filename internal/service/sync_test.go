package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"adsync/internal/models"
	"adsync/internal/network"
	"adsync/internal/repository"
	gormrepository "adsync/internal/repository/gorm"
)

type stubClient struct {
	name        string
	advertisers []network.Raw
	adsByRef    map[string][]network.Raw
	advErr      error
}

func (c *stubClient) Name() string { return c.name }

func (c *stubClient) FetchAdvertisers(ctx context.Context) ([]network.Raw, error) {
	return c.advertisers, c.advErr
}

func (c *stubClient) FetchAds(ctx context.Context, advertiserRef string) ([]network.Raw, error) {
	return c.adsByRef[advertiserRef], nil
}

func (c *stubClient) Close() error { return nil }

func newTestService(t *testing.T) (*SyncService, repository.SyncRepository, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(
		&models.Site{},
		&models.Advertiser{},
		&models.Ad{},
		&models.SiteAdvertiserRule{},
		&models.SyncLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := gormrepository.New(gdb)
	return &SyncService{Store: store}, store, gdb
}

func impactCampaign(id, name string) network.Raw {
	return network.Raw{
		"CampaignId":     id,
		"CampaignName":   name,
		"ContractStatus": "Active",
	}
}

func impactAd(id, campaignID string) network.Raw {
	return network.Raw{
		"Id":           id,
		"CampaignId":   campaignID,
		"Name":         "Offer " + id,
		"Type":         "TEXT",
		"TrackingLink": "https://track/" + id,
	}
}

func TestSyncNetworkEndToEnd(t *testing.T) {
	svc, store, gdb := newTestService(t)
	ctx := context.Background()

	site := &models.Site{Name: "Deals", Domain: "deals.example", IsActive: true}
	if err := gdb.Create(site).Error; err != nil {
		t.Fatalf("create site: %v", err)
	}

	client := &stubClient{
		name: "impact",
		advertisers: []network.Raw{
			impactCampaign("10", "Campaign Ten"),
			impactCampaign("20", "Campaign Twenty"),
		},
		adsByRef: map[string][]network.Raw{
			"10": {impactAd("a1", "10"), impactAd("a2", "10")},
			"20": {impactAd("b1", "20")},
		},
	}

	result, err := svc.SyncNetwork(ctx, client, SyncOptions{})
	if err != nil {
		t.Fatalf("SyncNetwork: %v", err)
	}
	if result.AdvertisersSynced != 2 || result.AdsSynced != 3 {
		t.Fatalf("result = %+v", result)
	}
	if result.Errors != 0 || result.AdsDeleted != 0 || result.AdvertisersDeactivated != 0 {
		t.Fatalf("result = %+v", result)
	}

	var rules int64
	if err := gdb.Model(&models.SiteAdvertiserRule{}).Count(&rules).Error; err != nil {
		t.Fatalf("count rules: %v", err)
	}
	if rules != 2 {
		t.Fatalf("rules = %d, want one per advertiser", rules)
	}

	logs, err := store.ListSyncLogs(ctx, repository.ListSyncLogsParams{})
	if err != nil {
		t.Fatalf("ListSyncLogs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("logs = %d, want 1", len(logs))
	}
	if logs[0].Status != "success" || logs[0].AdvertisersSynced != 2 || logs[0].AdsSynced != 3 {
		t.Fatalf("log = %+v", logs[0])
	}
	if logs[0].CompletedAt == nil {
		t.Fatal("log completed_at not set")
	}
}

func TestSyncNetworkReconcilesStaleRows(t *testing.T) {
	svc, _, gdb := newTestService(t)
	ctx := context.Background()

	client := &stubClient{
		name: "impact",
		advertisers: []network.Raw{
			impactCampaign("10", "Campaign Ten"),
			impactCampaign("20", "Campaign Twenty"),
		},
		adsByRef: map[string][]network.Raw{
			"10": {impactAd("a1", "10"), impactAd("a2", "10")},
			"20": {impactAd("b1", "20")},
		},
	}
	if _, err := svc.SyncNetwork(ctx, client, SyncOptions{}); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// Second run: advertiser 20 and ad a2 disappear upstream.
	client.advertisers = []network.Raw{impactCampaign("10", "Campaign Ten")}
	client.adsByRef = map[string][]network.Raw{
		"10": {impactAd("a1", "10")},
	}

	result, err := svc.SyncNetwork(ctx, client, SyncOptions{})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.AdsDeleted != 1 {
		t.Fatalf("AdsDeleted = %d, want 1", result.AdsDeleted)
	}
	if result.AdvertisersDeactivated != 1 {
		t.Fatalf("AdvertisersDeactivated = %d, want 1", result.AdvertisersDeactivated)
	}

	var stale models.Advertiser
	if err := gdb.Where("network_advertiser_id = ?", "20").First(&stale).Error; err != nil {
		t.Fatalf("load advertiser 20: %v", err)
	}
	if stale.IsActive {
		t.Fatal("advertiser 20 should be deactivated, not deleted")
	}

	// Deactivation keeps the advertiser's ads: only ad-level staleness
	// within a fetched advertiser deletes rows.
	var staleAds int64
	if err := gdb.Model(&models.Ad{}).Where("advertiser_id = ?", stale.ID).Count(&staleAds).Error; err != nil {
		t.Fatalf("count ads: %v", err)
	}
	if staleAds != 1 {
		t.Fatalf("ads of deactivated advertiser = %d, want 1 kept", staleAds)
	}
}

func TestSyncNetworkFetchFailureRecordsFailedLog(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	client := &stubClient{
		name:   "impact",
		advErr: errors.New("upstream down"),
	}

	_, err := svc.SyncNetwork(ctx, client, SyncOptions{})
	if err == nil {
		t.Fatal("expected error")
	}

	logs, lerr := store.ListSyncLogs(ctx, repository.ListSyncLogsParams{})
	if lerr != nil {
		t.Fatalf("ListSyncLogs: %v", lerr)
	}
	if len(logs) != 1 || logs[0].Status != "failed" {
		t.Fatalf("logs = %+v", logs)
	}
	if logs[0].ErrorMessage == "" {
		t.Fatal("failed log should carry the error message")
	}
}

func TestSyncNetworkSkipsBadRecords(t *testing.T) {
	svc, _, gdb := newTestService(t)
	ctx := context.Background()

	client := &stubClient{
		name: "impact",
		advertisers: []network.Raw{
			network.Raw{"CampaignName": "No ID"},
			impactCampaign("10", "Campaign Ten"),
		},
		adsByRef: map[string][]network.Raw{
			"10": {network.Raw{"Type": "TEXT"}, impactAd("a1", "10")},
		},
	}

	result, err := svc.SyncNetwork(ctx, client, SyncOptions{})
	if err != nil {
		t.Fatalf("SyncNetwork: %v", err)
	}
	if result.AdvertisersSynced != 1 || result.AdsSynced != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Errors != 2 {
		t.Fatalf("Errors = %d, want 2", result.Errors)
	}

	var advertisers int64
	if err := gdb.Model(&models.Advertiser{}).Count(&advertisers).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if advertisers != 1 {
		t.Fatalf("advertisers = %d, want 1", advertisers)
	}
}

func TestSyncNetworkIsolatesFailedWrites(t *testing.T) {
	svc, store, gdb := newTestService(t)
	ctx := context.Background()

	// Drop the ads table so every ad write fails at the statement level,
	// not just in mapping.
	if err := gdb.Migrator().DropTable(&models.Ad{}); err != nil {
		t.Fatalf("drop ads table: %v", err)
	}

	client := &stubClient{
		name:        "impact",
		advertisers: []network.Raw{impactCampaign("10", "Campaign Ten")},
		adsByRef: map[string][]network.Raw{
			"10": {impactAd("a1", "10"), impactAd("a2", "10")},
		},
	}

	result, err := svc.SyncNetwork(ctx, client, SyncOptions{})
	if err != nil {
		t.Fatalf("SyncNetwork: %v", err)
	}
	if result.AdvertisersSynced != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Errors != 2 {
		t.Fatalf("Errors = %d, want one per failed ad write", result.Errors)
	}

	// The run transaction must survive the failed statements and commit
	// the advertiser.
	var advertisers int64
	if err := gdb.Model(&models.Advertiser{}).Count(&advertisers).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if advertisers != 1 {
		t.Fatalf("advertisers = %d, want 1 committed", advertisers)
	}

	logs, err := store.ListSyncLogs(ctx, repository.ListSyncLogsParams{})
	if err != nil {
		t.Fatalf("ListSyncLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Status != "success" || logs[0].Errors != 2 {
		t.Fatalf("logs = %+v", logs)
	}
}

func TestSyncNetworkUnknownNetwork(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	client := &stubClient{name: "shareasale"}
	if _, err := svc.SyncNetwork(ctx, client, SyncOptions{}); err == nil {
		t.Fatal("expected error for unknown network")
	}

	logs, err := store.ListSyncLogs(ctx, repository.ListSyncLogsParams{})
	if err != nil {
		t.Fatalf("ListSyncLogs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatal("unknown network must not create a sync log")
	}
}

func TestSyncNetworkUnknownSiteDomain(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	client := &stubClient{name: "impact"}
	_, err := svc.SyncNetwork(ctx, client, SyncOptions{SiteDomain: "nope.example"})
	if err == nil {
		t.Fatal("expected error for unknown site domain")
	}
}

func TestSyncAllContinuesPastFailure(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	broken := &stubClient{name: "impact", advErr: errors.New("down")}
	working := &stubClient{
		name:        "impact",
		advertisers: []network.Raw{impactCampaign("10", "Campaign Ten")},
		adsByRef:    map[string][]network.Raw{"10": {impactAd("a1", "10")}},
	}

	results := svc.SyncAll(ctx, []network.Client{broken, working}, SyncOptions{})
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[1].AdvertisersSynced != 1 {
		t.Fatalf("second network result = %+v", results[1])
	}
}
