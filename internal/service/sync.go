package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"adsync/internal/mapper"
	"adsync/internal/models"
	"adsync/internal/network"
	"adsync/internal/repository"
)

// SyncService drives one network end-to-end: fetch advertisers, map and
// upsert each with its ads, then reconcile everything not seen this run.
// All writes of one run share a single transaction; the SyncLog row lives
// outside it so a failed run still records status=failed.
type SyncService struct {
	Store  repository.SyncRepository
	Logger *zap.Logger
}

type SyncOptions struct {
	// SiteDomain scopes rule creation to one site; empty means all
	// active sites.
	SiteDomain string
}

type SyncResult struct {
	Network                string `json:"network"`
	AdvertisersSynced      int    `json:"advertisers_synced"`
	AdsSynced              int    `json:"ads_synced"`
	AdsDeleted             int    `json:"ads_deleted"`
	AdvertisersDeactivated int    `json:"advertisers_deactivated"`
	Errors                 int    `json:"errors"`
}

func (s *SyncService) SyncNetwork(ctx context.Context, client network.Client, opts SyncOptions) (SyncResult, error) {
	result := SyncResult{Network: client.Name()}

	m, err := mapper.Get(client.Name())
	if err != nil {
		return result, err
	}

	sites, err := s.resolveSites(ctx, opts.SiteDomain)
	if err != nil {
		return result, err
	}

	syncLog := &models.SyncLog{
		Network:    client.Name(),
		SiteDomain: opts.SiteDomain,
		Status:     "running",
		StartedAt:  time.Now().UTC(),
	}
	if err := s.Store.CreateSyncLog(ctx, syncLog); err != nil {
		return result, err
	}

	runErr := s.Store.InTx(ctx, func(tx *gorm.DB) error {
		return s.runNetwork(ctx, tx, client, m, sites, &result)
	})

	s.finalizeSyncLog(ctx, syncLog, result, runErr)
	if runErr != nil {
		return result, fmt.Errorf("sync %s: %w", client.Name(), runErr)
	}
	return result, nil
}

func (s *SyncService) runNetwork(ctx context.Context, tx *gorm.DB, client network.Client, m mapper.Mapper, sites []models.Site, result *SyncResult) error {
	advertisers, err := client.FetchAdvertisers(ctx)
	if err != nil {
		return fmt.Errorf("fetch advertisers: %w", err)
	}

	seenAdvertiserIDs := make([]string, 0, len(advertisers))
	for _, rawAdvertiser := range advertisers {
		advertiser, err := m.MapAdvertiser(rawAdvertiser)
		if err != nil {
			result.Errors++
			s.warn("advertiser mapping failed", client.Name(), err)
			continue
		}
		// Each item write runs in a nested transaction: gorm emits a
		// savepoint, so a failed statement rolls back to it instead of
		// aborting the run transaction on Postgres.
		var upserted repository.UpsertResult
		err = tx.Transaction(func(itemTx *gorm.DB) error {
			var txErr error
			upserted, txErr = s.Store.UpsertAdvertiserTx(ctx, itemTx, &advertiser)
			return txErr
		})
		if err != nil {
			result.Errors++
			s.warn("advertiser upsert failed", client.Name(), err)
			continue
		}
		seenAdvertiserIDs = append(seenAdvertiserIDs, advertiser.NetworkAdvertiserID)
		result.AdvertisersSynced++

		for _, site := range sites {
			err := tx.Transaction(func(itemTx *gorm.DB) error {
				return s.Store.EnsureSiteAdvertiserRuleTx(ctx, itemTx, site.ID, upserted.ID)
			})
			if err != nil {
				result.Errors++
				s.warn("site rule creation failed", client.Name(), err)
			}
		}

		if err := s.syncAds(ctx, tx, client, m, advertiser.NetworkAdvertiserID, upserted.ID, result); err != nil {
			result.Errors++
			s.warn("ad sync failed for advertiser", client.Name(), err)
		}
	}

	deactivated, err := s.Store.DeactivateStaleAdvertisersTx(ctx, tx, client.Name(), seenAdvertiserIDs)
	if err != nil {
		return fmt.Errorf("deactivate stale advertisers: %w", err)
	}
	result.AdvertisersDeactivated = int(deactivated)
	return nil
}

func (s *SyncService) syncAds(ctx context.Context, tx *gorm.DB, client network.Client, m mapper.Mapper, networkAdvertiserID string, advertiserID uint64, result *SyncResult) error {
	ads, err := client.FetchAds(ctx, networkAdvertiserID)
	if err != nil {
		return fmt.Errorf("fetch ads for %s: %w", networkAdvertiserID, err)
	}

	seenAdIDs := make([]string, 0, len(ads))
	for _, rawAd := range ads {
		ad, err := m.MapAd(rawAd, advertiserID)
		if err != nil {
			result.Errors++
			s.warn("ad mapping failed", client.Name(), err)
			continue
		}
		err = tx.Transaction(func(itemTx *gorm.DB) error {
			_, txErr := s.Store.UpsertAdTx(ctx, itemTx, &ad)
			return txErr
		})
		if err != nil {
			result.Errors++
			s.warn("ad upsert failed", client.Name(), err)
			continue
		}
		seenAdIDs = append(seenAdIDs, ad.NetworkAdID)
		result.AdsSynced++
	}

	deleted, err := s.Store.DeleteStaleAdsTx(ctx, tx, client.Name(), advertiserID, seenAdIDs)
	if err != nil {
		return fmt.Errorf("delete stale ads for %s: %w", networkAdvertiserID, err)
	}
	result.AdsDeleted += int(deleted)
	return nil
}

func (s *SyncService) resolveSites(ctx context.Context, siteDomain string) ([]models.Site, error) {
	siteDomain = strings.TrimSpace(siteDomain)
	if siteDomain == "" {
		return s.Store.ListActiveSites(ctx)
	}
	site, err := s.Store.GetSiteByDomain(ctx, siteDomain)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("unknown site: %s", siteDomain)
	}
	return []models.Site{*site}, nil
}

func (s *SyncService) finalizeSyncLog(ctx context.Context, syncLog *models.SyncLog, result SyncResult, runErr error) {
	now := time.Now().UTC()
	syncLog.CompletedAt = &now
	syncLog.DurationMS = now.Sub(syncLog.StartedAt).Milliseconds()
	syncLog.AdvertisersSynced = result.AdvertisersSynced
	syncLog.AdsSynced = result.AdsSynced
	syncLog.AdsDeleted = result.AdsDeleted
	syncLog.AdvertisersDeactivated = result.AdvertisersDeactivated
	syncLog.Errors = result.Errors
	if runErr != nil {
		syncLog.Status = "failed"
		syncLog.ErrorMessage = runErr.Error()
	} else {
		syncLog.Status = "success"
	}
	if err := s.Store.UpdateSyncLog(ctx, syncLog); err != nil {
		s.warn("sync log update failed", syncLog.Network, err)
	}
}

// SyncAll runs every configured client serially. A failed network is
// logged and skipped; the batch never halts.
func (s *SyncService) SyncAll(ctx context.Context, clients []network.Client, opts SyncOptions) []SyncResult {
	results := make([]SyncResult, 0, len(clients))
	for _, client := range clients {
		if ctx.Err() != nil {
			break
		}
		result, err := s.SyncNetwork(ctx, client, opts)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Error("network sync failed",
					zap.String("network", client.Name()),
					zap.Error(err))
			}
		} else if s.Logger != nil {
			s.Logger.Info("network sync complete",
				zap.String("network", client.Name()),
				zap.Int("advertisers_synced", result.AdvertisersSynced),
				zap.Int("ads_synced", result.AdsSynced),
				zap.Int("ads_deleted", result.AdsDeleted),
				zap.Int("advertisers_deactivated", result.AdvertisersDeactivated),
				zap.Int("errors", result.Errors))
		}
		results = append(results, result)
	}
	return results
}

func (s *SyncService) warn(msg, networkName string, err error) {
	if s.Logger != nil {
		s.Logger.Warn(msg, zap.String("network", networkName), zap.Error(err))
	}
}
