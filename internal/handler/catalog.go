package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"adsync/internal/repository"
)

// CatalogHandler exposes the synced advertiser and ad catalog.
type CatalogHandler struct {
	Store  repository.SyncRepository
	Logger *zap.Logger
}

func (h *CatalogHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.GET("/advertisers", h.listAdvertisers)
	group.GET("/ads", h.listAds)
}

func (h *CatalogHandler) listAdvertisers(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListAdvertisersParams{
		Limit:    limit,
		Offset:   offset,
		Network:  strQueryPtr(c, "network"),
		Status:   strQueryPtr(c, "status"),
		IsActive: boolQueryPtr(c, "is_active"),
		Name:     strQueryPtr(c, "name"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"name":           "name",
			"epc":            "epc",
			"last_synced_at": "last_synced_at",
			"created_at":     "created_at",
		}),
		Asc: boolQueryPtr(c, "ascending"),
	}

	items, err := h.Store.ListAdvertisers(c.Request.Context(), params)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list advertisers failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	total, err := h.Store.CountAdvertisers(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *CatalogHandler) listAds(c *gin.Context) {
	if h.Store == nil {
		Error(c, http.StatusInternalServerError, "store unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListAdsParams{
		Limit:        limit,
		Offset:       offset,
		Network:      strQueryPtr(c, "network"),
		AdvertiserID: uintQueryPtr(c, "advertiser_id"),
		CreativeType: strQueryPtr(c, "creative_type"),
		Status:       strQueryPtr(c, "status"),
		OrderBy: parseOrder(c.Query("order_by"), map[string]string{
			"epc":            "epc",
			"last_synced_at": "last_synced_at",
			"created_at":     "created_at",
		}),
		Asc: boolQueryPtr(c, "ascending"),
	}

	items, err := h.Store.ListAds(c.Request.Context(), params)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list ads failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	total, err := h.Store.CountAds(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func uintQueryPtr(c *gin.Context, key string) *uint64 {
	if val := c.Query(key); val != "" {
		if i, err := strconv.ParseUint(val, 10, 64); err == nil {
			return &i
		}
	}
	return nil
}

func boolQueryPtr(c *gin.Context, key string) *bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return &b
		}
	}
	return nil
}

func strQueryPtr(c *gin.Context, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func timeQueryPtr(c *gin.Context, key string) *time.Time {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if ts, err := time.Parse(time.RFC3339, val); err == nil {
			return &ts
		}
	}
	return nil
}

func parseOrder(value string, allow map[string]string) string {
	key := strings.TrimSpace(strings.ToLower(value))
	if key == "" {
		return ""
	}
	if mapped, ok := allow[key]; ok {
		return mapped
	}
	return ""
}

func paginationMeta(limit, offset int, total int64) map[string]any {
	if limit <= 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	hasNext := int64(offset+limit) < total
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_next": hasNext,
	}
}
