package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"adsync/internal/network"
	"adsync/internal/repository"
	"adsync/internal/service"
)

// SyncHandler triggers sync runs and reports their history. Only
// networks with configured credentials appear in Clients.
type SyncHandler struct {
	Service *service.SyncService
	Clients []network.Client
	Logger  *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api")
	group.POST("/sync", h.syncAll)
	group.POST("/sync/:network", h.syncOne)
	group.GET("/sync-logs", h.listSyncLogs)
}

func (h *SyncHandler) syncAll(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	opts := service.SyncOptions{SiteDomain: strings.TrimSpace(c.Query("site"))}
	results := h.Service.SyncAll(c.Request.Context(), h.Clients, opts)
	Ok(c, results, nil)
}

func (h *SyncHandler) syncOne(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	name := strings.ToLower(strings.TrimSpace(c.Param("network")))
	client := h.clientByName(name)
	if client == nil {
		Error(c, http.StatusNotFound, "network not configured: "+name, nil)
		return
	}
	opts := service.SyncOptions{SiteDomain: strings.TrimSpace(c.Query("site"))}
	result, err := h.Service.SyncNetwork(c.Request.Context(), client, opts)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("sync failed", zap.String("network", name), zap.Error(err))
		}
		status := http.StatusBadGateway
		if errors.Is(err, network.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		Error(c, status, err.Error(), map[string]any{"result": result})
		return
	}
	Ok(c, result, nil)
}

func (h *SyncHandler) listSyncLogs(c *gin.Context) {
	if h.Service == nil || h.Service.Store == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListSyncLogsParams{
		Limit:   limit,
		Offset:  offset,
		Network: strQueryPtr(c, "network"),
		Status:  strQueryPtr(c, "status"),
		Since:   timeQueryPtr(c, "since"),
	}

	items, err := h.Service.Store.ListSyncLogs(c.Request.Context(), params)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("list sync logs failed", zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	total, err := h.Service.Store.CountSyncLogs(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *SyncHandler) clientByName(name string) network.Client {
	for _, client := range h.Clients {
		if client.Name() == name {
			return client
		}
	}
	return nil
}
