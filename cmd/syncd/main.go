package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"adsync/internal/config"
	cronrunner "adsync/internal/cron"
	"adsync/internal/db"
	"adsync/internal/handler"
	"adsync/internal/logger"
	"adsync/internal/network"
	gormrepository "adsync/internal/repository/gorm"
	"adsync/internal/service"
)

func main() {
	cfgPath := os.Getenv("ADSYNC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ADSYNC_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	clients := buildClients(cfg.Networks, log)
	if len(clients) == 0 {
		log.Warn("no network credentials configured, sync is idle")
	}
	syncService := &service.SyncService{
		Store:  store,
		Logger: log,
	}
	syncOpts := service.SyncOptions{SiteDomain: cfg.Sync.SiteDomain}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	syncHandler := &handler.SyncHandler{
		Service: syncService,
		Clients: clients,
		Logger:  log,
	}
	syncHandler.Register(engine)
	catalogHandler := &handler.CatalogHandler{
		Store:  store,
		Logger: log,
	}
	catalogHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(log, ctx)
	if cfg.Cron.Enabled && len(clients) > 0 {
		_, err := cronRunner.Add("sync", cfg.Cron.Sync, func(ctx context.Context) {
			syncService.SyncAll(ctx, clients, syncOpts)
		})
		if err != nil {
			log.Warn("cron register sync failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()
	defer closeClients(clients, log)

	errCh := make(chan error, 2)

	go func() {
		log.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// buildClients returns a client per network that has credentials set.
// Unconfigured networks are skipped, not errored, so a partial
// deployment still syncs what it can.
func buildClients(cfg config.NetworksConfig, log *zap.Logger) []network.Client {
	var clients []network.Client

	if cfg.FlexOffers.APIKey != "" {
		clients = append(clients, network.NewFlexOffers(cfg.FlexOffers, log))
	} else {
		log.Info("flexoffers not configured, skipping")
	}
	if cfg.Awin.APIToken != "" && cfg.Awin.PublisherID != "" {
		clients = append(clients, network.NewAwin(cfg.Awin, log))
	} else {
		log.Info("awin not configured, skipping")
	}
	if cfg.CJ.APIToken != "" && cfg.CJ.WebsiteID != "" {
		clients = append(clients, network.NewCJ(cfg.CJ, log))
	} else {
		log.Info("cj not configured, skipping")
	}
	if cfg.Impact.AccountSID != "" && cfg.Impact.AuthToken != "" {
		clients = append(clients, network.NewImpact(cfg.Impact, log))
	} else {
		log.Info("impact not configured, skipping")
	}

	return clients
}

func closeClients(clients []network.Client, log *zap.Logger) {
	for _, client := range clients {
		if err := client.Close(); err != nil {
			log.Warn("client close failed",
				zap.String("network", client.Name()), zap.Error(err))
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
