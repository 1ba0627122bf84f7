package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"adsync/internal/network"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Cron     CronConfig     `mapstructure:"cron"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Networks NetworksConfig `mapstructure:"networks"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sync    string `mapstructure:"sync"`
}

type SyncConfig struct {
	SiteDomain string `mapstructure:"site_domain"`
}

type NetworksConfig struct {
	FlexOffers network.FlexOffersConfig `mapstructure:"flexoffers"`
	Awin       network.AwinConfig       `mapstructure:"awin"`
	CJ         network.CJConfig         `mapstructure:"cj"`
	Impact     network.ImpactConfig     `mapstructure:"impact"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ADSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.sync", "@every 6h")
	v.SetDefault("sync.site_domain", "")

	v.SetDefault("networks.flexoffers.base_url", "https://api.flexoffers.com")
	v.SetDefault("networks.flexoffers.page_size", 200)
	v.SetDefault("networks.flexoffers.timeout", "30s")
	v.SetDefault("networks.flexoffers.retries", 3)
	v.SetDefault("networks.flexoffers.backoff", "1s")

	v.SetDefault("networks.awin.base_url", "https://api.awin.com")
	v.SetDefault("networks.awin.page_size", 200)
	v.SetDefault("networks.awin.timeout", "30s")
	v.SetDefault("networks.awin.retries", 3)
	v.SetDefault("networks.awin.backoff", "1s")

	v.SetDefault("networks.cj.lookup_url", "https://advertiser-lookup.api.cj.com/v2/advertiser-lookup")
	v.SetDefault("networks.cj.link_search_url", "https://link-search.api.cj.com/v2/link-search")
	v.SetDefault("networks.cj.page_size", 100)
	v.SetDefault("networks.cj.timeout", "30s")
	v.SetDefault("networks.cj.retries", 3)
	v.SetDefault("networks.cj.backoff", "1s")

	v.SetDefault("networks.impact.base_url", "https://api.impact.com")
	v.SetDefault("networks.impact.page_size", 200)
	v.SetDefault("networks.impact.timeout", "30s")
	v.SetDefault("networks.impact.retries", 3)
	v.SetDefault("networks.impact.backoff", "1s")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
