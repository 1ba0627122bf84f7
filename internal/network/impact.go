package network

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ImpactConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	AccountSID string        `mapstructure:"account_sid"`
	AuthToken  string        `mapstructure:"auth_token"`
	PageSize   int           `mapstructure:"page_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
}

// ImpactClient talks to the Impact media partner API with basic auth.
// The Ads endpoint ignores campaign filters and returns every ad on the
// account, so FetchAds fetches once per run, groups by CampaignId and
// serves per-campaign slices from the cache.
type ImpactClient struct {
	baseURL    string
	accountSID string
	authToken  string
	pageSize   int
	req        *requester
	logger     *zap.Logger

	adsByCampaign map[string][]Raw
}

func NewImpact(cfg ImpactConfig, logger *zap.Logger) *ImpactClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.impact.com"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &ImpactClient{
		baseURL:    baseURL,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		pageSize:   pageSize,
		req:        newRequester(cfg.Timeout, cfg.Retries, cfg.Backoff, logger),
		logger:     logger,
	}
}

func (c *ImpactClient) Name() string {
	return "impact"
}

func (c *ImpactClient) headers() http.Header {
	credentials := base64.StdEncoding.EncodeToString([]byte(c.accountSID + ":" + c.authToken))
	header := http.Header{}
	header.Set("Authorization", "Basic "+credentials)
	header.Set("Accept", "application/json")
	return header
}

// FetchAdvertisers also drops the ads cache. The orchestrator calls it
// at the start of every run, so each run re-fetches the full ad catalog
// instead of serving the previous run's snapshot.
func (c *ImpactClient) FetchAdvertisers(ctx context.Context) ([]Raw, error) {
	c.adsByCampaign = nil
	return c.fetchPaged(ctx, "/Campaigns", "Campaigns")
}

// FetchAds returns the cached ads for one campaign, populating the cache
// on first use. The cache lives for one run only; FetchAdvertisers
// invalidates it. advertiserRef is the CampaignId.
func (c *ImpactClient) FetchAds(ctx context.Context, advertiserRef string) ([]Raw, error) {
	if c.adsByCampaign == nil {
		ads, err := c.fetchPaged(ctx, "/Ads", "Ads")
		if err != nil {
			return nil, err
		}
		grouped := make(map[string][]Raw)
		for _, ad := range ads {
			campaignID := stringValue(ad["CampaignId"])
			if campaignID == "" {
				continue
			}
			grouped[campaignID] = append(grouped[campaignID], ad)
		}
		c.adsByCampaign = grouped
	}
	return c.adsByCampaign[advertiserRef], nil
}

func (c *ImpactClient) fetchPaged(ctx context.Context, path, wrapKey string) ([]Raw, error) {
	out := make([]Raw, 0)
	page := 1
	numPages := 0
	for {
		query := url.Values{}
		query.Set("Page", strconv.Itoa(page))
		query.Set("PageSize", strconv.Itoa(c.pageSize))
		fullURL := fmt.Sprintf("%s/Mediapartners/%s%s?%s", c.baseURL, c.accountSID, path, query.Encode())

		status, payload, err := c.req.do(ctx, http.MethodGet, fullURL, c.headers(), nil)
		if errors.Is(err, errRetryExhausted) {
			if c.logger != nil {
				c.logger.Warn("impact retries exhausted, returning partial results",
					zap.String("path", path),
					zap.Int("page", page),
					zap.Int("items", len(out)),
					zap.Error(err))
			}
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("impact %s: %w", path, err)
		}
		if status == http.StatusNoContent {
			break
		}

		var wrapper map[string]any
		if err := json.Unmarshal(payload, &wrapper); err != nil {
			return nil, fmt.Errorf("impact %s: failed to decode response: %w", path, err)
		}
		items := itemsFromAny(wrapper[wrapKey])
		if len(items) == 0 {
			break
		}
		out = append(out, items...)

		if numPages == 0 {
			if parsed, err := strconv.Atoi(stringValue(wrapper["@numpages"])); err == nil {
				numPages = parsed
			}
		}
		if numPages > 0 && page >= numPages {
			break
		}
		if len(items) < c.pageSize {
			break
		}
		page++
	}
	return out, nil
}

func (c *ImpactClient) Close() error {
	c.adsByCampaign = nil
	c.req.close()
	return nil
}

// stringValue coerces the JSON number/string forms Impact mixes freely.
func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
