package network

import (
	"context"
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

type AwinConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIToken    string        `mapstructure:"api_token"`
	PublisherID string        `mapstructure:"publisher_id"`
	PageSize    int           `mapstructure:"page_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Retries     int           `mapstructure:"retries"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

// AwinClient talks to the Awin publisher APIs. FetchAds merges two
// endpoints: promotions (vouchers/text offers, POST with body filters)
// and creatives (banners, GET). Creative records are tagged with
// _source=creatives so the mapper can disambiguate.
type AwinClient struct {
	baseURL     string
	apiToken    string
	publisherID string
	pageSize    int
	req         *requester
	logger      *zap.Logger
}

func NewAwin(cfg AwinConfig, logger *zap.Logger) *AwinClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.awin.com"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &AwinClient{
		baseURL:     baseURL,
		apiToken:    cfg.APIToken,
		publisherID: cfg.PublisherID,
		pageSize:    pageSize,
		req:         newRequester(cfg.Timeout, cfg.Retries, cfg.Backoff, logger),
		logger:      logger,
	}
}

func (c *AwinClient) Name() string {
	return "awin"
}

func (c *AwinClient) headers() http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiToken)
	return header
}

// FetchAdvertisers fetches all joined programmes. The endpoint returns a
// single JSON array, unpaginated.
func (c *AwinClient) FetchAdvertisers(ctx context.Context) ([]Raw, error) {
	query := url.Values{}
	// Some Awin deployments also expect the token as a query param.
	query.Set("accessToken", c.apiToken)
	query.Set("relationship", "joined")
	fullURL := fmt.Sprintf("%s/publishers/%s/programmes?%s", c.baseURL, c.publisherID, query.Encode())

	status, payload, err := c.req.do(ctx, http.MethodGet, fullURL, c.headers(), nil)
	if errors.Is(err, errRetryExhausted) {
		if c.logger != nil {
			c.logger.Warn("awin programmes retries exhausted, returning empty list", zap.Error(err))
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("awin programmes: %w", err)
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	items, err := decodeItems(payload, "data", "results")
	if err != nil {
		return nil, fmt.Errorf("awin programmes: %w", err)
	}
	return items, nil
}

// FetchAds merges promotions and creatives for one advertiser. A failure
// on the creatives side degrades to promotions-only rather than dropping
// the whole advertiser.
func (c *AwinClient) FetchAds(ctx context.Context, advertiserRef string) ([]Raw, error) {
	offers, err := c.fetchPromotions(ctx, advertiserRef)
	if err != nil {
		return nil, err
	}
	creatives, err := c.fetchCreatives(ctx, advertiserRef)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("awin creatives fetch failed, continuing with promotions only",
				zap.String("advertiser", advertiserRef),
				zap.Int("promotions", len(offers)),
				zap.Error(err))
		}
		return offers, nil
	}
	for _, creative := range creatives {
		creative["_source"] = "creatives"
	}
	return append(offers, creatives...), nil
}

func (c *AwinClient) fetchPromotions(ctx context.Context, advertiserRef string) ([]Raw, error) {
	fullURL := fmt.Sprintf("%s/publisher/%s/promotions?accessToken=%s",
		c.baseURL, c.publisherID, url.QueryEscape(c.apiToken))

	var advertiserID any = advertiserRef
	if parsed, err := strconv.Atoi(advertiserRef); err == nil {
		advertiserID = parsed
	}

	offers := make([]Raw, 0)
	page := 1
	for {
		body, err := json.Marshal(map[string]any{
			"filters": map[string]any{
				"advertiserIds": []any{advertiserID},
				"membership":    "all",
				"status":        "active",
				"type":          "all",
			},
			"pagination": map[string]any{
				"page":     page,
				"pageSize": c.pageSize,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("awin promotions: %w", err)
		}

		status, payload, err := c.req.do(ctx, http.MethodPost, fullURL, c.headers(), body)
		if errors.Is(err, errRetryExhausted) {
			if c.logger != nil {
				c.logger.Warn("awin promotions retries exhausted, returning partial results",
					zap.String("advertiser", advertiserRef),
					zap.Int("items", len(offers)),
					zap.Error(err))
			}
			return offers, nil
		}
		if err != nil {
			return nil, fmt.Errorf("awin promotions: %w", err)
		}
		if status == http.StatusNoContent {
			break
		}
		items, err := decodeItems(payload, "data", "results", "offers")
		if err != nil {
			return nil, fmt.Errorf("awin promotions: %w", err)
		}
		if len(items) == 0 {
			break
		}
		offers = append(offers, items...)
		if len(items) < c.pageSize {
			break
		}
		page++
	}
	return offers, nil
}

func (c *AwinClient) fetchCreatives(ctx context.Context, advertiserRef string) ([]Raw, error) {
	creatives := make([]Raw, 0)
	page := 1
	for {
		query := url.Values{}
		query.Set("accessToken", c.apiToken)
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(c.pageSize))
		fullURL := fmt.Sprintf("%s/publishers/%s/advertisers/%s/creatives?%s",
			c.baseURL, c.publisherID, url.PathEscape(advertiserRef), query.Encode())

		status, payload, err := c.req.do(ctx, http.MethodGet, fullURL, c.headers(), nil)
		if errors.Is(err, errRetryExhausted) {
			if c.logger != nil {
				c.logger.Warn("awin creatives retries exhausted, returning partial results",
					zap.String("advertiser", advertiserRef),
					zap.Int("items", len(creatives)),
					zap.Error(err))
			}
			return creatives, nil
		}
		if err != nil {
			return nil, err
		}
		if status == http.StatusNoContent {
			break
		}
		items, err := decodeItems(payload, "data", "results", "creatives")
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		creatives = append(creatives, items...)
		if len(items) < c.pageSize {
			break
		}
		page++
	}
	return creatives, nil
}

func (c *AwinClient) Close() error {
	c.req.close()
	return nil
}
