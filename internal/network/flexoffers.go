package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type FlexOffersConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	PageSize int           `mapstructure:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

// FlexOffersClient talks to the FlexOffers publisher API. Auth is a
// static apiKey header; both list endpoints paginate with page/pageSize.
type FlexOffersClient struct {
	baseURL  string
	apiKey   string
	pageSize int
	req      *requester
	logger   *zap.Logger
}

func NewFlexOffers(cfg FlexOffersConfig, logger *zap.Logger) *FlexOffersClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.flexoffers.com"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &FlexOffersClient{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		req:      newRequester(cfg.Timeout, cfg.Retries, cfg.Backoff, logger),
		logger:   logger,
	}
}

func (c *FlexOffersClient) Name() string {
	return "flexoffers"
}

func (c *FlexOffersClient) headers() http.Header {
	header := http.Header{}
	header.Set("apiKey", c.apiKey)
	return header
}

func (c *FlexOffersClient) FetchAdvertisers(ctx context.Context) ([]Raw, error) {
	return c.fetchPaged(ctx, "/advertisers", url.Values{"approvalStatus": {"approved"}})
}

func (c *FlexOffersClient) FetchAds(ctx context.Context, advertiserRef string) ([]Raw, error) {
	return c.fetchPaged(ctx, "/promotions", url.Values{"advertiserIds": {advertiserRef}})
}

func (c *FlexOffersClient) fetchPaged(ctx context.Context, path string, extra url.Values) ([]Raw, error) {
	out := make([]Raw, 0)
	page := 1
	for {
		query := url.Values{}
		for key, values := range extra {
			query[key] = values
		}
		query.Set("page", strconv.Itoa(page))
		query.Set("pageSize", strconv.Itoa(c.pageSize))
		fullURL := c.baseURL + path + "?" + query.Encode()

		status, payload, err := c.req.do(ctx, http.MethodGet, fullURL, c.headers(), nil)
		if errors.Is(err, errRetryExhausted) {
			if c.logger != nil {
				c.logger.Warn("flexoffers retries exhausted, returning partial results",
					zap.String("path", path),
					zap.Int("page", page),
					zap.Int("items", len(out)),
					zap.Error(err))
			}
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("flexoffers %s: %w", path, err)
		}
		if status == http.StatusNoContent {
			break
		}
		items, err := decodeItems(payload, "results", "data")
		if err != nil {
			return nil, fmt.Errorf("flexoffers %s: %w", path, err)
		}
		if len(items) == 0 {
			break
		}
		out = append(out, items...)
		if len(items) < c.pageSize {
			break
		}
		page++
	}
	return out, nil
}

func (c *FlexOffersClient) Close() error {
	c.req.close()
	return nil
}
