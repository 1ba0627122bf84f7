package network

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

type CJConfig struct {
	LookupURL     string        `mapstructure:"lookup_url"`
	LinkSearchURL string        `mapstructure:"link_search_url"`
	APIToken      string        `mapstructure:"api_token"`
	WebsiteID     string        `mapstructure:"website_id"`
	PageSize      int           `mapstructure:"page_size"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Retries       int           `mapstructure:"retries"`
	Backoff       time.Duration `mapstructure:"backoff"`
}

// CJClient talks to the CJ Affiliate XML APIs (advertiser-lookup and
// link-search). Responses are flattened into Raw records with the API's
// hyphenated element names; nested elements join with '/'
// (e.g. "primary-category/child").
type CJClient struct {
	lookupURL     string
	linkSearchURL string
	apiToken      string
	websiteID     string
	pageSize      int
	req           *requester
	logger        *zap.Logger
}

func NewCJ(cfg CJConfig, logger *zap.Logger) *CJClient {
	lookupURL := strings.TrimRight(cfg.LookupURL, "/")
	if lookupURL == "" {
		lookupURL = "https://advertiser-lookup.api.cj.com/v2/advertiser-lookup"
	}
	linkSearchURL := strings.TrimRight(cfg.LinkSearchURL, "/")
	if linkSearchURL == "" {
		linkSearchURL = "https://link-search.api.cj.com/v2/link-search"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &CJClient{
		lookupURL:     lookupURL,
		linkSearchURL: linkSearchURL,
		apiToken:      cfg.APIToken,
		websiteID:     cfg.WebsiteID,
		pageSize:      pageSize,
		req:           newRequester(cfg.Timeout, cfg.Retries, cfg.Backoff, logger),
		logger:        logger,
	}
}

func (c *CJClient) Name() string {
	return "cj"
}

func (c *CJClient) headers() http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiToken)
	header.Set("Accept", "application/xml")
	return header
}

func (c *CJClient) FetchAdvertisers(ctx context.Context) ([]Raw, error) {
	return c.fetchPaged(ctx, c.lookupURL, url.Values{"advertiser-ids": {"joined"}}, "advertisers", "advertiser")
}

func (c *CJClient) FetchAds(ctx context.Context, advertiserRef string) ([]Raw, error) {
	query := url.Values{
		"website-id":     {c.websiteID},
		"advertiser-ids": {advertiserRef},
	}
	return c.fetchPaged(ctx, c.linkSearchURL, query, "links", "link")
}

// fetchPaged walks page-number/records-per-page pages until a short page,
// an empty page, or the running count reaching the reported total.
func (c *CJClient) fetchPaged(ctx context.Context, endpoint string, extra url.Values, listName, recordName string) ([]Raw, error) {
	out := make([]Raw, 0)
	page := 1
	for {
		query := url.Values{}
		for key, values := range extra {
			query[key] = values
		}
		query.Set("page-number", strconv.Itoa(page))
		query.Set("records-per-page", strconv.Itoa(c.pageSize))
		fullURL := endpoint + "?" + query.Encode()

		status, payload, err := c.req.do(ctx, http.MethodGet, fullURL, c.headers(), nil)
		if errors.Is(err, errRetryExhausted) {
			if c.logger != nil {
				c.logger.Warn("cj retries exhausted, returning partial results",
					zap.String("endpoint", endpoint),
					zap.Int("page", page),
					zap.Int("items", len(out)),
					zap.Error(err))
			}
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("cj %s: %w", recordName, err)
		}
		if status == http.StatusNoContent {
			break
		}
		items, totalMatched, err := parseCJPage(payload, listName, recordName)
		if err != nil {
			return nil, fmt.Errorf("cj %s: %w", recordName, err)
		}
		if len(items) == 0 {
			break
		}
		out = append(out, items...)
		if len(items) < c.pageSize {
			break
		}
		if totalMatched > 0 && len(out) >= totalMatched {
			break
		}
		page++
	}
	return out, nil
}

func (c *CJClient) Close() error {
	c.req.close()
	return nil
}

// parseCJPage extracts the record elements of one response page along
// with the total-matched attribute the API reports on the list element.
func parseCJPage(payload []byte, listName, recordName string) ([]Raw, int, error) {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	var items []Raw
	totalMatched := 0
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode response: %w", err)
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case listName:
			for _, attr := range start.Attr {
				if attr.Name.Local == "total-matched" {
					if parsed, err := strconv.Atoi(attr.Value); err == nil {
						totalMatched = parsed
					}
				}
			}
		case recordName:
			item := Raw{}
			if err := flattenElement(decoder, "", item); err != nil {
				return nil, 0, fmt.Errorf("failed to decode response: %w", err)
			}
			items = append(items, item)
		}
	}
	return items, totalMatched, nil
}

// flattenElement reads an element's children into out, joining nested
// element names with '/'. Only leaf values are recorded.
func flattenElement(decoder *xml.Decoder, prefix string, out Raw) error {
	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			key := t.Name.Local
			if prefix != "" {
				key = prefix + "/" + t.Name.Local
			}
			if err := flattenElement(decoder, key, out); err != nil {
				return err
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			value := strings.TrimSpace(text.String())
			if value != "" && prefix != "" {
				out[prefix] = value
			}
			return nil
		}
	}
}
