// Package network implements the per-network API clients that pull raw
// advertiser and ad catalogs from the affiliate platforms.
package network

import (
	"context"
	"errors"
	"fmt"
)

// Raw is one undecoded upstream record. Mappers normalize it; the hash
// engine fingerprints it.
type Raw map[string]any

// Client fetches the full advertiser and ad catalogs of one network.
// FetchAdvertisers and FetchAds paginate to exhaustion and degrade to
// partial results when retries run out; only authentication failures
// surface as errors (wrapping ErrUnauthorized).
type Client interface {
	Name() string
	FetchAdvertisers(ctx context.Context) ([]Raw, error)
	FetchAds(ctx context.Context, advertiserRef string) ([]Raw, error)
	Close() error
}

// ErrUnauthorized marks a credential failure. It is never retried and
// aborts the network's run.
var ErrUnauthorized = errors.New("unauthorized")

var errRetryExhausted = errors.New("retries exhausted")

// APIError is a non-OK response that is neither an auth failure nor
// retryable.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}
