package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultRetries  = 3
	defaultBackoff  = time.Second
	defaultPageSize = 200
)

// requester is the shared HTTP layer for all network clients: bounded
// retry with exponential backoff on rate limits (403/429), server errors
// and transport failures; immediate ErrUnauthorized on 401.
type requester struct {
	client  *http.Client
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

func newRequester(timeout time.Duration, retries int, backoff time.Duration, logger *zap.Logger) *requester {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if retries <= 0 {
		retries = defaultRetries
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &requester{
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		backoff: backoff,
		logger:  logger,
	}
}

// do performs one HTTP call with retries. A 204 returns (204, nil, nil) so
// callers can treat it as end-of-data. Exhausted retries return an error
// wrapping errRetryExhausted; callers degrade to partial results on it.
func (r *requester) do(ctx context.Context, method, rawURL string, header http.Header, body []byte) (int, []byte, error) {
	var lastErr error
	for attempt := 1; attempt <= r.retries; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create request: %w", err)
		}
		for key, values := range header {
			for _, value := range values {
				req.Header.Add(key, value)
			}
		}
		if req.Header.Get("Accept") == "" {
			req.Header.Set("Accept", "application/json")
		}
		if body != nil && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := r.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < r.retries {
				if werr := r.wait(ctx, attempt); werr != nil {
					return 0, nil, werr
				}
				continue
			}
			break
		}
		payload, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return resp.StatusCode, nil, fmt.Errorf("%s %s: %w", method, rawURL, ErrUnauthorized)
		case resp.StatusCode == http.StatusForbidden,
			resp.StatusCode == http.StatusTooManyRequests,
			resp.StatusCode >= http.StatusInternalServerError:
			lastErr = &APIError{Status: resp.StatusCode, Body: truncateBody(payload)}
			if attempt < r.retries {
				if r.logger != nil {
					r.logger.Warn("transient upstream failure, backing off",
						zap.String("url", rawURL),
						zap.Int("status", resp.StatusCode),
						zap.Int("attempt", attempt))
				}
				if werr := r.wait(ctx, attempt); werr != nil {
					return 0, nil, werr
				}
				continue
			}
		case resp.StatusCode == http.StatusNoContent:
			return resp.StatusCode, nil, nil
		case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
			return resp.StatusCode, payload, nil
		default:
			return resp.StatusCode, nil, &APIError{Status: resp.StatusCode, Body: truncateBody(payload)}
		}
	}
	return 0, nil, fmt.Errorf("%w: %v", errRetryExhausted, lastErr)
}

// wait sleeps backoff * 2^attempt, honoring cancellation.
func (r *requester) wait(ctx context.Context, attempt int) error {
	delay := r.backoff * time.Duration(1<<attempt)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func (r *requester) close() {
	r.client.CloseIdleConnections()
}

func truncateBody(payload []byte) string {
	const max = 512
	if len(payload) > max {
		return string(payload[:max])
	}
	return string(payload)
}

// decodeItems parses a JSON payload that is either a bare array or an
// object wrapping the array under one of wrapKeys.
func decodeItems(payload []byte, wrapKeys ...string) ([]Raw, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var items []Raw
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return items, nil
	}
	var wrapper map[string]any
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	for _, key := range wrapKeys {
		if value, ok := wrapper[key]; ok {
			if items := itemsFromAny(value); items != nil {
				return items, nil
			}
		}
	}
	return nil, nil
}

func itemsFromAny(value any) []Raw {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	items := make([]Raw, 0, len(list))
	for _, entry := range list {
		if record, ok := entry.(map[string]any); ok {
			items = append(items, Raw(record))
		}
	}
	return items
}
