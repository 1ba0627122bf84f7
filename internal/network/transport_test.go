package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testRequester(retries int) *requester {
	return newRequester(5*time.Second, retries, time.Millisecond, nil)
}

func TestDoRetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	status, payload, err := testRequester(3).do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if string(payload) != `{"ok":true}` {
		t.Fatalf("payload = %q", payload)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDoUnauthorizedFailsImmediately(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, _, err := testRequester(3).do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestDoRetryExhaustion(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, _, err := testRequester(2).do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if !errors.Is(err, errRetryExhausted) {
		t.Fatalf("err = %v, want errRetryExhausted", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}

func TestDoNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	status, payload, err := testRequester(3).do(context.Background(), http.MethodGet, server.URL, nil, nil)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if status != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", status)
	}
	if payload != nil {
		t.Fatalf("payload = %q, want nil", payload)
	}
}

func TestDoClientErrorNoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad advertiser id"))
	}))
	defer server.Close()

	_, _, err := testRequester(3).do(context.Background(), http.MethodGet, server.URL, nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", apiErr.Status)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestDecodeItemsBareArray(t *testing.T) {
	items, err := decodeItems([]byte(`[{"id":1},{"id":2}]`))
	if err != nil {
		t.Fatalf("decodeItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
}

func TestDecodeItemsWrapped(t *testing.T) {
	items, err := decodeItems([]byte(`{"results":[{"id":1}]}`), "data", "results")
	if err != nil {
		t.Fatalf("decodeItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
}

func TestDecodeItemsEmpty(t *testing.T) {
	items, err := decodeItems(nil)
	if err != nil {
		t.Fatalf("decodeItems: %v", err)
	}
	if items != nil {
		t.Fatalf("items = %v, want nil", items)
	}
}
