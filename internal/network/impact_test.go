package network

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestImpact(baseURL string, pageSize int) *ImpactClient {
	return NewImpact(ImpactConfig{
		BaseURL:    baseURL,
		AccountSID: "sid",
		AuthToken:  "token",
		PageSize:   pageSize,
		Timeout:    5 * time.Second,
		Retries:    2,
		Backoff:    time.Millisecond,
	}, nil)
}

func TestImpactFetchAdvertisersPaginatesByNumPages(t *testing.T) {
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Basic ") {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/Mediapartners/sid/Campaigns" {
			t.Errorf("path = %s", r.URL.Path)
		}
		page := r.URL.Query().Get("Page")
		pages = append(pages, page)
		if page == "1" {
			fmt.Fprint(w, `{"@numpages":"2","Campaigns":[{"CampaignId":1},{"CampaignId":2}]}`)
			return
		}
		fmt.Fprint(w, `{"@numpages":"2","Campaigns":[{"CampaignId":3},{"CampaignId":4}]}`)
	}))
	defer server.Close()

	client := newTestImpact(server.URL, 2)
	items, err := client.FetchAdvertisers(context.Background())
	if err != nil {
		t.Fatalf("FetchAdvertisers: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("items = %d, want 4", len(items))
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %v, want two requests", pages)
	}
}

func TestImpactFetchAdsGroupsByCampaignAndCaches(t *testing.T) {
	adsCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Mediapartners/sid/Ads" {
			t.Errorf("path = %s", r.URL.Path)
		}
		adsCalls++
		fmt.Fprint(w, `{"@numpages":"1","Ads":[
			{"Id":"a1","CampaignId":10},
			{"Id":"a2","CampaignId":10},
			{"Id":"b1","CampaignId":20}
		]}`)
	}))
	defer server.Close()

	client := newTestImpact(server.URL, 50)

	first, err := client.FetchAds(context.Background(), "10")
	if err != nil {
		t.Fatalf("FetchAds: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("campaign 10 ads = %d, want 2", len(first))
	}

	second, err := client.FetchAds(context.Background(), "20")
	if err != nil {
		t.Fatalf("FetchAds: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("campaign 20 ads = %d, want 1", len(second))
	}

	if adsCalls != 1 {
		t.Fatalf("ads endpoint hit %d times, want 1", adsCalls)
	}

	missing, err := client.FetchAds(context.Background(), "99")
	if err != nil {
		t.Fatalf("FetchAds: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("unknown campaign ads = %d, want 0", len(missing))
	}
}

func TestImpactFetchAdvertisersResetsAdsCache(t *testing.T) {
	adVersion := "a-v1"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Mediapartners/sid/Campaigns":
			fmt.Fprint(w, `{"@numpages":"1","Campaigns":[{"CampaignId":10}]}`)
		case "/Mediapartners/sid/Ads":
			fmt.Fprintf(w, `{"@numpages":"1","Ads":[{"Id":%q,"CampaignId":10}]}`, adVersion)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestImpact(server.URL, 50)

	run := func() []Raw {
		if _, err := client.FetchAdvertisers(context.Background()); err != nil {
			t.Fatalf("FetchAdvertisers: %v", err)
		}
		ads, err := client.FetchAds(context.Background(), "10")
		if err != nil {
			t.Fatalf("FetchAds: %v", err)
		}
		return ads
	}

	first := run()
	if len(first) != 1 || stringValue(first[0]["Id"]) != "a-v1" {
		t.Fatalf("first run ads = %v", first)
	}

	adVersion = "a-v2"
	second := run()
	if len(second) != 1 || stringValue(second[0]["Id"]) != "a-v2" {
		t.Fatalf("second run served stale ads: %v, want Id a-v2", second)
	}
}

func TestImpactStringValue(t *testing.T) {
	if got := stringValue(float64(42)); got != "42" {
		t.Fatalf("stringValue(42.0) = %q", got)
	}
	if got := stringValue("x"); got != "x" {
		t.Fatalf("stringValue(x) = %q", got)
	}
	if got := stringValue(nil); got != "" {
		t.Fatalf("stringValue(nil) = %q", got)
	}
}
