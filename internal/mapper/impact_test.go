package mapper

import (
	"strings"
	"testing"

	"adsync/internal/network"
)

func TestImpactMapAdvertiser(t *testing.T) {
	raw := network.Raw{
		"CampaignId":     float64(77),
		"CampaignName":   "Delta Campaign",
		"ContractStatus": "Active",
		"CampaignUrl":    "https://delta.example",
	}
	adv, err := ImpactMapper{}.MapAdvertiser(raw)
	if err != nil {
		t.Fatalf("MapAdvertiser: %v", err)
	}
	if adv.NetworkAdvertiserID != "77" || adv.Status != "active" {
		t.Fatalf("key = %s, status = %s", adv.NetworkAdvertiserID, adv.Status)
	}
	if adv.Category != "" || !adv.EPC.IsZero() {
		t.Fatalf("unexpected category/epc: %q %s", adv.Category, adv.EPC)
	}
}

func TestImpactMapAdvertiserInactiveContract(t *testing.T) {
	raw := network.Raw{
		"CampaignId":     float64(78),
		"ContractStatus": "Expired",
	}
	adv, err := ImpactMapper{}.MapAdvertiser(raw)
	if err != nil {
		t.Fatalf("MapAdvertiser: %v", err)
	}
	if adv.Status != "paused" {
		t.Fatalf("Status = %s, want paused", adv.Status)
	}
}

func TestImpactMapAdBanner(t *testing.T) {
	raw := network.Raw{
		"Id":           "a1",
		"Name":         "Hero Banner",
		"Type":         "BANNER",
		"TrackingLink": "https://track/a1",
		"CreativeUrl":  "https://cdn/a1.jpg",
		"Width":        float64(728),
		"Height":       float64(90),
		"Status":       "ACTIVE",
	}
	ad, err := ImpactMapper{}.MapAd(raw, 9)
	if err != nil {
		t.Fatalf("MapAd: %v", err)
	}
	if ad.CreativeType != "banner" || ad.Width != 728 {
		t.Fatalf("type = %s, width = %d", ad.CreativeType, ad.Width)
	}
	if !strings.Contains(ad.BannerCode, `<img src="https://cdn/a1.jpg"`) {
		t.Fatalf("BannerCode = %s", ad.BannerCode)
	}
}

func TestImpactMapAdTextPaused(t *testing.T) {
	raw := network.Raw{
		"Id":           "a2",
		"Name":         "Text Promo",
		"Type":         "TEXT",
		"TrackingLink": "https://track/a2",
		"State":        "PAUSED",
	}
	ad, err := ImpactMapper{}.MapAd(raw, 9)
	if err != nil {
		t.Fatalf("MapAd: %v", err)
	}
	if ad.CreativeType != "text" || ad.Status != "paused" {
		t.Fatalf("type = %s, status = %s", ad.CreativeType, ad.Status)
	}
	if !strings.Contains(ad.BannerCode, "Text Promo") {
		t.Fatalf("BannerCode = %s", ad.BannerCode)
	}
}

func TestImpactMapAdMissingID(t *testing.T) {
	if _, err := ImpactMapper{}.MapAd(network.Raw{"Type": "TEXT"}, 9); err == nil {
		t.Fatal("expected error for missing Id")
	}
}
