package mapper

import (
	"strings"
	"testing"

	"adsync/internal/network"
)

func TestFlexOffersMapAdvertiser(t *testing.T) {
	raw := network.Raw{
		"advertiserId":   float64(301),
		"advertiserName": "Gamma Gear",
		"programStatus":  "Approved",
		"domainUrl":      "https://gamma.example",
		"categoryName":   "Sports",
		"epcSevenDays":   "0.85",
	}
	adv, err := FlexOffersMapper{}.MapAdvertiser(raw)
	if err != nil {
		t.Fatalf("MapAdvertiser: %v", err)
	}
	if adv.NetworkAdvertiserID != "301" || adv.Status != "active" {
		t.Fatalf("key = %s, status = %s", adv.NetworkAdvertiserID, adv.Status)
	}
	if adv.Category != "Sports" || adv.EPC.String() != "0.85" {
		t.Fatalf("category = %s, epc = %s", adv.Category, adv.EPC)
	}
}

func TestFlexOffersMapAdBanner(t *testing.T) {
	raw := network.Raw{
		"linkId":       float64(41),
		"linkName":     "Big Banner",
		"linkUrl":      "https://track/41",
		"imageUrl":     "https://cdn/41.png",
		"bannerWidth":  float64(300),
		"bannerHeight": float64(250),
	}
	ad, err := FlexOffersMapper{}.MapAd(raw, 3)
	if err != nil {
		t.Fatalf("MapAd: %v", err)
	}
	if ad.CreativeType != "banner" {
		t.Fatalf("CreativeType = %s", ad.CreativeType)
	}
	if ad.AdvertName != "300X250-3-BigBanner-41-General" {
		t.Fatalf("AdvertName = %q", ad.AdvertName)
	}
	if !strings.Contains(ad.BannerCode, `<img src="https://cdn/41.png"`) {
		t.Fatalf("BannerCode = %s", ad.BannerCode)
	}
}

func TestFlexOffersMapAdTextZeroesDimensions(t *testing.T) {
	raw := network.Raw{
		"linkId":              float64(42),
		"linkName":            "Text Deal",
		"promotionalTypeName": "Text Link",
		"linkUrl":             "https://track/42",
		"imageUrl":            "https://cdn/ignored.png",
		"couponCode":          "DEAL",
	}
	ad, err := FlexOffersMapper{}.MapAd(raw, 3)
	if err != nil {
		t.Fatalf("MapAd: %v", err)
	}
	if ad.CreativeType != "text" {
		t.Fatalf("CreativeType = %s", ad.CreativeType)
	}
	if ad.Width != 0 || ad.Height != 0 || ad.ImageURL != "" {
		t.Fatalf("non-banner kept image fields: %dx%d %q", ad.Width, ad.Height, ad.ImageURL)
	}
	if !strings.Contains(ad.BannerCode, "(Code: DEAL)") {
		t.Fatalf("BannerCode = %s", ad.BannerCode)
	}
}

func TestFlexOffersMapAdExpired(t *testing.T) {
	raw := network.Raw{
		"linkId": float64(43),
		"status": "Expired",
	}
	ad, err := FlexOffersMapper{}.MapAd(raw, 3)
	if err != nil {
		t.Fatalf("MapAd: %v", err)
	}
	if ad.Status != "paused" {
		t.Fatalf("Status = %s, want paused", ad.Status)
	}
}
