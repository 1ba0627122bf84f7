package mapper

import (
	"strings"

	"adsync/internal/models"
	"adsync/internal/network"
)

// AwinMapper normalizes the two record shapes the Awin client merges:
// promotions (vouchers/text offers) and creatives (banners).
type AwinMapper struct{}

func (AwinMapper) Network() string {
	return "awin"
}

func (m AwinMapper) MapAdvertiser(raw network.Raw) (models.Advertiser, error) {
	id := str(raw, "id")
	if id == "" {
		return models.Advertiser{}, &MappingError{Network: "awin", Field: "id"}
	}

	statusRaw := strings.ToLower(str(raw, "status", "linkStatus", "relationship"))
	status := "paused"
	switch statusRaw {
	case "joined", "active", "approved":
		status = "active"
	}

	advertiser := newAdvertiser("awin", id, raw)
	advertiser.Name = str(raw, "name")
	advertiser.Status = status
	advertiser.WebsiteURL = str(raw, "displayUrl", "programmeUrl", "url")
	advertiser.Category = str(raw, "primarySector", "sector")
	advertiser.EPC = decimalValue(raw, "epc", "sevenDayEpc")
	return advertiser, nil
}

func (m AwinMapper) MapAd(raw network.Raw, advertiserID uint64) (models.Ad, error) {
	if str(raw, "_source") == "creatives" || (str(raw, "imageUrl") != "" && str(raw, "promotionId") == "") {
		return m.mapCreative(raw, advertiserID)
	}
	return m.mapPromotion(raw, advertiserID)
}

func (m AwinMapper) mapPromotion(raw network.Raw, advertiserID uint64) (models.Ad, error) {
	promoID := str(raw, "promotionId", "id")
	if promoID == "" {
		return models.Ad{}, &MappingError{Network: "awin", Field: "promotionId"}
	}

	creativeType := "html"
	switch strings.ToLower(str(raw, "type")) {
	case "voucher", "coupon":
		creativeType = "text"
	}

	name := str(raw, "title", "description", "terms")
	trackingURL := str(raw, "urlTracking")

	linkText := name
	if linkText == "" {
		linkText = "View offer"
	}
	if voucher, ok := raw["voucher"].(map[string]any); ok {
		if code := coerceString(voucher["code"]); code != "" {
			linkText = linkText + " (Code: " + code + ")"
		}
	}

	status := "active"
	switch strings.ToLower(str(raw, "status")) {
	case "expired", "inactive":
		status = "paused"
	}

	ad := newAd("awin", promoID, advertiserID, raw)
	ad.CreativeType = creativeType
	ad.TrackingURL = trackingURL
	ad.DestinationURL = str(raw, "url")
	ad.Status = status
	ad.AdvertName = advertName(0, 0, advertiserID, name, promoID)
	ad.BannerCode = textAnchor(trackingURL, linkText)
	return ad, nil
}

func (m AwinMapper) mapCreative(raw network.Raw, advertiserID uint64) (models.Ad, error) {
	creativeID := str(raw, "id")
	if creativeID == "" {
		return models.Ad{}, &MappingError{Network: "awin", Field: "id"}
	}

	name := str(raw, "name")
	imageURL := str(raw, "imageUrl")
	trackingURL := str(raw, "clickThroughUrl")
	width := intValue(raw, "width")
	height := intValue(raw, "height")

	creativeType := "html"
	if width > 0 && height > 0 {
		creativeType = "banner"
	}

	bannerCode := strings.TrimSpace(str(raw, "code"))
	if bannerCode == "" {
		bannerCode = bannerAnchor(trackingURL, imageURL)
	}

	ad := newAd("awin", creativeID, advertiserID, raw)
	ad.CreativeType = creativeType
	ad.TrackingURL = trackingURL
	ad.AdvertName = advertName(width, height, advertiserID, name, creativeID)
	ad.BannerCode = bannerCode
	ad.ImageURL = imageURL
	ad.Width = width
	ad.Height = height
	return ad, nil
}
