package mapper

import (
	"strings"

	"adsync/internal/models"
	"adsync/internal/network"
)

// FlexOffersMapper normalizes FlexOffers advertiser and promotion
// records.
type FlexOffersMapper struct{}

func (FlexOffersMapper) Network() string {
	return "flexoffers"
}

func (m FlexOffersMapper) MapAdvertiser(raw network.Raw) (models.Advertiser, error) {
	id := str(raw, "advertiserId", "id")
	if id == "" {
		return models.Advertiser{}, &MappingError{Network: "flexoffers", Field: "advertiserId"}
	}

	status := "paused"
	if approvedStatus(str(raw, "programStatus", "status")) {
		status = "active"
	}

	advertiser := newAdvertiser("flexoffers", id, raw)
	advertiser.Name = str(raw, "advertiserName", "name")
	advertiser.Status = status
	advertiser.WebsiteURL = str(raw, "domainUrl", "programUrl")
	advertiser.Category = str(raw, "categoryName", "category")
	advertiser.EPC = decimalValue(raw, "epcSevenDays", "epc")
	return advertiser, nil
}

func (m FlexOffersMapper) MapAd(raw network.Raw, advertiserID uint64) (models.Ad, error) {
	linkID := str(raw, "linkId", "id")
	if linkID == "" {
		return models.Ad{}, &MappingError{Network: "flexoffers", Field: "linkId"}
	}

	name := str(raw, "linkName", "promotionalText", "name")
	trackingURL := str(raw, "linkUrl", "trackingUrl")
	imageURL := str(raw, "imageUrl")
	width := intValue(raw, "bannerWidth", "width")
	height := intValue(raw, "bannerHeight", "height")

	promotionalType := strings.ToLower(str(raw, "promotionalTypeName", "linkType"))
	creativeType := "html"
	switch {
	case width > 0 && height > 0:
		creativeType = "banner"
	case strings.Contains(promotionalType, "text"),
		strings.Contains(promotionalType, "coupon"),
		strings.Contains(promotionalType, "voucher"):
		creativeType = "text"
	}
	if creativeType != "banner" {
		width, height, imageURL = 0, 0, ""
	}

	status := "active"
	switch strings.ToLower(str(raw, "status")) {
	case "expired", "inactive", "paused":
		status = "paused"
	}

	ad := newAd("flexoffers", linkID, advertiserID, raw)
	ad.CreativeType = creativeType
	ad.TrackingURL = trackingURL
	ad.DestinationURL = str(raw, "destinationUrl")
	ad.Status = status
	ad.EPC = decimalValue(raw, "epcSevenDays", "epc")
	ad.AdvertName = advertName(width, height, advertiserID, name, linkID)
	ad.ImageURL = imageURL
	ad.Width = width
	ad.Height = height

	bannerCode := strings.TrimSpace(str(raw, "htmlCode"))
	switch {
	case bannerCode != "":
		ad.BannerCode = bannerCode
	case creativeType == "banner":
		ad.BannerCode = bannerAnchor(trackingURL, imageURL)
	default:
		linkText := name
		if linkText == "" {
			linkText = "View offer"
		}
		if code := str(raw, "couponCode"); code != "" {
			linkText = linkText + " (Code: " + code + ")"
		}
		ad.BannerCode = textAnchor(trackingURL, linkText)
	}
	return ad, nil
}
