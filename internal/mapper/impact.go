package mapper

import (
	"strings"

	"adsync/internal/models"
	"adsync/internal/network"
)

// ImpactMapper normalizes Impact campaign and ad records. Campaigns play
// the advertiser role; ads arrive pre-grouped by CampaignId.
type ImpactMapper struct{}

func (ImpactMapper) Network() string {
	return "impact"
}

func (m ImpactMapper) MapAdvertiser(raw network.Raw) (models.Advertiser, error) {
	id := str(raw, "CampaignId")
	if id == "" {
		return models.Advertiser{}, &MappingError{Network: "impact", Field: "CampaignId"}
	}

	status := "paused"
	if str(raw, "ContractStatus") == "Active" {
		status = "active"
	}

	advertiser := newAdvertiser("impact", id, raw)
	advertiser.Name = str(raw, "CampaignName")
	advertiser.Status = status
	advertiser.WebsiteURL = str(raw, "CampaignUrl")
	// Impact does not report a category or EPC on campaigns.
	return advertiser, nil
}

func (m ImpactMapper) MapAd(raw network.Raw, advertiserID uint64) (models.Ad, error) {
	adID := str(raw, "Id")
	if adID == "" {
		return models.Ad{}, &MappingError{Network: "impact", Field: "Id"}
	}

	name := str(raw, "Name", "Description")
	trackingURL := str(raw, "TrackingLink")
	imageURL := str(raw, "CreativeUrl")
	width := intValue(raw, "Width")
	height := intValue(raw, "Height")

	adType := strings.ToUpper(str(raw, "Type"))
	creativeType := "html"
	switch {
	case strings.Contains(adType, "BANNER") && width > 0 && height > 0:
		creativeType = "banner"
	case strings.Contains(adType, "TEXT"), strings.Contains(adType, "COUPON"):
		creativeType = "text"
	}
	if creativeType != "banner" {
		width, height, imageURL = 0, 0, ""
	}

	status := "active"
	switch strings.ToUpper(str(raw, "Status", "State")) {
	case "INACTIVE", "EXPIRED", "PAUSED":
		status = "paused"
	}

	ad := newAd("impact", adID, advertiserID, raw)
	ad.CreativeType = creativeType
	ad.TrackingURL = trackingURL
	ad.DestinationURL = str(raw, "LandingPageUrl")
	ad.Status = status
	ad.AdvertName = advertName(width, height, advertiserID, name, adID)
	ad.ImageURL = imageURL
	ad.Width = width
	ad.Height = height

	if creativeType == "banner" {
		ad.BannerCode = bannerAnchor(trackingURL, imageURL)
	} else {
		linkText := name
		if linkText == "" {
			linkText = "View offer"
		}
		ad.BannerCode = textAnchor(trackingURL, linkText)
	}
	return ad, nil
}
