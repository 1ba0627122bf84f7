package mapper

import (
	"strings"

	"adsync/internal/models"
	"adsync/internal/network"
)

// CJMapper normalizes CJ advertiser-lookup and link-search records. The
// client flattens the XML, so keys carry the API's hyphenated names and
// '/'-joined nesting (e.g. "primary-category/child").
type CJMapper struct{}

func (CJMapper) Network() string {
	return "cj"
}

func (m CJMapper) MapAdvertiser(raw network.Raw) (models.Advertiser, error) {
	id := str(raw, "advertiser-id")
	if id == "" {
		return models.Advertiser{}, &MappingError{Network: "cj", Field: "advertiser-id"}
	}

	status := "paused"
	if strings.EqualFold(str(raw, "account-status"), "active") {
		status = "active"
	}

	advertiser := newAdvertiser("cj", id, raw)
	advertiser.Name = str(raw, "advertiser-name")
	advertiser.Status = status
	advertiser.WebsiteURL = str(raw, "program-url")
	advertiser.Category = str(raw, "primary-category/child")
	advertiser.EPC = decimalValue(raw, "seven-day-epc")
	return advertiser, nil
}

func (m CJMapper) MapAd(raw network.Raw, advertiserID uint64) (models.Ad, error) {
	linkID := str(raw, "link-id")
	if linkID == "" {
		return models.Ad{}, &MappingError{Network: "cj", Field: "link-id"}
	}

	name := str(raw, "link-name", "description")
	trackingURL := str(raw, "click-url", "clickUrl")
	width := intValue(raw, "creative-width")
	height := intValue(raw, "creative-height")

	linkType := strings.ToLower(str(raw, "link-type"))
	creativeType := "html"
	switch {
	case strings.Contains(linkType, "banner") && width > 0 && height > 0:
		creativeType = "banner"
	case strings.Contains(linkType, "text"),
		strings.Contains(linkType, "coupon"),
		strings.Contains(linkType, "voucher"):
		creativeType = "text"
	}

	ad := newAd("cj", linkID, advertiserID, raw)
	ad.CreativeType = creativeType
	ad.TrackingURL = trackingURL
	ad.DestinationURL = str(raw, "destination")
	ad.Status = m.linkStatus(raw)
	ad.EPC = decimalValue(raw, "seven-day-epc")
	ad.AdvertName = advertName(width, height, advertiserID, name, linkID)
	ad.Width = width
	ad.Height = height

	bannerCode := strings.TrimSpace(str(raw, "link-code-html"))
	switch {
	case bannerCode != "":
		ad.BannerCode = bannerCode
	case creativeType == "text":
		linkText := name
		if linkText == "" {
			linkText = "View offer"
		}
		if code := str(raw, "coupon-code"); code != "" {
			linkText = linkText + " (Code: " + code + ")"
		}
		ad.BannerCode = textAnchor(trackingURL, linkText)
	default:
		ad.BannerCode = bannerAnchor(trackingURL, str(raw, "creative-url"))
		ad.ImageURL = str(raw, "creative-url")
	}
	return ad, nil
}

// linkStatus requires the double approval CJ reports: both the link
// status and the relationship status must be approved/active.
func (m CJMapper) linkStatus(raw network.Raw) string {
	linkOK := approvedStatus(str(raw, "status", "link-status"))
	relationship := str(raw, "relationship-status")
	relationshipOK := relationship == "" || approvedStatus(relationship)
	if linkOK && relationshipOK {
		return "active"
	}
	return "paused"
}

func approvedStatus(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "approved", "active", "joined":
		return true
	default:
		return false
	}
}
