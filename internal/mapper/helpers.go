package mapper

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"adsync/internal/hash"
	"adsync/internal/models"
	"adsync/internal/network"
)

// scheduleEndDefault is the far-future unix timestamp the rotator treats
// as "no end date".
const scheduleEndDefault = 2650941780

const defaultCampaignName = "General Promotion"

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// str returns the first non-empty string coercion among the given keys.
func str(raw network.Raw, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key]; ok {
			s := coerceString(value)
			if s != "" {
				return s
			}
		}
	}
	return ""
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return ""
	}
}

func intValue(raw network.Raw, keys ...string) int {
	for _, key := range keys {
		if value, ok := raw[key]; ok {
			switch v := value.(type) {
			case float64:
				return int(v)
			case int:
				return v
			case string:
				if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					return parsed
				}
			}
		}
	}
	return 0
}

// decimalValue parses numeric fields that may arrive as numbers, numeric
// strings, or sentinels like "N/A"; anything unparseable becomes 0.
func decimalValue(raw network.Raw, keys ...string) decimal.Decimal {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			return decimal.NewFromFloat(v)
		case int:
			return decimal.NewFromInt(int64(v))
		case string:
			trimmed := strings.TrimSpace(v)
			if trimmed == "" || strings.EqualFold(trimmed, "N/A") {
				continue
			}
			if parsed, err := decimal.NewFromString(trimmed); err == nil {
				return parsed
			}
		}
	}
	return decimal.Zero
}

// sanitizeName strips everything but alphanumerics for use in slugs.
func sanitizeName(name string) string {
	return nonAlphanumeric.ReplaceAllString(name, "")
}

// escapeHTML escapes the five reserved characters for safe anchor text.
func escapeHTML(text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(text)
}

// advertName builds the deterministic rotator slug
// {width}X{height}-{advertiserID}-{sanitizedName}-{itemID}-General.
func advertName(width, height int, advertiserID uint64, name, itemID string) string {
	return fmt.Sprintf("%dX%d-%d-%s-%s-General", width, height, advertiserID, sanitizeName(name), itemID)
}

func bannerAnchor(trackingURL, imageURL string) string {
	return fmt.Sprintf(`<a href="%s" rel="sponsored"><img src="%s" /></a>`, trackingURL, imageURL)
}

func textAnchor(trackingURL, linkText string) string {
	return fmt.Sprintf(`<a href="%s" rel="sponsored">%s</a>`, trackingURL, escapeHTML(linkText))
}

func mustJSON(raw network.Raw) datatypes.JSON {
	payload, err := json.Marshal(raw)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(payload)
}

// newAdvertiser fills the fields every network maps the same way.
func newAdvertiser(networkName, networkAdvertiserID string, raw network.Raw) models.Advertiser {
	return models.Advertiser{
		Network:             networkName,
		NetworkAdvertiserID: networkAdvertiserID,
		Status:              "active",
		IsActive:            true,
		RawHash:             hash.Compute(raw),
		RawJSON:             mustJSON(raw),
	}
}

// newAd fills the uniform rotator defaults; mappers override what the
// network genuinely supplies.
func newAd(networkName, networkAdID string, advertiserID uint64, raw network.Raw) models.Ad {
	return models.Ad{
		AdvertiserID:   advertiserID,
		Network:        networkName,
		NetworkAdID:    networkAdID,
		CreativeType:   "banner",
		Status:         "active",
		RawHash:        hash.Compute(raw),
		RawJSON:        mustJSON(raw),
		CampaignName:   defaultCampaignName,
		EnableStats:    "Y",
		ShowEveryone:   "Y",
		ShowDesktop:    "Y",
		ShowMobile:     "Y",
		ShowTablet:     "Y",
		ShowIOS:        "Y",
		ShowAndroid:    "Y",
		AutoDelete:     "Y",
		AutoDisable:    "N",
		Budget:         decimal.Zero,
		ClickRate:      decimal.Zero,
		ImpressionRate: decimal.Zero,
		StateRequired:  "N",
		GeoCities:      "a:0:{}",
		GeoStates:      "a:0:{}",
		GeoCountries:   "a:0:{}",
		ScheduleStart:  0,
		ScheduleEnd:    scheduleEndDefault,
	}
}
