// Package mapper normalizes raw network records into the canonical
// advertiser/ad schema. Mappers are pure: no I/O, no mutation of the
// input, deterministic output.
package mapper

import (
	"fmt"
	"strings"

	"adsync/internal/models"
	"adsync/internal/network"
)

type Mapper interface {
	Network() string
	MapAdvertiser(raw network.Raw) (models.Advertiser, error)
	MapAd(raw network.Raw, advertiserID uint64) (models.Ad, error)
}

// MappingError marks genuinely malformed input: a record missing its
// mandatory identifier. All other absent fields degrade to defaults.
type MappingError struct {
	Network string
	Field   string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s record is missing %s", e.Network, e.Field)
}

var registry = map[string]Mapper{
	"flexoffers": &FlexOffersMapper{},
	"awin":       &AwinMapper{},
	"cj":         &CJMapper{},
	"impact":     &ImpactMapper{},
}

// Get returns the mapper registered for a network name.
func Get(name string) (Mapper, error) {
	m, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", name)
	}
	return m, nil
}
