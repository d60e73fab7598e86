package updater

import (
	"fmt"
	"strings"

	"github.com/warpdl/ttcsync/internal/settings"
)

const DefaultServiceDomain = "tamrieltradecentre.com"

// EndpointURL returns the price table download URL for region, e.g.
// https://eu.tamrieltradecentre.com/download/PriceTable.
func EndpointURL(domain string, region settings.Region) (string, error) {
	if domain == "" {
		domain = DefaultServiceDomain
	}
	switch region {
	case settings.RegionUS, settings.RegionEU:
		return fmt.Sprintf("https://%s.%s/download/PriceTable", strings.ToLower(string(region)), domain), nil
	case "":
		return "", ErrNoRegion
	}
	return "", fmt.Errorf("%w: unknown region %q", ErrNotConfigured, region)
}
