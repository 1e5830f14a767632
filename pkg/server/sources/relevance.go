package sources

import (
	"strings"

	"github.com/shopspring/decimal"

	"hwp.dev/oracle/pkg/catalog"
)

// MinHardwarePrice is the USD price floor below which a listing is assumed
// to be an accessory or mispriced junk listing.
var MinHardwarePrice = decimal.NewFromInt(50)

// accessoryBlacklist rejects obvious accessory listings that happen to
// mention a GPU or RAM model in their title.
var accessoryBlacklist = []string{
	"cable", "adapter", "mount", "bracket", "riser", "backplate",
	"sleeve", "case", "fan only", "shroud", "waterblock", "bezel",
}

// IsRelevantListing applies the per-asset relevance predicate: the title
// must contain (case-insensitively) at least one of the asset's catalog
// search terms, must not match the accessory blacklist, and the price must
// clear the hardware price floor. One search term is enough: the catalog
// lists bare model numbers such as "4090" among them, so a title does not
// also need a family keyword.
func IsRelevantListing(assetID, title string, price decimal.Decimal) bool {
	if price.LessThan(MinHardwarePrice) {
		return false
	}

	lowerTitle := strings.ToLower(title)
	for _, bad := range accessoryBlacklist {
		if strings.Contains(lowerTitle, bad) {
			return false
		}
	}

	asset, ok := catalog.GetHardwareAsset(assetID)
	if !ok {
		return false
	}
	for _, term := range asset.SearchTerms {
		if strings.Contains(lowerTitle, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
