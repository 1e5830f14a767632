// Package catalog defines the two fixed asset catalogs known at startup:
// hardware SKUs and cloud GPU rental types.
package catalog

// HardwareAsset is one hardware SKU tracked by the oracle.
type HardwareAsset struct {
	ID          string   // e.g. "GPU_RTX4090"
	Name        string   // human-readable display name
	SearchTerms []string // terms adapters use to locate listings
	BasePrice   float64  // nominal USD price, used to seed the mock adapter
}

// RentalType is one cloud GPU rental SKU tracked by the oracle.
type RentalType struct {
	ID           string  // e.g. "H100_80GB"
	DisplayQuery string  // canonical search string against the marketplace
	VRAMGB       int     // nominal VRAM
	BasePrice    float64 // nominal USD/hr, used by the fallback generator
}

// Hardware is the fixed catalog of hardware assets.
var Hardware = []HardwareAsset{
	{ID: "GPU_RTX4090", Name: "NVIDIA GeForce RTX 4090", SearchTerms: []string{"RTX 4090", "4090"}, BasePrice: 1599.99},
	{ID: "GPU_RTX4080", Name: "NVIDIA GeForce RTX 4080", SearchTerms: []string{"RTX 4080", "4080"}, BasePrice: 1199.99},
	{ID: "GPU_RTX4070TI", Name: "NVIDIA GeForce RTX 4070 Ti", SearchTerms: []string{"RTX 4070 Ti", "4070 Ti"}, BasePrice: 799.99},
	{ID: "GPU_RX7900XTX", Name: "AMD Radeon RX 7900 XTX", SearchTerms: []string{"RX 7900 XTX", "7900 XTX"}, BasePrice: 949.99},
	{ID: "RAM_DDR5_32", Name: "DDR5 32GB (2x16GB) Kit", SearchTerms: []string{"DDR5 32GB", "DDR5-32GB kit"}, BasePrice: 89.99},
	{ID: "RAM_DDR5_64", Name: "DDR5 64GB (2x32GB) Kit", SearchTerms: []string{"DDR5 64GB", "DDR5-64GB kit"}, BasePrice: 169.99},
}

// Rental is the fixed catalog of cloud GPU rental types.
var Rental = []RentalType{
	{ID: "H100_80GB", DisplayQuery: "H100 80GB", VRAMGB: 80, BasePrice: 2.49},
	{ID: "A100_80GB", DisplayQuery: "A100 80GB", VRAMGB: 80, BasePrice: 1.49},
	{ID: "A100_40GB", DisplayQuery: "A100 40GB", VRAMGB: 40, BasePrice: 1.09},
	{ID: "RTX4090_24GB", DisplayQuery: "RTX 4090 24GB", VRAMGB: 24, BasePrice: 0.39},
	{ID: "L40S_48GB", DisplayQuery: "L40S 48GB", VRAMGB: 48, BasePrice: 0.89},
}

var (
	hardwareByID = indexHardware(Hardware)
	rentalByID   = indexRental(Rental)
)

func indexHardware(assets []HardwareAsset) map[string]HardwareAsset {
	m := make(map[string]HardwareAsset, len(assets))
	for _, a := range assets {
		m[a.ID] = a
	}
	return m
}

func indexRental(types []RentalType) map[string]RentalType {
	m := make(map[string]RentalType, len(types))
	for _, t := range types {
		m[t.ID] = t
	}
	return m
}

// IsHardwareAsset reports whether id names a catalog hardware asset.
func IsHardwareAsset(id string) bool {
	_, ok := hardwareByID[id]
	return ok
}

// GetHardwareAsset looks up a hardware asset by id.
func GetHardwareAsset(id string) (HardwareAsset, bool) {
	a, ok := hardwareByID[id]
	return a, ok
}

// IsRentalType reports whether id names a catalog rental type.
func IsRentalType(id string) bool {
	_, ok := rentalByID[id]
	return ok
}

// GetRentalType looks up a rental type by id.
func GetRentalType(id string) (RentalType, bool) {
	t, ok := rentalByID[id]
	return t, ok
}

// HardwareIDs returns the ids of every hardware asset in catalog order.
func HardwareIDs() []string {
	ids := make([]string, len(Hardware))
	for i, a := range Hardware {
		ids[i] = a.ID
	}
	return ids
}

// RentalIDs returns the ids of every rental type in catalog order.
func RentalIDs() []string {
	ids := make([]string, len(Rental))
	for i, t := range Rental {
		ids[i] = t.ID
	}
	return ids
}
