package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/utafrali/catalogsearch/internal/domain"
)

type brandDef struct {
	Name   string
	Prefix string
}

var brands = []brandDef{
	{"Acme", "ACM"},
	{"Bosch", "BSH"},
	{"Brembo", "BRM"},
	{"Denso", "DNS"},
	{"Mahle", "MHL"},
	{"Valeo", "VLO"},
	{"Zenith", "ZNT"},
	{"Febi", "FEB"},
}

type categoryDef struct {
	Name   string
	Prefix string
	Items  []string
	Unit   string
	// price range in cents
	MinPrice, MaxPrice int
}

var categories = []categoryDef{
	{"Brakes", "BRK", []string{"brake pad set", "brake disc", "brake caliper", "brake hose", "brake fluid"}, "EA", 900, 24900},
	{"Filters", "FLT", []string{"oil filter", "air filter", "cabin filter", "fuel filter"}, "EA", 400, 5900},
	{"Ignition", "IGN", []string{"spark plug", "ignition coil", "glow plug"}, "EA", 300, 12900},
	{"Suspension", "SUS", []string{"shock absorber", "coil spring", "control arm", "stabilizer link"}, "EA", 1500, 39900},
	{"Cooling", "COL", []string{"water pump", "radiator", "thermostat", "coolant hose"}, "EA", 800, 45900},
	{"Fluids", "FLD", []string{"engine oil", "gear oil", "coolant concentrate"}, "L", 500, 6900},
	{"Electrical", "ELC", []string{"alternator", "starter motor", "battery", "wiper motor"}, "EA", 2500, 59900},
}

var positions = []string{"front", "rear", "left", "right", "upper", "lower"}

var qualifiers = []string{"premium", "heavy duty", "ceramic", "OEM grade", "performance", "economy"}

// generateProducts builds n deterministic catalog records. The same seed
// always yields the same catalog so reruns upsert instead of growing it.
func generateProducts(rng *rand.Rand, n int) []domain.Product {
	products := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		cat := categories[rng.Intn(len(categories))]
		brand := brands[rng.Intn(len(brands))]
		item := cat.Items[rng.Intn(len(cat.Items))]

		desc := item
		if rng.Float64() < 0.5 {
			desc = positions[rng.Intn(len(positions))] + " " + desc
		}
		if rng.Float64() < 0.4 {
			desc = qualifiers[rng.Intn(len(qualifiers))] + " " + desc
		}

		parts := make([]string, 1+rng.Intn(3))
		for j := range parts {
			parts[j] = fmt.Sprintf("%s%d-%04d", brand.Prefix, j+1, rng.Intn(10000))
		}

		cents := cat.MinPrice + rng.Intn(cat.MaxPrice-cat.MinPrice+1)
		qty := rng.Intn(200)

		products = append(products, domain.Product{
			Code:              fmt.Sprintf("%s-%s-%05d", cat.Prefix, brand.Prefix, i),
			Description:       capitalize(desc),
			Category:          cat.Name,
			Brand:             brand.Name,
			PartNumbers:       parts,
			CurrentPrice:      float64(cents) / 100,
			QuantityAvailable: qty,
			UnitOfMeasure:     cat.Unit,
			// 10% of the catalog is discontinued regardless of stock.
			IsAvailable: qty > 0 && rng.Float64() >= 0.10,
		})
	}
	return products
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
