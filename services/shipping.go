package services

import (
	"strings"

	"github.com/kendall-kelly/tee-store-api/config"
	"github.com/shopspring/decimal"
)

// ShippingRates prices delivery by region
type ShippingRates struct {
	reduced     map[string]struct{}
	ReducedFee  decimal.Decimal
	StandardFee decimal.Decimal
}

// NewShippingRates builds the rate table from config
func NewShippingRates(cfg *config.Config) ShippingRates {
	return NewShippingRatesFor(cfg.ShippingReducedRegions, cfg.ShippingReducedFee, cfg.ShippingStandardFee)
}

// NewShippingRatesFor builds a rate table from explicit values
func NewShippingRatesFor(reducedRegions []string, reducedFee, standardFee decimal.Decimal) ShippingRates {
	reduced := make(map[string]struct{}, len(reducedRegions))
	for _, r := range reducedRegions {
		reduced[normalizeRegion(r)] = struct{}{}
	}
	return ShippingRates{reduced: reduced, ReducedFee: reducedFee, StandardFee: standardFee}
}

// Cost returns the delivery fee for region. An empty region costs nothing
// because checkout refuses to proceed without one.
func (r ShippingRates) Cost(region string) decimal.Decimal {
	key := normalizeRegion(region)
	if key == "" {
		return decimal.Zero
	}
	if _, ok := r.reduced[key]; ok {
		return r.ReducedFee
	}
	return r.StandardFee
}

func normalizeRegion(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}
