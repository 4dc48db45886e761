package freight

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WeightTierLimitsKg are the upper bounds of the carrier weight bands
var WeightTierLimitsKg = [5]int64{50, 100, 150, 200, 300}

// RateTable is the read-only pricing snapshot of one carrier taken at quoting time
type RateTable struct {
	CarrierID         uint
	Name              string
	Active            bool
	RatePerTon        decimal.Decimal
	MinimumFreight    decimal.Decimal
	TollPerCubicMeter decimal.Decimal
	PercentOfValue    decimal.Decimal
	WeightTierPrices  [5]decimal.Decimal
}

// NewRateTable validates and returns a rate table
func NewRateTable(r RateTable) (RateTable, error) {
	if strings.TrimSpace(r.Name) == "" {
		return RateTable{}, newFieldError("name", "is required")
	}
	if err := r.Validate(); err != nil {
		return RateTable{}, err
	}
	return r, nil
}

// Validate rejects negative pricing coefficients and values the rate columns cannot hold
func (r RateTable) Validate() error {
	coefficients := []struct {
		field   string
		value   decimal.Decimal
		numeric Numeric
	}{
		{"rate_per_ton", r.RatePerTon, RateNumeric},
		{"minimum_freight", r.MinimumFreight, RateNumeric},
		{"toll_per_cubic_meter", r.TollPerCubicMeter, RateNumeric},
		{"percent_of_value", r.PercentOfValue, PercentNumeric},
	}
	for _, c := range coefficients {
		if c.value.IsNegative() {
			return newFieldError(c.field, "must not be negative")
		}
		if err := c.numeric.Check(c.field, c.value); err != nil {
			return err
		}
	}
	for i, p := range r.WeightTierPrices {
		field := fmt.Sprintf("weight_tier_%dkg", WeightTierLimitsKg[i])
		if p.IsNegative() {
			return newFieldError(field, "must not be negative")
		}
		if err := RateNumeric.Check(field, p); err != nil {
			return err
		}
	}
	return nil
}
