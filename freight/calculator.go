package freight

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places kept on monetary results
const MoneyPlaces = 2

var (
	kgPerTon       = decimal.NewFromInt(1000)
	hundredPercent = decimal.NewFromInt(100)
)

// Breakdown exposes every term of a freight computation
type Breakdown struct {
	WeightKg        decimal.Decimal `json:"weight_kg"`
	Tons            decimal.Decimal `json:"tons"`
	WeightComponent decimal.Decimal `json:"weight_component"`
	TollComponent   decimal.Decimal `json:"toll_component"`
	ValueComponent  decimal.Decimal `json:"value_component"`
	Raw             decimal.Decimal `json:"raw"`
	MinimumFreight  decimal.Decimal `json:"minimum_freight"`
	MinimumApplied  bool            `json:"minimum_applied"`
	ComputedFreight decimal.Decimal `json:"computed_freight"`
}

// Calculate prices a shipment against a rate table.
// The minimum and zero floors are applied once, after the three additive terms.
func Calculate(rate RateTable, weightKg, volumeM3, invoiceValue decimal.Decimal) (Breakdown, error) {
	if !rate.Active {
		return Breakdown{}, &RateUnavailableError{CarrierID: rate.CarrierID}
	}

	tons := weightKg.Div(kgPerTon)
	weightComponent := rate.RatePerTon.Mul(tons)
	tollComponent := rate.TollPerCubicMeter.Mul(volumeM3)
	valueComponent := rate.PercentOfValue.Div(hundredPercent).Mul(invoiceValue)
	raw := weightComponent.Add(tollComponent).Add(valueComponent)

	computed := decimal.Max(raw, rate.MinimumFreight, decimal.Zero)

	return Breakdown{
		WeightKg:        weightKg,
		Tons:            tons,
		WeightComponent: weightComponent,
		TollComponent:   tollComponent,
		ValueComponent:  valueComponent,
		Raw:             raw,
		MinimumFreight:  rate.MinimumFreight,
		MinimumApplied:  raw.LessThan(rate.MinimumFreight),
		ComputedFreight: computed.Round(MoneyPlaces),
	}, nil
}
