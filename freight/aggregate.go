package freight

import (
	"errors"

	"github.com/shopspring/decimal"
)

// VolumetricDensityKgPerM3 converts cubic volume into an estimated weight
const VolumetricDensityKgPerM3 = 300

// Totals is the aggregated view of a package set
type Totals struct {
	TotalVolumeM3     decimal.Decimal `json:"total_volume_m3"`
	EstimatedWeightKg decimal.Decimal `json:"estimated_weight_kg"`
}

// Aggregate sums the volume of every measurement and derives the volumetric weight.
// An empty list yields zero totals.
func Aggregate(measurements []Measurement) (Totals, error) {
	total := decimal.Zero
	for i, m := range measurements {
		if err := m.Validate(); err != nil {
			var fe *FieldError
			if errors.As(err, &fe) {
				fe.Field = "measurements." + fe.Field
				fe.Index = i
			}
			return Totals{}, err
		}
		total = total.Add(m.VolumeM3())
	}

	return Totals{
		TotalVolumeM3:     total,
		EstimatedWeightKg: EstimateWeight(total),
	}, nil
}

// EstimateWeight applies the fixed volumetric density to a volume in m³
func EstimateWeight(volumeM3 decimal.Decimal) decimal.Decimal {
	return volumeM3.Mul(decimal.NewFromInt(VolumetricDensityKgPerM3))
}

// ChargeableWeight picks the larger of the declared and the volumetric weight
func ChargeableWeight(declaredKg, estimatedKg decimal.Decimal) decimal.Decimal {
	return decimal.Max(declaredKg, estimatedKg)
}
