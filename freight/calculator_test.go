package freight

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRate() RateTable {
	return RateTable{
		CarrierID:         7,
		Name:              "Rapido Sul",
		Active:            true,
		RatePerTon:        d("200"),
		TollPerCubicMeter: d("50"),
		PercentOfValue:    d("2"),
		MinimumFreight:    d("80"),
	}
}

func TestCalculate(t *testing.T) {
	t.Run("MinimumFloorEndToEnd", func(t *testing.T) {
		totals, err := Aggregate([]Measurement{{Length: d("50"), Height: d("40"), Width: d("30"), Count: 2}})
		require.NoError(t, err)

		weight := ChargeableWeight(decimal.Zero, totals.EstimatedWeightKg)
		b, err := Calculate(sampleRate(), weight, totals.TotalVolumeM3, d("1000"))
		require.NoError(t, err)

		assert.True(t, b.WeightComponent.Equal(d("7.2")), "weight component %s", b.WeightComponent)
		assert.True(t, b.TollComponent.Equal(d("6")), "toll component %s", b.TollComponent)
		assert.True(t, b.ValueComponent.Equal(d("20")), "value component %s", b.ValueComponent)
		assert.True(t, b.Raw.Equal(d("33.2")), "raw %s", b.Raw)
		assert.True(t, b.MinimumApplied)
		assert.Equal(t, "80", b.ComputedFreight.String())
	})

	t.Run("AboveMinimum", func(t *testing.T) {
		b, err := Calculate(sampleRate(), d("1500"), d("2"), d("10000"))
		require.NoError(t, err)
		// 300 + 100 + 200
		assert.True(t, b.ComputedFreight.Equal(d("600")))
		assert.False(t, b.MinimumApplied)
	})

	t.Run("RoundsToCents", func(t *testing.T) {
		rate := sampleRate()
		rate.MinimumFreight = decimal.Zero
		b, err := Calculate(rate, d("333"), decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, "66.6", b.ComputedFreight.String())

		b, err = Calculate(rate, d("0.333"), decimal.Zero, decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, "0.07", b.ComputedFreight.String())
	})

	t.Run("NeverBelowZero", func(t *testing.T) {
		rate := sampleRate()
		rate.MinimumFreight = decimal.Zero
		rate.PercentOfValue = d("-50")
		b, err := Calculate(rate, d("10"), d("0.1"), d("1000"))
		require.NoError(t, err)
		assert.True(t, b.Raw.IsNegative())
		assert.True(t, b.ComputedFreight.IsZero())
	})

	t.Run("InactiveRate", func(t *testing.T) {
		rate := sampleRate()
		rate.Active = false
		_, err := Calculate(rate, d("10"), d("0.1"), d("1000"))
		require.Error(t, err)
		assert.True(t, IsRateUnavailable(err))

		var rue *RateUnavailableError
		require.ErrorAs(t, err, &rue)
		assert.Equal(t, uint(7), rue.CarrierID)
	})
}

func TestCalculateMonotonic(t *testing.T) {
	rate := sampleRate()
	steps := []string{"0", "1", "10", "250.5", "999", "5000"}

	price := func(w, v, i string) decimal.Decimal {
		b, err := Calculate(rate, d(w), d(v), d(i))
		require.NoError(t, err)
		return b.ComputedFreight
	}

	for i := 1; i < len(steps); i++ {
		lo, hi := steps[i-1], steps[i]
		assert.True(t, price(hi, "1", "100").GreaterThanOrEqual(price(lo, "1", "100")), "weight %s -> %s", lo, hi)
		assert.True(t, price("100", hi, "100").GreaterThanOrEqual(price("100", lo, "100")), "volume %s -> %s", lo, hi)
		assert.True(t, price("100", "1", hi).GreaterThanOrEqual(price("100", "1", lo)), "value %s -> %s", lo, hi)
	}
}

func TestCalculateFloorHolds(t *testing.T) {
	rate := sampleRate()
	inputs := [][3]string{
		{"0", "0", "0"},
		{"1", "0.001", "1"},
		{"36", "0.12", "1000"},
		{"10000", "40", "250000"},
	}
	for _, in := range inputs {
		b, err := Calculate(rate, d(in[0]), d(in[1]), d(in[2]))
		require.NoError(t, err)
		assert.True(t, b.ComputedFreight.GreaterThanOrEqual(rate.MinimumFreight))
		assert.False(t, b.ComputedFreight.IsNegative())
	}
}

func TestRateTable(t *testing.T) {
	t.Run("ValidateRejectsNegative", func(t *testing.T) {
		rate := sampleRate()
		rate.TollPerCubicMeter = d("-1")
		err := rate.Validate()
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Contains(t, err.Error(), "toll_per_cubic_meter")
	})

	t.Run("ValidateTier", func(t *testing.T) {
		rate := sampleRate()
		rate.WeightTierPrices[2] = d("-3")
		err := rate.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "weight_tier_150kg")
	})

	t.Run("NewRateTable", func(t *testing.T) {
		rate, err := NewRateTable(sampleRate())
		require.NoError(t, err)
		assert.Equal(t, "Rapido Sul", rate.Name)

		blank := sampleRate()
		blank.Name = "  "
		_, err = NewRateTable(blank)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "name", fe.Field)
	})

	t.Run("ValidateScale", func(t *testing.T) {
		rate := sampleRate()
		rate.WeightTierPrices[0] = d("25.005")
		var fe *FieldError
		require.ErrorAs(t, rate.Validate(), &fe)
		assert.Equal(t, "weight_tier_50kg", fe.Field)

		rate = sampleRate()
		rate.PercentOfValue = d("2.00001")
		require.ErrorAs(t, rate.Validate(), &fe)
		assert.Equal(t, "percent_of_value", fe.Field)

		rate = sampleRate()
		rate.MinimumFreight = d("80.50")
		assert.NoError(t, rate.Validate())
	})
}
