package models

import (
	"testing"

	"github.com/amirphl/freightdesk/freight"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteStatusTransitions(t *testing.T) {
	tests := []struct {
		from    QuoteStatus
		to      QuoteStatus
		allowed bool
	}{
		{QuoteStatusPending, QuoteStatusApproved, true},
		{QuoteStatusPending, QuoteStatusRejected, true},
		{QuoteStatusApproved, QuoteStatusRejected, true},
		{QuoteStatusRejected, QuoteStatusApproved, true},
		{QuoteStatusPending, QuoteStatusPending, true},
		{QuoteStatusApproved, QuoteStatusApproved, true},
		{QuoteStatusRejected, QuoteStatusRejected, true},
		{QuoteStatusApproved, QuoteStatusPending, false},
		{QuoteStatusRejected, QuoteStatusPending, false},
		{QuoteStatusPending, QuoteStatus("cancelled"), false},
		{QuoteStatus(""), QuoteStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := tt.from.CheckTransition(tt.to)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTransition)

			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.from, te.From)
			assert.Equal(t, tt.to, te.To)
		})
	}
}

func TestQuoteStatusScanValue(t *testing.T) {
	var s QuoteStatus
	require.NoError(t, s.Scan([]byte("approved")))
	assert.Equal(t, QuoteStatusApproved, s)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, QuoteStatus(""), s)

	assert.Error(t, s.Scan(42))

	v, err := QuoteStatusRejected.Value()
	require.NoError(t, err)
	assert.Equal(t, "rejected", v)

	_, err = QuoteStatus("bogus").Value()
	assert.Error(t, err)
}

func TestShipmentPricingWeight(t *testing.T) {
	totals := freight.Totals{TotalVolumeM3: decimal.RequireFromString("0.12"), EstimatedWeightKg: decimal.NewFromInt(36)}

	s := &Shipment{}
	assert.True(t, s.PricingWeightKg(totals).Equal(decimal.NewFromInt(36)))

	declared := decimal.NewFromInt(20)
	s.DeclaredWeightKg = &declared
	assert.True(t, s.PricingWeightKg(totals).Equal(declared))
}

func TestCarrierRateTable(t *testing.T) {
	active := true
	c := &Carrier{
		ID:                3,
		Name:              "Rapido Sul",
		RatePerTon:        decimal.NewFromInt(200),
		MinimumFreight:    decimal.NewFromInt(80),
		TollPerCubicMeter: decimal.NewFromInt(50),
		PercentOfValue:    decimal.NewFromInt(2),
		WeightUpTo150Kg:   decimal.NewFromInt(33),
		IsActive:          &active,
	}

	rt := c.RateTable()
	assert.Equal(t, uint(3), rt.CarrierID)
	assert.True(t, rt.Active)
	assert.True(t, rt.WeightTierPrices[2].Equal(decimal.NewFromInt(33)))

	c.IsActive = nil
	assert.False(t, c.RateTable().Active)
}
