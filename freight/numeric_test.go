package freight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericCheck(t *testing.T) {
	tests := []struct {
		numeric Numeric
		value   string
		ok      bool
	}{
		{DimensionNumeric, "10.5", true},
		{DimensionNumeric, "10.50", true},
		{DimensionNumeric, "10.500", true},
		{DimensionNumeric, "10.005", false},
		{DimensionNumeric, "0.004", false},
		{DimensionNumeric, "99999999.99", true},
		{DimensionNumeric, "100000000", false},
		{WeightNumeric, "36.125", true},
		{WeightNumeric, "36.1255", false},
		{PercentNumeric, "0.3125", true},
		{PercentNumeric, "0.31255", false},
		{PercentNumeric, "10000", false},
		{AmountNumeric, "-12.34", true},
		{AmountNumeric, "-12.345", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := tt.numeric.Check("value", d(tt.value))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "value", fe.Field)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestMeasurementScale(t *testing.T) {
	_, err := NewMeasurement(d("10.005"), d("10"), d("10"), 1)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "length", fe.Field)

	_, err = Aggregate([]Measurement{{Length: d("1"), Height: d("1"), Width: d("1"), Count: 1}, {Length: d("1"), Height: d("0.001"), Width: d("1"), Count: 1}})
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "measurements.height", fe.Field)
	assert.Equal(t, 1, fe.Index)
}
