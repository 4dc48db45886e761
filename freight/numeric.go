package freight

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Numeric is the precision and scale of the column an input is stored in.
// Inputs are checked against it before any calculation so the priced value is the stored value.
type Numeric struct {
	Precision int32
	Scale     int32
}

var (
	DimensionNumeric = Numeric{Precision: 10, Scale: 2}
	WeightNumeric    = Numeric{Precision: 14, Scale: 3}
	AmountNumeric    = Numeric{Precision: 14, Scale: 2}
	RateNumeric      = Numeric{Precision: 12, Scale: 2}
	PercentNumeric   = Numeric{Precision: 8, Scale: 4}
)

// Check rejects values with more decimal places than Scale or more integer digits than the column holds
func (n Numeric) Check(field string, v decimal.Decimal) error {
	if !v.Equal(v.Truncate(n.Scale)) {
		return newFieldError(field, fmt.Sprintf("must have at most %d decimal places", n.Scale))
	}
	if v.Abs().GreaterThanOrEqual(decimal.New(1, n.Precision-n.Scale)) {
		return newFieldError(field, fmt.Sprintf("must be below %s", decimal.New(1, n.Precision-n.Scale)))
	}
	return nil
}
