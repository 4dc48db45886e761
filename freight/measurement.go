package freight

import (
	"github.com/shopspring/decimal"
)

// Measurement is one package line of a shipment, dimensions in centimeters
type Measurement struct {
	Length decimal.Decimal `json:"length"`
	Height decimal.Decimal `json:"height"`
	Width  decimal.Decimal `json:"width"`
	Count  int             `json:"volume_count"`
}

// NewMeasurement builds a validated measurement
func NewMeasurement(length, height, width decimal.Decimal, count int) (Measurement, error) {
	m := Measurement{Length: length, Height: height, Width: width, Count: count}
	if err := m.Validate(); err != nil {
		return Measurement{}, err
	}
	return m, nil
}

// Validate rejects non-positive geometry, dimensions finer than the stored centimeter scale
// and counts below one
func (m Measurement) Validate() error {
	switch {
	case !m.Length.IsPositive():
		return newFieldError("length", "must be greater than zero")
	case !m.Height.IsPositive():
		return newFieldError("height", "must be greater than zero")
	case !m.Width.IsPositive():
		return newFieldError("width", "must be greater than zero")
	case m.Count < 1:
		return newFieldError("volume_count", "must be at least 1")
	}
	dims := []struct {
		field string
		value decimal.Decimal
	}{
		{"length", m.Length},
		{"height", m.Height},
		{"width", m.Width},
	}
	for _, d := range dims {
		if err := DimensionNumeric.Check(d.field, d.value); err != nil {
			return err
		}
	}
	return nil
}

// VolumeM3 is length*height*width*count converted from cm³ to m³
func (m Measurement) VolumeM3() decimal.Decimal {
	return m.Length.
		Mul(m.Height).
		Mul(m.Width).
		Mul(decimal.NewFromInt(int64(m.Count))).
		Shift(-6)
}
