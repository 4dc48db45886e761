// Package freight contains the pricing and reconciliation engine: package aggregation,
// the freight calculator and the invoice matcher. Everything here is pure and storage agnostic.
package freight

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the root of every input rejection raised by the engine
	ErrValidation = errors.New("validation failed")

	// ErrRateUnavailable is returned when a carrier rate table cannot be used for pricing
	ErrRateUnavailable = errors.New("rate unavailable")
)

// FieldError names the offending field of a rejected input.
// Index is the position inside a list input, or -1 when the field is not part of a list.
type FieldError struct {
	Field  string
	Index  int
	Reason string
}

func (e *FieldError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrValidation
}

func newFieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Index: -1, Reason: reason}
}

// RateUnavailableError carries the carrier whose table was refused
type RateUnavailableError struct {
	CarrierID uint
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("carrier %d rate table is inactive", e.CarrierID)
}

func (e *RateUnavailableError) Unwrap() error {
	return ErrRateUnavailable
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsRateUnavailable(err error) bool {
	return errors.Is(err, ErrRateUnavailable)
}
