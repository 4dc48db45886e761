// Package businessflow contains the use cases of the freight desk: shipment intake, carrier
// administration, quoting, reconciliation and the dashboard
package businessflow

import (
	"errors"
	"fmt"

	"github.com/amirphl/freightdesk/freight"
	"github.com/amirphl/freightdesk/models"
)

// Business flow error constants
var (
	// Lookup errors
	ErrNotFound         = errors.New("not found")
	ErrShipmentNotFound = fmt.Errorf("shipment %w", ErrNotFound)
	ErrCarrierNotFound  = fmt.Errorf("carrier %w", ErrNotFound)
	ErrQuoteNotFound    = fmt.Errorf("quote %w", ErrNotFound)

	// Storage conflicts
	ErrStorageConflict       = errors.New("storage conflict")
	ErrInvoiceNumberConflict = fmt.Errorf("%w: invoice number belongs to another shipment's quote", ErrStorageConflict)
	ErrDuplicateQuote        = fmt.Errorf("%w: shipment already has a quote", ErrStorageConflict)
	ErrOrderNumberExists     = fmt.Errorf("%w: order number already exists", ErrStorageConflict)
	ErrCarrierNameExists     = fmt.Errorf("%w: carrier name already exists", ErrStorageConflict)
	ErrQuoteBusy             = fmt.Errorf("%w: another submission for this shipment is in progress", ErrStorageConflict)

	// Input errors, all wrapping freight.ErrValidation
	ErrStatusNotSettable     = fmt.Errorf("%w: status must be approved or rejected", freight.ErrValidation)
	ErrInvalidPage           = fmt.Errorf("%w: page must be at least 1", freight.ErrValidation)
	ErrInvalidPageSize       = fmt.Errorf("%w: page size must be between 1 and 100", freight.ErrValidation)
	ErrStartDateAfterEndDate = fmt.Errorf("%w: start date cannot be after end date", freight.ErrValidation)
	ErrInvalidDate           = fmt.Errorf("%w: dates must be YYYY-MM-DD or RFC3339", freight.ErrValidation)
	ErrEmptyLedger           = fmt.Errorf("%w: ledger has no readable lines", freight.ErrValidation)
	ErrTooManyLines          = fmt.Errorf("%w: too many invoice lines", freight.ErrValidation)
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsShipmentNotFound(err error) bool {
	return errors.Is(err, ErrShipmentNotFound)
}

func IsCarrierNotFound(err error) bool {
	return errors.Is(err, ErrCarrierNotFound)
}

func IsQuoteNotFound(err error) bool {
	return errors.Is(err, ErrQuoteNotFound)
}

func IsStorageConflict(err error) bool {
	return errors.Is(err, ErrStorageConflict)
}

func IsInvoiceNumberConflict(err error) bool {
	return errors.Is(err, ErrInvoiceNumberConflict)
}

func IsDuplicateQuote(err error) bool {
	return errors.Is(err, ErrDuplicateQuote)
}

func IsValidation(err error) bool {
	return freight.IsValidation(err)
}

func IsRateUnavailable(err error) bool {
	return freight.IsRateUnavailable(err)
}

func IsInvalidTransition(err error) bool {
	return errors.Is(err, models.ErrInvalidTransition)
}

// conflictError wraps a storage error so it also matches ErrStorageConflict
type conflictError struct {
	sentinel error
	cause    error
}

func (e *conflictError) Error() string {
	return fmt.Sprintf("%v: %v", e.sentinel, e.cause)
}

func (e *conflictError) Unwrap() []error {
	return []error{e.sentinel, e.cause}
}

func asConflict(sentinel, cause error) error {
	return &conflictError{sentinel: sentinel, cause: cause}
}
