package domain

import "errors"

// Record-level failures. Wrapped with context via fmt.Errorf and matched with errors.Is.
var (
	ErrFieldMissing            = errors.New("required field missing")
	ErrMalformedValue          = errors.New("malformed field value")
	ErrInvalidUnit             = errors.New("invalid unit")
	ErrInvalidPeriod           = errors.New("invalid period")
	ErrMissingConversionFactor = errors.New("missing conversion factor")
	ErrUnknownFuelReference    = errors.New("meal references undeclared fuel")
)

// Batch-level conditions. These are reported as warnings and never abort a batch.
var (
	ErrNoAuthorityRecord = errors.New("no local authority record in batch")
	ErrInvalidState      = errors.New("survey parser used out of order")
)
