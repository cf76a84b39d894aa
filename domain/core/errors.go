package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
//
// Data-quality degeneracy (short series, singular regressions, empty groups)
// never surfaces as an error: the engine returns neutral values instead so
// batch statistics across thousands of genes keep running. The sentinels
// below mark caller/configuration defects, which do fail hard.
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrUnknownDataset = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrUnknownGene    = fmt.Errorf("%w: gene", ErrNotFound)
	ErrRecordNotFound = fmt.Errorf("%w: result record", ErrNotFound)

	// Caller/configuration errors
	ErrInvalidGroups    = errors.New("malformed group specification")
	ErrNoPermutations   = errors.New("permutation count must be positive")
	ErrNoBootstrap      = errors.New("bootstrap replicate count must be positive")
	ErrInvalidBlockSize = errors.New("block size out of range")
	ErrInvalidPeriod    = errors.New("period must be positive")
	ErrInvalidPValue    = errors.New("p-value outside [0,1]")
	ErrLengthMismatch   = errors.New("input lengths do not match")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed validation mismatch")
)

// NewNotFoundError builds a not-found error with resource context
func NewNotFoundError(resource, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// NewValidationError reports a caller-supplied value that fails validation
func NewValidationError(field, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// IsNotFoundError checks whether an error is any not-found sentinel
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCallerError checks whether an error marks a caller/configuration defect
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidGroups) ||
		errors.Is(err, ErrNoPermutations) ||
		errors.Is(err, ErrNoBootstrap) ||
		errors.Is(err, ErrInvalidBlockSize) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidPValue) ||
		errors.Is(err, ErrLengthMismatch)
}
