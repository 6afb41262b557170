// Package validation provides centralized input validation for pqbench.
package validation

import (
	"fmt"

	"github.com/xtxerr/pqbench/internal/errors"
)

// =============================================================================
// Month Range Validation
// =============================================================================

const (
	// MinMonth is January.
	MinMonth = 1
	// MaxMonth is December.
	MaxMonth = 12
)

// ValidateMonthRange checks that start and stop are calendar months and
// that the range is not inverted.
func ValidateMonthRange(start, stop int) error {
	if start < MinMonth || start > MaxMonth || stop < MinMonth || stop > MaxMonth {
		return fmt.Errorf("month_start (%d) and month_stop (%d) must be between %d (Jan) and %d (Dec): %w",
			start, stop, MinMonth, MaxMonth, errors.ErrInvalidMonthRange)
	}
	if start > stop {
		return fmt.Errorf("month_start (%d) cannot be greater than month_stop (%d): %w",
			start, stop, errors.ErrInvalidMonthRange)
	}
	return nil
}

// =============================================================================
// Sample Size Validation
// =============================================================================

// ValidateSampleSizes checks that at least one size is given and that every
// size is positive and unique.
func ValidateSampleSizes(sizes []int64) error {
	if len(sizes) == 0 {
		return fmt.Errorf("at least one sample size is required: %w", errors.ErrInvalidSampleSize)
	}

	seen := make(map[int64]struct{}, len(sizes))
	for _, n := range sizes {
		if n <= 0 {
			return fmt.Errorf("sample size %d must be positive: %w", n, errors.ErrInvalidSampleSize)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("sample size %d listed twice: %w", n, errors.ErrInvalidSampleSize)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// =============================================================================
// Name Validation
// =============================================================================

// ValidateNames checks that every name appears in known and none repeats.
func ValidateNames(kind string, names, known []string) error {
	if len(names) == 0 {
		return errors.NewMissingField(kind)
	}

	allowed := make(map[string]struct{}, len(known))
	for _, k := range known {
		allowed[k] = struct{}{}
	}

	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := allowed[n]; !ok {
			return fmt.Errorf("%s %q (known: %v): %w", kind, n, known, errors.ErrUnknownAdapter)
		}
		if _, dup := seen[n]; dup {
			return errors.NewInvalidValue(kind, n, "listed twice")
		}
		seen[n] = struct{}{}
	}
	return nil
}
