package segment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every *ConfigError.
	ErrInvalidConfig = errors.New("segment: invalid configuration")
	// ErrGrowthAborted reports that a non-terminal rung exceeded its iteration cap.
	ErrGrowthAborted = errors.New("segment: growth aborted, iteration cap exceeded")
	// ErrSegmentationFailed reports that every rung of the ladder was aborted.
	ErrSegmentationFailed = errors.New("segment: segmentation failed")
	// ErrEmptyGrid indicates a grid with no rows or no columns.
	ErrEmptyGrid = errors.New("segment: grid must have at least one row and one column")
	// ErrNonRectangular indicates rows of differing lengths.
	ErrNonRectangular = errors.New("segment: all rows must have the same length")
	// ErrNegativeIntensity indicates a grid cell below zero.
	ErrNegativeIntensity = errors.New("segment: intensities must be non-negative")
)

// ConfigError describes a rejected configuration value.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("segment: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func configErrorf(field string, value interface{}, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}
