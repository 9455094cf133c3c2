package main

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCoefficients matches any MissingCoefficientError
	ErrMissingCoefficients = errors.New("coefficients not found")
	// ErrInvalidSelection matches any InvalidSelectionError
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrNoSavedScenarios is returned when exporting an empty session
	ErrNoSavedScenarios = errors.New("save at least one scenario to export")
)

// MissingCoefficientError reports a country/severity pair with no coefficient set.
// Callers must not continue to the cost-benefit step.
type MissingCoefficientError struct {
	Key ContextKey
}

func (e *MissingCoefficientError) Error() string {
	return fmt.Sprintf("coefficients for %s (%s scenario) not found", e.Key.Country, e.Key.Severity)
}

func (e *MissingCoefficientError) Is(target error) bool {
	return target == ErrMissingCoefficients
}

// InvalidSelectionError reports a value outside its attribute group
type InvalidSelectionError struct {
	Field string
	Value string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func (e *InvalidSelectionError) Is(target error) bool {
	return target == ErrInvalidSelection
}
