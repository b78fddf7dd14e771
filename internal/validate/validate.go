package validate

import (
	"fmt"
	"math"
)

// Error reports an input that failed validation, carrying the parameter name
// so API responses can point at the offending field.
type Error struct {
	Param  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Param, e.Reason)
}

func newError(param, reason string) *Error {
	return &Error{Param: param, Reason: reason}
}

// Positive validates that value is a finite number greater than zero.
func Positive(value float64, param string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return newError(param, "must be a finite number")
	}
	if value <= 0 {
		return newError(param, "must be positive")
	}
	return nil
}

// NonNegative validates that value is a finite number greater than or equal to zero.
func NonNegative(value float64, param string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return newError(param, "must be a finite number")
	}
	if value < 0 {
		return newError(param, "must be zero or positive")
	}
	return nil
}

// PositiveInt validates that value is an integer greater than zero.
func PositiveInt(value int, param string) error {
	if value <= 0 {
		return newError(param, "must be a positive integer")
	}
	return nil
}

// Rate validates that value is a periodic rate on the open domain (-1, +inf).
// A rate of -1 or below would make the discount factor zero or negative.
func Rate(value float64, param string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return newError(param, "must be a finite number")
	}
	if value <= -1 {
		return newError(param, "must be greater than -1")
	}
	return nil
}

// CashFlows validates that the series is non-empty and contains only finite values.
func CashFlows(values []float64, param string) error {
	if len(values) == 0 {
		return newError(param, "must not be empty")
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newError(param, "must contain only finite values")
		}
	}
	return nil
}
