// Package tvm implements the closed-form time-value-of-money formulas: single
// amounts under discrete and continuous compounding, rate conversions, and
// annuities. Every function is a pure computation over its arguments; input
// range checking happens at the API boundary (internal/validate).
package tvm

import "math"

// FutureValue returns the value of a present amount after the given number of
// periods at the given annual rate, compounded m times per period.
func FutureValue(presentValue, rate float64, periods, compoundingFrequency int) float64 {
	m := float64(compoundingFrequency)
	return presentValue * math.Pow(1+rate/m, m*float64(periods))
}

// PresentValue discounts a future amount back over the given number of periods
// at the given annual rate, compounded m times per period.
func PresentValue(futureValue, rate float64, periods, compoundingFrequency int) float64 {
	m := float64(compoundingFrequency)
	return futureValue / math.Pow(1+rate/m, m*float64(periods))
}

// CompoundInterest returns the interest earned on a principal over the given
// number of periods, i.e. the future value minus the principal.
func CompoundInterest(principal, rate float64, periods, compoundingFrequency int) float64 {
	return FutureValue(principal, rate, periods, compoundingFrequency) - principal
}

// EffectiveRate converts a nominal annual rate to the effective annual rate
// for the given compounding frequency.
func EffectiveRate(nominalRate float64, compoundingFrequency int) float64 {
	m := float64(compoundingFrequency)
	return math.Pow(1+nominalRate/m, m) - 1
}

// NominalRate converts an effective annual rate back to the nominal annual
// rate for the given compounding frequency.
func NominalRate(effectiveRate float64, compoundingFrequency int) float64 {
	m := float64(compoundingFrequency)
	return m * (math.Pow(1+effectiveRate, 1/m) - 1)
}

// ContinuousFutureValue returns the future value of a present amount under
// continuous compounding over time measured in years.
func ContinuousFutureValue(presentValue, rate, years float64) float64 {
	return presentValue * math.Exp(rate*years)
}

// ContinuousPresentValue returns the present value of a future amount under
// continuous compounding over time measured in years.
func ContinuousPresentValue(futureValue, rate, years float64) float64 {
	return futureValue * math.Exp(-rate*years)
}
