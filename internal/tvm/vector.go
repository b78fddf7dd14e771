package tvm

// FutureValueScenarios evaluates FutureValue for one present amount across a
// slice of candidate rates. Only the closed-form paths offer scenario batches;
// the iterative solvers operate on one input at a time.
func FutureValueScenarios(presentValue float64, rates []float64, periods, compoundingFrequency int) []float64 {
	out := make([]float64, len(rates))
	for i, r := range rates {
		out[i] = FutureValue(presentValue, r, periods, compoundingFrequency)
	}
	return out
}

// PresentValueScenarios evaluates PresentValue for one future amount across a
// slice of candidate rates.
func PresentValueScenarios(futureValue float64, rates []float64, periods, compoundingFrequency int) []float64 {
	out := make([]float64, len(rates))
	for i, r := range rates {
		out[i] = PresentValue(futureValue, r, periods, compoundingFrequency)
	}
	return out
}
