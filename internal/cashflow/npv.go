// Package cashflow implements multi-period cash-flow analysis: NPV, payback
// measures, profitability index, and the iterative IRR/MIRR rate solvers.
// A series is indexed by period, with the initial outlay at period 0
// (conventionally negative).
package cashflow

import "math"

// NPV returns the net present value of the series at the given periodic
// discount rate. Period 0 is not discounted.
func NPV(cashFlows []float64, rate float64) float64 {
	total := 0.0
	for t, cf := range cashFlows {
		total += cf / math.Pow(1+rate, float64(t))
	}
	return total
}

// NPVScenarios evaluates NPV for one series across a slice of candidate
// discount rates, for building an NPV profile.
func NPVScenarios(cashFlows []float64, rates []float64) []float64 {
	out := make([]float64, len(rates))
	for i, r := range rates {
		out[i] = NPV(cashFlows, r)
	}
	return out
}

// PaybackPeriod returns the number of periods until cumulative cash flows turn
// positive: the count of full periods before recovery plus the fraction of the
// breakeven period needed to cover the remaining deficit. It returns 0 when
// the series starts non-negative and +Inf when the outlay is never recovered.
func PaybackPeriod(cashFlows []float64) float64 {
	cumulative := 0.0
	for t, cf := range cashFlows {
		prev := cumulative
		cumulative += cf
		if cumulative > 0 {
			if t == 0 {
				return 0
			}
			return float64(t-1) + math.Abs(prev)/cf
		}
	}
	return math.Inf(1)
}

// DiscountedPaybackPeriod is PaybackPeriod applied to the discounted series.
func DiscountedPaybackPeriod(cashFlows []float64, rate float64) float64 {
	discounted := make([]float64, len(cashFlows))
	for t, cf := range cashFlows {
		discounted[t] = cf / math.Pow(1+rate, float64(t))
	}
	return PaybackPeriod(discounted)
}

// ProfitabilityIndex returns the present value of periods 1..n divided by the
// magnitude of the initial outlay. NaN when the initial flow is zero.
func ProfitabilityIndex(cashFlows []float64, rate float64) float64 {
	if len(cashFlows) == 0 || cashFlows[0] == 0 {
		return math.NaN()
	}

	pvFuture := 0.0
	for t := 1; t < len(cashFlows); t++ {
		pvFuture += cashFlows[t] / math.Pow(1+rate, float64(t))
	}
	return pvFuture / math.Abs(cashFlows[0])
}
