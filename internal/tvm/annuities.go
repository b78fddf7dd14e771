package tvm

import "math"

// OrdinaryAnnuityPV returns the present value of a stream of equal end-of-period
// payments. A zero rate degenerates to payment * periods.
func OrdinaryAnnuityPV(payment, rate float64, periods int) float64 {
	if rate == 0 {
		return payment * float64(periods)
	}
	return payment * (1 - math.Pow(1+rate, -float64(periods))) / rate
}

// OrdinaryAnnuityFV returns the future value of a stream of equal end-of-period
// payments at the end of the final period.
func OrdinaryAnnuityFV(payment, rate float64, periods int) float64 {
	if rate == 0 {
		return payment * float64(periods)
	}
	return payment * (math.Pow(1+rate, float64(periods)) - 1) / rate
}

// AnnuityDuePV returns the present value of an annuity paid at the start of
// each period. Each payment is discounted one period less than in the ordinary
// case, hence the (1+rate) factor.
func AnnuityDuePV(payment, rate float64, periods int) float64 {
	return OrdinaryAnnuityPV(payment, rate, periods) * (1 + rate)
}

// AnnuityDueFV returns the future value of an annuity paid at the start of
// each period.
func AnnuityDueFV(payment, rate float64, periods int) float64 {
	return OrdinaryAnnuityFV(payment, rate, periods) * (1 + rate)
}

// AnnuityPV returns the present value of an annuity, ordinary or due.
func AnnuityPV(payment, rate float64, periods int, due bool) float64 {
	if due {
		return AnnuityDuePV(payment, rate, periods)
	}
	return OrdinaryAnnuityPV(payment, rate, periods)
}

// AnnuityFV returns the future value of an annuity, ordinary or due.
func AnnuityFV(payment, rate float64, periods int, due bool) float64 {
	if due {
		return AnnuityDueFV(payment, rate, periods)
	}
	return OrdinaryAnnuityFV(payment, rate, periods)
}

// PerpetuityPV returns the present value of a perpetual stream of equal
// end-of-period payments. NaN when rate is zero (the series diverges).
func PerpetuityPV(payment, rate float64) float64 {
	if rate == 0 {
		return math.NaN()
	}
	return payment / rate
}

// GrowingPerpetuityPV returns the present value of a perpetual payment stream
// growing at a constant rate. Defined only while growth < rate; NaN otherwise.
func GrowingPerpetuityPV(payment, rate, growth float64) float64 {
	if rate <= growth {
		return math.NaN()
	}
	return payment / (rate - growth)
}
