// Package bond implements fixed-coupon bond pricing, its first- and
// second-order rate sensitivities, and yield-to-maturity solved numerically
// over the closed-form price.
package bond

import (
	"errors"
	"math"

	"github.com/prashant-fintech/finbox/internal/solver"
)

// ErrInvalidPrice is returned by Yield when the observed price is not
// positive; there is no rate at which a coupon bond is worth zero or less.
var ErrInvalidPrice = errors.New("bond price must be positive")

// ErrNoPeriods is returned when the bond has no remaining coupon periods.
var ErrNoPeriods = errors.New("bond must have at least one coupon period")

// Price returns the value of a bond as the present value of its coupons plus
// the discounted face value. couponRate and yieldToMaturity are annual;
// paymentsPerYear sets the coupon frequency.
func Price(faceValue, couponRate, yearsToMaturity, yieldToMaturity float64, paymentsPerYear int) float64 {
	periods := int(yearsToMaturity * float64(paymentsPerYear))
	coupon := faceValue * couponRate / float64(paymentsPerYear)
	r := yieldToMaturity / float64(paymentsPerYear)

	if r == 0 {
		return coupon*float64(periods) + faceValue
	}

	pvCoupons := coupon * (1 - math.Pow(1+r, -float64(periods))) / r
	pvFace := faceValue / math.Pow(1+r, float64(periods))
	return pvCoupons + pvFace
}

// Duration returns the Macaulay duration in years: the present-value-weighted
// average time to each cash flow.
func Duration(faceValue, couponRate, yearsToMaturity, yieldToMaturity float64, paymentsPerYear int) float64 {
	periods := int(yearsToMaturity * float64(paymentsPerYear))
	coupon := faceValue * couponRate / float64(paymentsPerYear)
	r := yieldToMaturity / float64(paymentsPerYear)

	price := Price(faceValue, couponRate, yearsToMaturity, yieldToMaturity, paymentsPerYear)

	weightedTime := 0.0
	for t := 1; t <= periods; t++ {
		cf := coupon
		if t == periods {
			cf += faceValue
		}
		pv := cf / math.Pow(1+r, float64(t))
		weightedTime += (pv / price) * (float64(t) / float64(paymentsPerYear))
	}
	return weightedTime
}

// ModifiedDuration returns the Macaulay duration scaled by one period of
// yield, the first-order price sensitivity to rate moves.
func ModifiedDuration(faceValue, couponRate, yearsToMaturity, yieldToMaturity float64, paymentsPerYear int) float64 {
	mac := Duration(faceValue, couponRate, yearsToMaturity, yieldToMaturity, paymentsPerYear)
	return mac / (1 + yieldToMaturity/float64(paymentsPerYear))
}

// Convexity returns the second-order price sensitivity to yield changes.
func Convexity(faceValue, couponRate, yearsToMaturity, yieldToMaturity float64, paymentsPerYear int) float64 {
	periods := int(yearsToMaturity * float64(paymentsPerYear))
	coupon := faceValue * couponRate / float64(paymentsPerYear)
	r := yieldToMaturity / float64(paymentsPerYear)

	price := Price(faceValue, couponRate, yearsToMaturity, yieldToMaturity, paymentsPerYear)

	convexity := 0.0
	for t := 1; t <= periods; t++ {
		cf := coupon
		if t == periods {
			cf += faceValue
		}
		pv := cf / math.Pow(1+r, float64(t))
		convexity += pv * float64(t) * float64(t+1) / math.Pow(1+r, 2)
	}
	return convexity / price
}

// Yield guesses tried in order; coupon-bond yields land near the coupon rate
// for prices close to par, so the ladder starts low and widens.
var yieldGuesses = []float64{0.05, solver.DefaultGuess, 0.02, 0.15, 0.3, 0.6}

// Yield solves for the annual yield to maturity that reprices the bond to the
// observed price, using the secant solver over Price.
func Yield(price, faceValue, couponRate, yearsToMaturity float64, paymentsPerYear int) (float64, error) {
	if price <= 0 {
		return math.NaN(), ErrInvalidPrice
	}
	if int(yearsToMaturity*float64(paymentsPerYear)) < 1 {
		return math.NaN(), ErrNoPeriods
	}

	priceDiff := func(ytm float64) float64 {
		return Price(faceValue, couponRate, yearsToMaturity, ytm, paymentsPerYear) - price
	}

	lastIterations := 0
	for _, guess := range yieldGuesses {
		res := solver.Solve(priceDiff, solver.Options{Guess: guess})
		lastIterations += res.Iterations
		if res.Converged {
			return res.Root, nil
		}
	}

	return math.NaN(), &solver.NotConvergedError{Iterations: lastIterations}
}
