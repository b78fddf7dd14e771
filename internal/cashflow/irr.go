package cashflow

import (
	"errors"
	"math"

	"github.com/prashant-fintech/finbox/internal/solver"
)

var (
	// ErrNoSignChange is returned when an IRR is requested for a series whose
	// values all share one sign: NPV is then monotone in the rate and has no
	// root. Reported before any iteration is attempted.
	ErrNoSignChange = errors.New("cash flows must contain at least one sign change")

	// ErrNoNegativeFlows is returned by MIRR when the series has no negative
	// flows, leaving the finance-side present value zero.
	ErrNoNegativeFlows = errors.New("cash flows must contain at least one negative value")

	// ErrNoPositiveFlows is returned by MIRR when the series has no positive
	// flows, leaving the reinvested terminal value zero.
	ErrNoPositiveFlows = errors.New("cash flows must contain at least one positive value")
)

// Guesses tried in order when solving for IRR. The first entry is the
// conventional default; the rest sweep outward so a poorly scaled series
// still has a chance to converge.
var irrGuesses = []float64{solver.DefaultGuess, 0.05, 0.15, 0.25, -0.5, 0.5, 1.0}

// irrAcceptTolerance is the residual NPV below which a converged root is
// accepted as the IRR.
const irrAcceptTolerance = 1e-6

// IRR returns the periodic rate at which the series' net present value is
// zero, found with the secant solver from a ladder of initial guesses.
//
// When the series changes sign more than once, several mathematically valid
// rates can exist; IRR returns whichever root the solver reaches first from
// the default guesses and makes no uniqueness claim.
func IRR(cashFlows []float64) (float64, error) {
	if !hasSignChange(cashFlows) {
		return math.NaN(), ErrNoSignChange
	}

	npv := func(rate float64) float64 {
		return NPV(cashFlows, rate)
	}

	lastIterations := 0
	for _, guess := range irrGuesses {
		res := solver.Solve(npv, solver.Options{Guess: guess})
		lastIterations += res.Iterations
		if res.Converged && math.Abs(npv(res.Root)) < irrAcceptTolerance {
			return res.Root, nil
		}
	}

	return math.NaN(), &solver.NotConvergedError{Iterations: lastIterations}
}

// MIRR returns the modified internal rate of return: positive flows are
// compounded forward to the terminal period at the reinvestment rate,
// negative flows are discounted to period 0 at the finance rate, and the
// single rate linking those two amounts over n periods is solved in closed
// form. No root finding is involved.
func MIRR(cashFlows []float64, financeRate, reinvestRate float64) (float64, error) {
	n := len(cashFlows) - 1
	if n < 1 {
		return math.NaN(), ErrNoNegativeFlows
	}

	terminalValue := 0.0
	presentValue := 0.0
	for t, cf := range cashFlows {
		switch {
		case cf > 0:
			terminalValue += cf * math.Pow(1+reinvestRate, float64(n-t))
		case cf < 0:
			presentValue += cf / math.Pow(1+financeRate, float64(t))
		}
	}

	if presentValue == 0 {
		return math.NaN(), ErrNoNegativeFlows
	}
	if terminalValue == 0 {
		return math.NaN(), ErrNoPositiveFlows
	}

	return math.Pow(terminalValue/-presentValue, 1/float64(n)) - 1, nil
}

func hasSignChange(cashFlows []float64) bool {
	hasPositive := false
	hasNegative := false
	for _, cf := range cashFlows {
		if cf > 0 {
			hasPositive = true
		}
		if cf < 0 {
			hasNegative = true
		}
	}
	return hasPositive && hasNegative
}
