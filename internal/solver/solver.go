// Package solver provides a generic scalar root finder used by the IRR and
// bond-yield calculations. It reports non-convergence through a structured
// result instead of an error, so callers can retry from a different guess.
package solver

import (
	"fmt"
	"math"
)

const (
	// DefaultGuess is the conventional starting rate when the caller has no
	// better estimate.
	DefaultGuess = 0.1

	// DefaultTolerance is the convergence threshold on |f(x)|.
	DefaultTolerance = 1e-7

	// DefaultMaxIterations bounds the secant loop.
	DefaultMaxIterations = 100
)

// Options configures a solve. Zero values fall back to the package defaults,
// so Options{} requests a fully default solve.
type Options struct {
	Guess         float64
	Tolerance     float64
	MaxIterations int
}

// Result is the outcome of a solve. It is created fresh per call and never
// retained by the package. When Converged is false, Root is NaN.
type Result struct {
	Converged  bool
	Root       float64
	Iterations int
}

// NotConvergedError is returned by the wrappers in internal/cashflow and
// internal/bond when every attempted guess fails. It is distinct from the
// domain errors those packages define, so callers can tell "the inputs are
// unsolvable" apart from "the numeric method failed".
type NotConvergedError struct {
	Iterations int
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("root finder did not converge after %d iterations", e.Iterations)
}

// Solve finds a root of f near opts.Guess using the secant method. The slope
// is estimated from the last two iterates, so f needs no derivative.
//
// The loop stops as soon as |f(x)| drops below the tolerance. If the secant
// step divides by a vanishing slope or produces a non-finite iterate, or the
// iteration budget runs out, the result carries Converged=false; Solve never
// returns an error for non-convergence.
func Solve(f func(float64) float64, opts Options) Result {
	guess := opts.Guess
	if guess == 0 {
		guess = DefaultGuess
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	// Two starting points bracket nothing in particular; the second is just a
	// small step away from the guess to seed the slope estimate.
	x0 := guess
	x1 := guess * 1.01
	if x1 == x0 {
		x1 = x0 + 1e-4
	}

	f0 := f(x0)
	f1 := f(x1)

	for i := 1; i <= maxIter; i++ {
		if math.Abs(f1) < tol {
			return Result{Converged: true, Root: x1, Iterations: i}
		}

		denom := f1 - f0
		if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
			return failed(i)
		}

		x2 := x1 - f1*(x1-x0)/denom
		if math.IsNaN(x2) || math.IsInf(x2, 0) {
			return failed(i)
		}

		x0, f0 = x1, f1
		x1 = x2
		f1 = f(x1)
		if math.IsNaN(f1) || math.IsInf(f1, 0) {
			return failed(i)
		}
	}

	if math.Abs(f1) < tol {
		return Result{Converged: true, Root: x1, Iterations: maxIter}
	}
	return failed(maxIter)
}

func failed(iterations int) Result {
	return Result{Converged: false, Root: math.NaN(), Iterations: iterations}
}
