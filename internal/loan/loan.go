// Package loan implements fixed-rate, fixed-payment loan math: the periodic
// payment, closed-form point queries, and a lazy amortization schedule.
package loan

import (
	"iter"
	"math"
)

// Terms describes a fully amortizing loan. The struct is a value object;
// nothing in this package mutates it or keeps state between calls.
type Terms struct {
	Principal       float64
	AnnualRate      float64
	Years           float64
	PaymentsPerYear int
}

// Row is one period of an amortization schedule. Payment equals Interest plus
// Principal up to floating tolerance, and Balance is the amount still owed
// after the payment is applied.
type Row struct {
	Period    int     `json:"period"`
	Payment   float64 `json:"payment"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Balance   float64 `json:"balance"`
}

func (t Terms) ratePerPeriod() float64 {
	return t.AnnualRate / float64(t.PaymentsPerYear)
}

func (t Terms) totalPayments() int {
	return int(t.Years * float64(t.PaymentsPerYear))
}

// Payment returns the constant periodic payment from the annuity formula.
// A zero rate degenerates to straight-line repayment.
func (t Terms) Payment() float64 {
	r := t.ratePerPeriod()
	n := float64(t.totalPayments())

	if r == 0 {
		return t.Principal / n
	}

	growth := math.Pow(1+r, n)
	return t.Principal * r * growth / (growth - 1)
}

// BalanceAfter returns the balance remaining after k payments, computed in
// closed form as the present value of the remaining payment annuity. It does
// not generate the schedule.
func (t Terms) BalanceAfter(paymentsMade int) float64 {
	n := t.totalPayments()
	if paymentsMade >= n {
		return 0
	}

	r := t.ratePerPeriod()
	payment := t.Payment()

	if r == 0 {
		return t.Principal - payment*float64(paymentsMade)
	}

	remaining := float64(n - paymentsMade)
	return payment * (1 - math.Pow(1+r, -remaining)) / r
}

// TotalInterest returns the interest paid over the full life of the loan:
// total payments minus principal.
func (t Terms) TotalInterest() float64 {
	return t.Payment()*float64(t.totalPayments()) - t.Principal
}

// Schedule returns the amortization rows as a lazy sequence. limit caps the
// number of rows produced for previews; a limit of zero or less yields the
// full schedule. The sequence is restartable: each range re-runs the
// recurrence from the loan terms, with no state carried between iterations.
//
// Each period charges interest on the running balance and applies the rest of
// the payment to principal. The recurrence is inherently sequential, so rows
// are produced in order. Intermediate balances may carry sub-cent rounding
// drift; any residual is folded into the final period's principal so the
// ending balance is exactly zero.
func (t Terms) Schedule(limit int) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		r := t.ratePerPeriod()
		n := t.totalPayments()
		payment := t.Payment()
		balance := t.Principal

		for period := 1; period <= n; period++ {
			if limit > 0 && period > limit {
				return
			}

			interest := balance * r
			principal := payment - interest
			balance -= principal

			// Drive the final balance to exactly zero; the residual belongs
			// to the last principal portion.
			if period == n || balance < 0 {
				principal += balance
				balance = 0
			}

			if !yield(Row{
				Period:    period,
				Payment:   payment,
				Interest:  interest,
				Principal: principal,
				Balance:   balance,
			}) {
				return
			}

			if balance == 0 {
				return
			}
		}
	}
}
