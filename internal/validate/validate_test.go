package validate

import (
	"errors"
	"math"
	"testing"
)

func assertParamError(t *testing.T, err error, param string) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validate.Error, got %T", err)
	}
	if verr.Param != param {
		t.Fatalf("error param = %q, want %q", verr.Param, param)
	}
}

func TestPositive(t *testing.T) {
	if err := Positive(0.01, "amount"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertParamError(t, Positive(0, "amount"), "amount")
	assertParamError(t, Positive(-5, "amount"), "amount")
	assertParamError(t, Positive(math.NaN(), "amount"), "amount")
	assertParamError(t, Positive(math.Inf(1), "amount"), "amount")
}

func TestNonNegative(t *testing.T) {
	if err := NonNegative(0, "rate"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertParamError(t, NonNegative(-0.001, "rate"), "rate")
	assertParamError(t, NonNegative(math.NaN(), "rate"), "rate")
}

func TestPositiveInt(t *testing.T) {
	if err := PositiveInt(1, "periods"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertParamError(t, PositiveInt(0, "periods"), "periods")
	assertParamError(t, PositiveInt(-3, "periods"), "periods")
}

func TestRate(t *testing.T) {
	if err := Rate(-0.5, "discount_rate"); err != nil {
		t.Fatalf("rates above -1 are valid, got error: %v", err)
	}

	assertParamError(t, Rate(-1, "discount_rate"), "discount_rate")
	assertParamError(t, Rate(-2, "discount_rate"), "discount_rate")
	assertParamError(t, Rate(math.Inf(-1), "discount_rate"), "discount_rate")
}

func TestCashFlows(t *testing.T) {
	if err := CashFlows([]float64{-100, 50, 60}, "cash_flows"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertParamError(t, CashFlows(nil, "cash_flows"), "cash_flows")
	assertParamError(t, CashFlows([]float64{1, math.NaN()}, "cash_flows"), "cash_flows")
}

func TestErrorMessageNamesParameter(t *testing.T) {
	err := Positive(-1, "principal")
	if got := err.Error(); got != "principal must be positive" {
		t.Fatalf("unexpected message: %q", got)
	}
}
