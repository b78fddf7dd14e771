package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/prashant-fintech/finbox/internal/bond"
	"github.com/prashant-fintech/finbox/internal/cache"
	"github.com/prashant-fintech/finbox/internal/cashflow"
	"github.com/prashant-fintech/finbox/internal/loan"
	"github.com/prashant-fintech/finbox/internal/solver"
	"github.com/prashant-fintech/finbox/internal/store"
	"github.com/prashant-fintech/finbox/internal/tvm"
	"github.com/prashant-fintech/finbox/internal/validate"
)

type server struct {
	store *store.Store
	cache cache.Cache
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Param string `json:"param,omitempty"`
}

func (s *server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError maps the error taxonomy onto HTTP statuses: validation errors
// are 400 with the offending parameter, domain errors (unsolvable inputs) and
// solver non-convergence are 422 with distinct codes, everything else is 500.
func (s *server) respondError(w http.ResponseWriter, err error) {
	var verr *validate.Error
	if errors.As(err, &verr) {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{
			Error: verr.Error(),
			Code:  "validation_error",
			Param: verr.Param,
		})
		return
	}

	var nce *solver.NotConvergedError
	if errors.As(err, &nce) {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: nce.Error(),
			Code:  "not_converged",
		})
		return
	}

	if isDomainError(err) {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: err.Error(),
			Code:  "domain_error",
		})
		return
	}

	log.Printf("internal error: %v", err)
	s.respondJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "internal error",
		Code:  "internal_error",
	})
}

func isDomainError(err error) bool {
	return errors.Is(err, cashflow.ErrNoSignChange) ||
		errors.Is(err, cashflow.ErrNoNegativeFlows) ||
		errors.Is(err, cashflow.ErrNoPositiveFlows) ||
		errors.Is(err, bond.ErrInvalidPrice) ||
		errors.Is(err, bond.ErrNoPeriods)
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &validate.Error{Param: "body", Reason: "must be valid JSON"}
	}
	return nil
}

// record persists a finished calculation. History is best-effort: a failed
// save is logged, never surfaced to the caller.
func (s *server) record(kind string, params, result any) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		log.Printf("warning: failed to marshal %s params: %v", kind, err)
		return
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		log.Printf("warning: failed to marshal %s result: %v", kind, err)
		return
	}
	if err := s.store.Save(kind, string(paramsJSON), string(resultJSON)); err != nil {
		log.Printf("warning: failed to save %s calculation: %v", kind, err)
	}
}

func cacheKey(kind string, params any) string {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return ""
	}
	return kind + ":" + string(paramsJSON)
}

type npvRequest struct {
	CashFlows []float64 `json:"cash_flows"`
	Rate      *float64  `json:"rate,omitempty"`
	Rates     []float64 `json:"rates,omitempty"`
}

type npvResponse struct {
	NPV  *float64  `json:"npv,omitempty"`
	NPVs []float64 `json:"npvs,omitempty"`
}

func (s *server) handleNPV(w http.ResponseWriter, r *http.Request) {
	var req npvRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	if err := validate.CashFlows(req.CashFlows, "cash_flows"); err != nil {
		s.respondError(w, err)
		return
	}

	var resp npvResponse
	switch {
	case req.Rate != nil:
		if err := validate.Rate(*req.Rate, "rate"); err != nil {
			s.respondError(w, err)
			return
		}
		npv := cashflow.NPV(req.CashFlows, *req.Rate)
		resp.NPV = &npv
	case len(req.Rates) > 0:
		for _, rate := range req.Rates {
			if err := validate.Rate(rate, "rates"); err != nil {
				s.respondError(w, err)
				return
			}
		}
		resp.NPVs = cashflow.NPVScenarios(req.CashFlows, req.Rates)
	default:
		s.respondError(w, &validate.Error{Param: "rate", Reason: "or rates is required"})
		return
	}

	s.record("npv", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

type irrRequest struct {
	CashFlows []float64 `json:"cash_flows"`
}

type irrResponse struct {
	IRR float64 `json:"irr"`
}

func (s *server) handleIRR(w http.ResponseWriter, r *http.Request) {
	var req irrRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	if err := validate.CashFlows(req.CashFlows, "cash_flows"); err != nil {
		s.respondError(w, err)
		return
	}

	key := cacheKey("irr", req)
	if key != "" {
		if cached, ok := s.cache.Get(r.Context(), key); ok {
			var resp irrResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				s.respondJSON(w, http.StatusOK, resp)
				return
			}
		}
	}

	irr, err := cashflow.IRR(req.CashFlows)
	if err != nil {
		s.respondError(w, err)
		return
	}

	resp := irrResponse{IRR: irr}
	if key != "" {
		if encoded, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(r.Context(), key, string(encoded)); err != nil {
				log.Printf("warning: failed to cache irr result: %v", err)
			}
		}
	}

	s.record("irr", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

type mirrRequest struct {
	CashFlows    []float64 `json:"cash_flows"`
	FinanceRate  float64   `json:"finance_rate"`
	ReinvestRate float64   `json:"reinvest_rate"`
}

type mirrResponse struct {
	MIRR float64 `json:"mirr"`
}

func (s *server) handleMIRR(w http.ResponseWriter, r *http.Request) {
	var req mirrRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	if err := validate.CashFlows(req.CashFlows, "cash_flows"); err != nil {
		s.respondError(w, err)
		return
	}
	if err := validate.Rate(req.FinanceRate, "finance_rate"); err != nil {
		s.respondError(w, err)
		return
	}
	if err := validate.Rate(req.ReinvestRate, "reinvest_rate"); err != nil {
		s.respondError(w, err)
		return
	}

	mirr, err := cashflow.MIRR(req.CashFlows, req.FinanceRate, req.ReinvestRate)
	if err != nil {
		s.respondError(w, err)
		return
	}

	resp := mirrResponse{MIRR: mirr}
	s.record("mirr", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

type paybackRequest struct {
	CashFlows []float64 `json:"cash_flows"`
	Rate      *float64  `json:"rate,omitempty"`
}

// Payback fields are null when the investment is never recovered, since an
// infinite period has no JSON representation.
type paybackResponse struct {
	Payback            *float64 `json:"payback"`
	DiscountedPayback  *float64 `json:"discounted_payback,omitempty"`
	ProfitabilityIndex *float64 `json:"profitability_index,omitempty"`
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s *server) handlePayback(w http.ResponseWriter, r *http.Request) {
	var req paybackRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	if err := validate.CashFlows(req.CashFlows, "cash_flows"); err != nil {
		s.respondError(w, err)
		return
	}

	resp := paybackResponse{Payback: finitePtr(cashflow.PaybackPeriod(req.CashFlows))}

	if req.Rate != nil {
		if err := validate.Rate(*req.Rate, "rate"); err != nil {
			s.respondError(w, err)
			return
		}
		resp.DiscountedPayback = finitePtr(cashflow.DiscountedPaybackPeriod(req.CashFlows, *req.Rate))
		resp.ProfitabilityIndex = finitePtr(cashflow.ProfitabilityIndex(req.CashFlows, *req.Rate))
	}

	s.record("payback", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

type bondPriceRequest struct {
	FaceValue       float64 `json:"face_value"`
	CouponRate      float64 `json:"coupon_rate"`
	YearsToMaturity float64 `json:"years_to_maturity"`
	YieldToMaturity float64 `json:"yield_to_maturity"`
	PaymentsPerYear int     `json:"payments_per_year"`
}

type bondPriceResponse struct {
	Price            float64 `json:"price"`
	Duration         float64 `json:"duration"`
	ModifiedDuration float64 `json:"modified_duration"`
	Convexity        float64 `json:"convexity"`
}

func (s *server) handleBondPrice(w http.ResponseWriter, r *http.Request) {
	var req bondPriceRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	if err := validateBondTerms(req.FaceValue, req.CouponRate, req.YearsToMaturity, req.PaymentsPerYear); err != nil {
		s.respondError(w, err)
		return
	}
	if err := validate.NonNegative(req.YieldToMaturity, "yield_to_maturity"); err != nil {
		s.respondError(w, err)
		return
	}

	resp := bondPriceResponse{
		Price:            bond.Price(req.FaceValue, req.CouponRate, req.YearsToMaturity, req.YieldToMaturity, req.PaymentsPerYear),
		Duration:         bond.Duration(req.FaceValue, req.CouponRate, req.YearsToMaturity, req.YieldToMaturity, req.PaymentsPerYear),
		ModifiedDuration: bond.ModifiedDuration(req.FaceValue, req.CouponRate, req.YearsToMaturity, req.YieldToMaturity, req.PaymentsPerYear),
		Convexity:        bond.Convexity(req.FaceValue, req.CouponRate, req.YearsToMaturity, req.YieldToMaturity, req.PaymentsPerYear),
	}

	s.record("bond_price", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

type bondYieldRequest struct {
	Price           float64 `json:"price"`
	FaceValue       float64 `json:"face_value"`
	CouponRate      float64 `json:"coupon_rate"`
	YearsToMaturity float64 `json:"years_to_maturity"`
	PaymentsPerYear int     `json:"payments_per_year"`
}

type bondYieldResponse struct {
	Yield float64 `json:"yield"`
}

func (s *server) handleBondYield(w http.ResponseWriter, r *http.Request) {
	var req bondYieldRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	if err := validateBondTerms(req.FaceValue, req.CouponRate, req.YearsToMaturity, req.PaymentsPerYear); err != nil {
		s.respondError(w, err)
		return
	}
	if err := validate.Positive(req.Price, "price"); err != nil {
		s.respondError(w, err)
		return
	}

	key := cacheKey("bond_yield", req)
	if key != "" {
		if cached, ok := s.cache.Get(r.Context(), key); ok {
			var resp bondYieldResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				s.respondJSON(w, http.StatusOK, resp)
				return
			}
		}
	}

	ytm, err := bond.Yield(req.Price, req.FaceValue, req.CouponRate, req.YearsToMaturity, req.PaymentsPerYear)
	if err != nil {
		s.respondError(w, err)
		return
	}

	resp := bondYieldResponse{Yield: ytm}
	if key != "" {
		if encoded, err := json.Marshal(resp); err == nil {
			if err := s.cache.Set(r.Context(), key, string(encoded)); err != nil {
				log.Printf("warning: failed to cache bond yield result: %v", err)
			}
		}
	}

	s.record("bond_yield", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

func validateBondTerms(faceValue, couponRate, yearsToMaturity float64, paymentsPerYear int) error {
	if err := validate.Positive(faceValue, "face_value"); err != nil {
		return err
	}
	if err := validate.NonNegative(couponRate, "coupon_rate"); err != nil {
		return err
	}
	if err := validate.Positive(yearsToMaturity, "years_to_maturity"); err != nil {
		return err
	}
	return validate.PositiveInt(paymentsPerYear, "payments_per_year")
}

type annuityRequest struct {
	Payment float64 `json:"payment"`
	Rate    float64 `json:"rate"`
	Periods int     `json:"periods"`
	Due     bool    `json:"due"`
}

type annuityResponse struct {
	PresentValue *float64 `json:"present_value,omitempty"`
	FutureValue  *float64 `json:"future_value,omitempty"`
}

func (s *server) handleAnnuityPV(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnnuity(w, r)
	if !ok {
		return
	}

	pv := tvm.AnnuityPV(req.Payment, req.Rate, req.Periods, req.Due)
	resp := annuityResponse{PresentValue: &pv}
	s.record("annuity_pv", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *server) handleAnnuityFV(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeAnnuity(w, r)
	if !ok {
		return
	}

	fv := tvm.AnnuityFV(req.Payment, req.Rate, req.Periods, req.Due)
	resp := annuityResponse{FutureValue: &fv}
	s.record("annuity_fv", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *server) decodeAnnuity(w http.ResponseWriter, r *http.Request) (annuityRequest, bool) {
	var req annuityRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return req, false
	}

	if err := validate.Positive(req.Payment, "payment"); err != nil {
		s.respondError(w, err)
		return req, false
	}
	if err := validate.NonNegative(req.Rate, "rate"); err != nil {
		s.respondError(w, err)
		return req, false
	}
	if err := validate.PositiveInt(req.Periods, "periods"); err != nil {
		s.respondError(w, err)
		return req, false
	}

	return req, true
}

type loanRequest struct {
	Principal       float64 `json:"principal"`
	AnnualRate      float64 `json:"annual_rate"`
	Years           float64 `json:"years"`
	PaymentsPerYear int     `json:"payments_per_year"`
	PaymentsMade    int     `json:"payments_made,omitempty"`
	Limit           int     `json:"limit,omitempty"`
}

func (req loanRequest) terms() loan.Terms {
	return loan.Terms{
		Principal:       req.Principal,
		AnnualRate:      req.AnnualRate,
		Years:           req.Years,
		PaymentsPerYear: req.PaymentsPerYear,
	}
}

func validateLoanTerms(req loanRequest) error {
	if err := validate.Positive(req.Principal, "principal"); err != nil {
		return err
	}
	if err := validate.NonNegative(req.AnnualRate, "annual_rate"); err != nil {
		return err
	}
	if err := validate.Positive(req.Years, "years"); err != nil {
		return err
	}
	return validate.PositiveInt(req.PaymentsPerYear, "payments_per_year")
}

type loanPaymentResponse struct {
	Payment       float64 `json:"payment"`
	TotalInterest float64 `json:"total_interest"`
}

func (s *server) handleLoanPayment(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if err := validateLoanTerms(req); err != nil {
		s.respondError(w, err)
		return
	}

	terms := req.terms()
	resp := loanPaymentResponse{
		Payment:       terms.Payment(),
		TotalInterest: terms.TotalInterest(),
	}

	s.record("loan_payment", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

type loanBalanceResponse struct {
	Balance float64 `json:"balance"`
}

func (s *server) handleLoanBalance(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if err := validateLoanTerms(req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.PaymentsMade < 0 {
		s.respondError(w, &validate.Error{Param: "payments_made", Reason: "must be zero or positive"})
		return
	}

	resp := loanBalanceResponse{Balance: req.terms().BalanceAfter(req.PaymentsMade)}
	s.record("loan_balance", req, resp)
	s.respondJSON(w, http.StatusOK, resp)
}

type loanScheduleResponse struct {
	Payment float64    `json:"payment"`
	Rows    []loan.Row `json:"rows"`
}

func (s *server) handleLoanSchedule(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if err := validateLoanTerms(req); err != nil {
		s.respondError(w, err)
		return
	}
	if req.Limit < 0 {
		s.respondError(w, &validate.Error{Param: "limit", Reason: "must be zero or positive"})
		return
	}

	terms := req.terms()
	rows := make([]loan.Row, 0)
	for row := range terms.Schedule(req.Limit) {
		rows = append(rows, row)
	}

	resp := loanScheduleResponse{Payment: terms.Payment(), Rows: rows}

	// Full schedules can run to hundreds of rows; record the request with a
	// summary instead of the whole table.
	s.record("loan_schedule", req, map[string]any{
		"payment": resp.Payment,
		"rows":    len(resp.Rows),
	})
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	calculations, err := s.store.List(query)
	if err != nil {
		s.respondError(w, fmt.Errorf("list calculations: %w", err))
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"calculations": calculations,
	})
}
