package main

import (
	"database/sql"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/prashant-fintech/finbox/internal/cache"
	"github.com/prashant-fintech/finbox/internal/store"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	database, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}

	_, err = database.Exec(`
		CREATE TABLE calculations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			kind TEXT NOT NULL,
			params_json TEXT NOT NULL,
			result_json TEXT NOT NULL
		);
	`)
	if err != nil {
		t.Fatalf("failed creating calculations table: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close()
	})

	return &server{
		store: store.New(database),
		cache: cache.NewMemory(),
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func nearlyEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func historyCount(t *testing.T, srv *server) int {
	t.Helper()

	n, err := srv.store.Count()
	if err != nil {
		t.Fatalf("count calculations: %v", err)
	}
	return n
}

func TestHandleNPVSingleRate(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleNPV, `{"cash_flows":[-100000,30000,40000,50000],"rate":0.1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp npvResponse
	decodeResponse(t, rec, &resp)
	if resp.NPV == nil {
		t.Fatal("npv missing from response")
	}
	if !nearlyEqual(*resp.NPV, -2103.6814, 0.01) {
		t.Fatalf("npv = %v, want about -2103.68", *resp.NPV)
	}

	if got := historyCount(t, srv); got != 1 {
		t.Fatalf("history rows = %d, want 1", got)
	}
}

func TestHandleNPVScenarios(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleNPV, `{"cash_flows":[-1000,500,500,500],"rates":[0.05,0.1,0.15]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp npvResponse
	decodeResponse(t, rec, &resp)
	if len(resp.NPVs) != 3 {
		t.Fatalf("npvs length = %d, want 3", len(resp.NPVs))
	}
	for i := 1; i < len(resp.NPVs); i++ {
		if resp.NPVs[i] >= resp.NPVs[i-1] {
			t.Fatalf("npvs not decreasing in rate: %v", resp.NPVs)
		}
	}
}

func TestHandleNPVMissingRate(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleNPV, `{"cash_flows":[-1000,500]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp errorResponse
	decodeResponse(t, rec, &resp)
	if resp.Code != "validation_error" {
		t.Fatalf("code = %q, want validation_error", resp.Code)
	}
	if resp.Param != "rate" {
		t.Fatalf("param = %q, want rate", resp.Param)
	}
}

func TestHandleNPVBadJSON(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleNPV, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp errorResponse
	decodeResponse(t, rec, &resp)
	if resp.Param != "body" {
		t.Fatalf("param = %q, want body", resp.Param)
	}
}

func TestHandleIRR(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleIRR, `{"cash_flows":[-1000,300,400,500,600]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp irrResponse
	decodeResponse(t, rec, &resp)
	if !nearlyEqual(resp.IRR, 0.2489, 0.001) {
		t.Fatalf("irr = %v, want about 0.2489", resp.IRR)
	}
}

func TestHandleIRRCachesRepeatedRequests(t *testing.T) {
	srv := newTestServer(t)
	body := `{"cash_flows":[-1000,300,400,500,600]}`

	first := postJSON(t, srv.handleIRR, body)
	second := postJSON(t, srv.handleIRR, body)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want 200", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("cached response differs: %q vs %q", first.Body.String(), second.Body.String())
	}

	// The cache hit short-circuits before the calculation is recorded.
	if got := historyCount(t, srv); got != 1 {
		t.Fatalf("history rows = %d, want 1", got)
	}
}

func TestHandleIRRNoSignChange(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleIRR, `{"cash_flows":[100,200,300]}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var resp errorResponse
	decodeResponse(t, rec, &resp)
	if resp.Code != "domain_error" {
		t.Fatalf("code = %q, want domain_error", resp.Code)
	}
}

func TestHandleMIRR(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleMIRR, `{"cash_flows":[-1000,380,400,400],"finance_rate":0.1,"reinvest_rate":0.08}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp mirrResponse
	decodeResponse(t, rec, &resp)
	if resp.MIRR <= 0.08 || resp.MIRR >= 0.10 {
		t.Fatalf("mirr = %v, want between 0.08 and 0.10", resp.MIRR)
	}
}

func TestHandlePaybackWithDiscounting(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handlePayback, `{"cash_flows":[-1000,400,300,500],"rate":0.05}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp paybackResponse
	decodeResponse(t, rec, &resp)
	if resp.Payback == nil {
		t.Fatal("payback missing from response")
	}
	if !nearlyEqual(*resp.Payback, 2.6, 1e-9) {
		t.Fatalf("payback = %v, want 2.6", *resp.Payback)
	}
	if resp.DiscountedPayback == nil || resp.ProfitabilityIndex == nil {
		t.Fatal("discounted payback and profitability index missing when rate is given")
	}
	if *resp.DiscountedPayback < *resp.Payback {
		t.Fatalf("discounted payback %v shorter than plain payback %v", *resp.DiscountedPayback, *resp.Payback)
	}
}

func TestHandlePaybackNeverRecovered(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handlePayback, `{"cash_flows":[-1000,100,100]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp paybackResponse
	decodeResponse(t, rec, &resp)
	if resp.Payback != nil {
		t.Fatalf("payback = %v, want null when the investment is never recovered", *resp.Payback)
	}
}

func TestHandlePaybackWithoutRate(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handlePayback, `{"cash_flows":[-1000,400,300,500]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp paybackResponse
	decodeResponse(t, rec, &resp)
	if resp.DiscountedPayback != nil || resp.ProfitabilityIndex != nil {
		t.Fatal("discounted fields present without a rate")
	}
}

func TestHandleBondPrice(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleBondPrice, `{"face_value":1000,"coupon_rate":0.06,"years_to_maturity":10,"yield_to_maturity":0.08,"payments_per_year":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp bondPriceResponse
	decodeResponse(t, rec, &resp)
	if !nearlyEqual(resp.Price, 864.0967, 0.01) {
		t.Fatalf("price = %v, want about 864.10", resp.Price)
	}
	if resp.Duration <= 0 || resp.Duration > 10 {
		t.Fatalf("duration = %v, want in (0, 10]", resp.Duration)
	}
	if resp.ModifiedDuration >= resp.Duration {
		t.Fatalf("modified duration %v not below macaulay %v", resp.ModifiedDuration, resp.Duration)
	}
	if resp.Convexity <= 0 {
		t.Fatalf("convexity = %v, want positive", resp.Convexity)
	}
}

func TestHandleBondPriceRejectsNegativeFace(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleBondPrice, `{"face_value":-1000,"coupon_rate":0.06,"years_to_maturity":10,"yield_to_maturity":0.08,"payments_per_year":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp errorResponse
	decodeResponse(t, rec, &resp)
	if resp.Param != "face_value" {
		t.Fatalf("param = %q, want face_value", resp.Param)
	}
}

func TestHandleBondYield(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleBondYield, `{"price":950,"face_value":1000,"coupon_rate":0.05,"years_to_maturity":4,"payments_per_year":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp bondYieldResponse
	decodeResponse(t, rec, &resp)

	// Discount bond: the yield must exceed the coupon rate.
	if resp.Yield <= 0.05 {
		t.Fatalf("yield = %v, want above the 5%% coupon", resp.Yield)
	}
}

func TestHandleAnnuityPV(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleAnnuityPV, `{"payment":1000,"rate":0.05,"periods":10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp annuityResponse
	decodeResponse(t, rec, &resp)
	if resp.PresentValue == nil {
		t.Fatal("present_value missing from response")
	}
	if !nearlyEqual(*resp.PresentValue, 7721.7349, 0.01) {
		t.Fatalf("present value = %v, want about 7721.73", *resp.PresentValue)
	}
}

func TestHandleAnnuityFVDue(t *testing.T) {
	srv := newTestServer(t)

	ordinary := postJSON(t, srv.handleAnnuityFV, `{"payment":1000,"rate":0.05,"periods":10}`)
	due := postJSON(t, srv.handleAnnuityFV, `{"payment":1000,"rate":0.05,"periods":10,"due":true}`)
	if ordinary.Code != http.StatusOK || due.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d, want 200", ordinary.Code, due.Code)
	}

	var ordResp, dueResp annuityResponse
	decodeResponse(t, ordinary, &ordResp)
	decodeResponse(t, due, &dueResp)
	if ordResp.FutureValue == nil || dueResp.FutureValue == nil {
		t.Fatal("future_value missing from response")
	}
	if !nearlyEqual(*dueResp.FutureValue, *ordResp.FutureValue*1.05, 1e-6) {
		t.Fatalf("annuity due fv = %v, want ordinary fv %v scaled by 1.05", *dueResp.FutureValue, *ordResp.FutureValue)
	}
}

func TestHandleLoanPayment(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleLoanPayment, `{"principal":300000,"annual_rate":0.05,"years":30,"payments_per_year":12}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp loanPaymentResponse
	decodeResponse(t, rec, &resp)
	if !nearlyEqual(resp.Payment, 1610.46, 0.01) {
		t.Fatalf("payment = %v, want about 1610.46", resp.Payment)
	}
	if !nearlyEqual(resp.TotalInterest, resp.Payment*360-300000, 0.01) {
		t.Fatalf("total interest = %v inconsistent with payment %v", resp.TotalInterest, resp.Payment)
	}
}

func TestHandleLoanBalance(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleLoanBalance, `{"principal":300000,"annual_rate":0.05,"years":30,"payments_per_year":12,"payments_made":360}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp loanBalanceResponse
	decodeResponse(t, rec, &resp)
	if resp.Balance != 0 {
		t.Fatalf("balance after final payment = %v, want 0", resp.Balance)
	}
}

func TestHandleLoanSchedulePreview(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.handleLoanSchedule, `{"principal":300000,"annual_rate":0.05,"years":30,"payments_per_year":12,"limit":12}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp loanScheduleResponse
	decodeResponse(t, rec, &resp)
	if len(resp.Rows) != 12 {
		t.Fatalf("rows = %d, want 12", len(resp.Rows))
	}
	if resp.Rows[0].Period != 1 {
		t.Fatalf("first period = %d, want 1", resp.Rows[0].Period)
	}
	if !nearlyEqual(resp.Rows[0].Interest, 300000*0.05/12, 1e-9) {
		t.Fatalf("first interest = %v, want %v", resp.Rows[0].Interest, 300000*0.05/12)
	}
}

func TestHandleHistoryFilters(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv.handleIRR, `{"cash_flows":[-1000,300,400,500,600]}`)
	postJSON(t, srv.handleLoanPayment, `{"principal":300000,"annual_rate":0.05,"years":30,"payments_per_year":12}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/history?q=loan_payment", nil)
	rec := httptest.NewRecorder()
	srv.handleHistory(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Calculations []store.Calculation `json:"calculations"`
	}
	decodeResponse(t, rec, &resp)
	if len(resp.Calculations) != 1 {
		t.Fatalf("filtered calculations = %d, want 1", len(resp.Calculations))
	}
	if resp.Calculations[0].Kind != "loan_payment" {
		t.Fatalf("kind = %q, want loan_payment", resp.Calculations[0].Kind)
	}
}

func TestHandleHistoryReturnsAll(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv.handleIRR, `{"cash_flows":[-1000,300,400,500,600]}`)
	postJSON(t, srv.handleLoanPayment, `{"principal":300000,"annual_rate":0.05,"years":30,"payments_per_year":12}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	rec := httptest.NewRecorder()
	srv.handleHistory(rec, req)

	var resp struct {
		Calculations []store.Calculation `json:"calculations"`
	}
	decodeResponse(t, rec, &resp)
	if len(resp.Calculations) != 2 {
		t.Fatalf("calculations = %d, want 2", len(resp.Calculations))
	}
}
