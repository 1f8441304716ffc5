package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"organizapay/internal/auth"
	"organizapay/internal/core"
	"organizapay/internal/finance"
	"organizapay/internal/records/memory"
	"organizapay/internal/report"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, ping func(context.Context) error) *Server {
	t.Helper()
	srv, _ := newTestServerWithStore(t, ping)
	return srv
}

func newTestServerWithStore(t *testing.T, ping func(context.Context) error) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc, err := auth.New(store, store, auth.Config{
		Secret:     []byte("test-secret"),
		Issuer:     "organizapay-test",
		TTL:        time.Hour,
		BcryptCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	reg := finance.NewRegistry(store, 16, time.Hour, nil)
	t.Cleanup(reg.Close)

	srv := NewServer(":0", Deps{
		Auth:          svc,
		Registry:      reg,
		Ping:          ping,
		RateLimit:     1000,
		AuthRateLimit: 1000,
		Now:           func() time.Time { return testNow },
	})
	return srv, store
}

// grantPremium upgrades the token's user in the store, the way an operator
// does, and reloads the session's cached data.
func grantPremium(t *testing.T, srv *Server, store *memory.Store, token string) {
	t.Helper()
	user, err := srv.auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := store.UpsertSubscription(context.Background(), core.Subscription{UserID: user.ID, Plan: core.PlanPremium}); err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}
	if rr := do(t, srv, http.MethodGet, "/api/dashboard?refresh=1", token, nil); rr.Code != http.StatusOK {
		t.Fatalf("refresh status=%d body=%s", rr.Code, rr.Body.String())
	}
}

// do sends a request through the full middleware chain.
func do(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.10:1234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func signUp(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":        email,
		"password":     "segredo123",
		"display_name": "Maria",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status=%d body=%s", rr.Code, rr.Body.String())
	}
	var sess auth.Session
	if err := json.Unmarshal(rr.Body.Bytes(), &sess); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("signup returned empty token")
	}
	return sess.Token
}

func errorKind(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %s", rr.Body.String())
	}
	return body.Kind
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
	if rr := do(t, srv, http.MethodGet, "/healthz", "", nil); rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}

	down := newTestServer(t, func(context.Context) error { return errors.New("db down") })
	if rr := do(t, down, http.MethodGet, "/readyz", "", nil); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing ping status=%d, want 503", rr.Code)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/api/dashboard", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", rr.Code)
	}
	if kind := errorKind(t, rr); kind != "unauthorized" {
		t.Errorf("kind = %q, want unauthorized", kind)
	}

	rr = do(t, srv, http.MethodGet, "/api/dashboard", "not-a-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status=%d, want 401", rr.Code)
	}
}

func TestSignUpAndSignIn(t *testing.T) {
	srv := newTestServer(t, nil)
	signUp(t, srv, "maria@example.com")

	rr := do(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "maria@example.com", "password": "segredo123", "display_name": "Maria",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status=%d, want 409", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/auth/signin", "", map[string]string{
		"email": "maria@example.com", "password": "errada",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status=%d, want 401", rr.Code)
	}

	rr = do(t, srv, http.MethodPost, "/auth/signin", "", map[string]string{
		"email": "maria@example.com", "password": "segredo123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("signin status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("Set-Cookie"), sessionCookie+"=") {
		t.Errorf("signin did not set session cookie")
	}

	rr = do(t, srv, http.MethodPost, "/auth/signin", "", map[string]any{"email": "x", "bogus": true})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status=%d, want 400", rr.Code)
	}
}

func TestRecordLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	token := signUp(t, srv, "joao@example.com")

	rr := do(t, srv, http.MethodPost, "/api/incomes", token, map[string]any{
		"description": "Salário", "amount": "1.500,00", "date": "2024-03-05", "category": "Salário",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create income status=%d body=%s", rr.Code, rr.Body.String())
	}
	var income core.IncomeEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &income); err != nil {
		t.Fatalf("decode income: %v", err)
	}
	if income.ID == "" || income.Amount.Cents != 150000 {
		t.Fatalf("income = %+v", income)
	}

	rr = do(t, srv, http.MethodPost, "/api/expenses", token, map[string]any{
		"description": "Mercado", "amount": 200.5, "date": "2024-03-10", "category": "Alimentação", "type": "gasto",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expense status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/expenses", token, map[string]any{
		"description": "", "amount": 10, "date": "2024-03-10", "type": "gasto",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid expense status=%d, want 422", rr.Code)
	}

	rr = do(t, srv, http.MethodPatch, "/api/incomes/"+income.ID, token, map[string]any{"amount": 1600})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("update income status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	var snap struct {
		Totals  core.Totals        `json:"totals"`
		Incomes []core.IncomeEntry `json:"incomes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if snap.Totals.Income.Cents != 160000 || snap.Totals.Expense.Cents != 20050 {
		t.Errorf("totals = %+v", snap.Totals)
	}
	if snap.Totals.Balance.Cents != 160000-20050 {
		t.Errorf("balance = %d", snap.Totals.Balance.Cents)
	}
	if cc := rr.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	rr = do(t, srv, http.MethodDelete, "/api/incomes/"+income.ID, token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete income status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodDelete, "/api/incomes/"+income.ID, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", rr.Code)
	}
}

func TestRecordsAreScopedToTheirOwner(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := signUp(t, srv, "alice@example.com")
	bob := signUp(t, srv, "bob@example.com")

	rr := do(t, srv, http.MethodPost, "/api/goals", alice, map[string]any{
		"title": "Viagem", "current_amount": 0, "target_amount": 5000, "deadline": "2024-12",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal status=%d body=%s", rr.Code, rr.Body.String())
	}
	var goal core.Goal
	_ = json.Unmarshal(rr.Body.Bytes(), &goal)

	rr = do(t, srv, http.MethodDelete, "/api/goals/"+goal.ID, bob, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("foreign delete status=%d, want 404", rr.Code)
	}
}

func TestFreePlanGoalLimit(t *testing.T) {
	srv, store := newTestServerWithStore(t, nil)
	token := signUp(t, srv, "ana@example.com")

	for i := range core.FreeGoalLimit {
		rr := do(t, srv, http.MethodPost, "/api/goals", token, map[string]any{
			"title": fmt.Sprintf("Meta %d", i), "target_amount": 100,
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("goal %d status=%d body=%s", i, rr.Code, rr.Body.String())
		}
	}

	rr := do(t, srv, http.MethodPost, "/api/goals", token, map[string]any{"title": "Extra", "target_amount": 100})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("over limit status=%d, want 403", rr.Code)
	}
	if kind := errorKind(t, rr); kind != "plan_limit" {
		t.Errorf("kind = %q, want plan_limit", kind)
	}

	rr = do(t, srv, http.MethodPut, "/api/profile", token, map[string]any{"profile_type": "couple"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("couple profile on free plan status=%d, want 403", rr.Code)
	}

	grantPremium(t, srv, store, token)
	rr = do(t, srv, http.MethodPost, "/api/goals", token, map[string]any{"title": "Extra", "target_amount": 100})
	if rr.Code != http.StatusCreated {
		t.Fatalf("premium goal status=%d, want 201", rr.Code)
	}
}

func TestClientCannotChangePlan(t *testing.T) {
	srv := newTestServer(t, nil)
	token := signUp(t, srv, "bia@example.com")

	for _, method := range []string{http.MethodPut, http.MethodPost, http.MethodPatch} {
		rr := do(t, srv, method, "/api/subscription", token, map[string]string{"plan": "premium"})
		if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s /api/subscription status=%d, want 404 or 405", method, rr.Code)
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/dashboard?refresh=1", token, nil)
	var snap struct {
		Subscription core.Subscription `json:"subscription"`
		Permissions  core.Permissions  `json:"permissions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Subscription.Plan != core.PlanFree || snap.Permissions.CanUseSharedAccount {
		t.Fatalf("plan changed by client: %+v", snap.Subscription)
	}
	for i := range core.FreeGoalLimit + 1 {
		rr := do(t, srv, http.MethodPost, "/api/goals", token, map[string]any{
			"title": fmt.Sprintf("Meta %d", i), "target_amount": 100,
		})
		want := http.StatusCreated
		if i == core.FreeGoalLimit {
			want = http.StatusForbidden
		}
		if rr.Code != want {
			t.Fatalf("goal %d status=%d, want %d", i, rr.Code, want)
		}
	}
}

func TestReports(t *testing.T) {
	srv := newTestServer(t, nil)
	token := signUp(t, srv, "rui@example.com")

	for _, in := range []map[string]any{
		{"description": "Salário", "amount": 3000, "date": "2024-03-01"},
		{"description": "Freela", "amount": 500, "date": "2024-01-20"},
	} {
		if rr := do(t, srv, http.MethodPost, "/api/incomes", token, in); rr.Code != http.StatusCreated {
			t.Fatalf("create income status=%d", rr.Code)
		}
	}

	rr := do(t, srv, http.MethodGet, "/api/reports/monthly?months=3", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("monthly status=%d", rr.Code)
	}
	var series []core.MonthTotals
	if err := json.Unmarshal(rr.Body.Bytes(), &series); err != nil {
		t.Fatalf("decode series: %v", err)
	}
	if len(series) != 3 || series[0].Month != 1 || series[2].Month != 3 {
		t.Fatalf("series = %+v", series)
	}
	if series[0].Income.Cents != 50000 || series[2].Income.Cents != 300000 {
		t.Errorf("series incomes = %d, %d", series[0].Income.Cents, series[2].Income.Cents)
	}

	rr = do(t, srv, http.MethodGet, "/api/reports/recent?limit=1", token, nil)
	var recent []core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &recent); err != nil {
		t.Fatalf("decode recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Description != "Salário" {
		t.Errorf("recent = %+v", recent)
	}

	rr = do(t, srv, http.MethodGet, "/api/reports/daily", token, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"text":"Saldo:`) {
		t.Errorf("daily status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = do(t, srv, http.MethodGet, "/api/reports/daily?date=ontem", token, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("daily bad date status=%d, want 400", rr.Code)
	}
}

func TestExportRequiresPremium(t *testing.T) {
	srv, store := newTestServerWithStore(t, nil)
	token := signUp(t, srv, "lia@example.com")

	rr := do(t, srv, http.MethodGet, "/api/reports/export.xlsx", token, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("free export status=%d, want 403", rr.Code)
	}

	grantPremium(t, srv, store, token)
	rr = do(t, srv, http.MethodGet, "/api/reports/export.xlsx", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("premium export status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != report.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "organizapay-2024-03-15.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	// xlsx files are zip archives.
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Error("export body is not a zip archive")
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	srv := newTestServer(t, nil)
	token := signUp(t, srv, "caio@example.com")

	rr := do(t, srv, http.MethodPost, "/auth/signout", token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("signout status=%d", rr.Code)
	}
	if srv.registry.Len() != 0 {
		t.Errorf("registry still holds %d controllers", srv.registry.Len())
	}
	rr = do(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token status=%d, want 401", rr.Code)
	}
}

func TestDashboardPage(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/dashboard", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous dashboard status=%d, want 401", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Entre na sua conta") {
		t.Error("anonymous dashboard missing sign-in prompt")
	}

	token := signUp(t, srv, "bia@example.com")
	do(t, srv, http.MethodPost, "/api/expenses", token, map[string]any{
		"description": "Cartão", "amount": 120, "date": "2024-03-02", "type": "divida", "category": "Cartão",
	})

	rr = do(t, srv, http.MethodGet, "/dashboard", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Maria", "Cartão", "Dívida", "Saldo"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard body missing %q", want)
		}
	}

	rr = do(t, srv, http.MethodGet, "/", "", nil)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dashboard" {
		t.Errorf("root redirect status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}
}
