package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/service"
	"fintrack/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	st := memory.New()
	svc, err := service.NewLedgerService(st, nil, "default")
	if err != nil {
		t.Fatalf("NewLedgerService: %v", err)
	}
	mgr, err := auth.NewManager("test-secret")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	srv := NewServer(":0", svc, st, mgr)
	t.Cleanup(func() {
		srv.rateLimiter.stop()
		srv.cacheMgr.Stop()
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// registerUser registers a fresh account and returns its token.
func registerUser(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	resp := decodeBody[map[string]any](t, rec)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatalf("register %s: missing token in %s", email, rec.Body.String())
	}
	return token
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fintrack_requests_total") {
		t.Errorf("/metrics missing counter, got %q", rec.Body.String())
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	token := registerUser(t, srv, "alice@example.com")

	// Duplicate email is rejected.
	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "Alice@Example.com",
		"name":     "Alice Again",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: status = %d, want 409", rec.Code)
	}

	// Wrong password.
	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password login: status = %d, want 401", rec.Code)
	}

	// Unknown account gets the same answer as a bad password.
	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown account login: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/auth/profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: status = %d", rec.Code)
	}
	profile := decodeBody[map[string]any](t, rec)
	if profile["email"] != "alice@example.com" {
		t.Errorf("profile email = %v, want alice@example.com", profile["email"])
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("logout: status = %d, want 204", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing email", map[string]string{"name": "X", "password": "hunter2hunter2"}, http.StatusUnprocessableEntity},
		{"bad email", map[string]string{"email": "not-an-email", "name": "X", "password": "hunter2hunter2"}, http.StatusUnprocessableEntity},
		{"missing name", map[string]string{"email": "x@example.com", "password": "hunter2hunter2"}, http.StatusUnprocessableEntity},
		{"short password", map[string]string{"email": "x@example.com", "name": "X", "password": "short"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/transactions"},
		{http.MethodGet, "/api/budgets"},
		{http.MethodGet, "/api/analytics/dashboard"},
	}
	for _, p := range paths {
		rec := doJSON(t, srv, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d, want 401", p.method, p.path, rec.Code)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/transactions", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
}

func TestTransactionCRUD(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "crud@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"title":    "Groceries",
		"amount":   54.30,
		"category": "Food & Dining",
		"type":     "expense",
		"date":     "2026-08-12",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[map[string]any](t, rec)
	id := int64(created["id"].(float64))
	if id == 0 {
		t.Fatal("create: missing id")
	}
	if created["amount"].(float64) != 54.30 {
		t.Errorf("create amount = %v, want 54.30", created["amount"])
	}

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions/%d", id), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/transactions/%d", id), token, map[string]any{
		"title":    "Groceries and snacks",
		"amount":   61.00,
		"category": "Food & Dining",
		"type":     "expense",
		"date":     "2026-08-12",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[map[string]any](t, rec)
	if updated["title"] != "Groceries and snacks" {
		t.Errorf("update title = %v", updated["title"])
	}

	// Another user cannot see or delete it.
	otherToken := registerUser(t, srv, "other@example.com")
	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions/%d", id), otherToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user get: status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", id), otherToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user delete: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", id), token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/transactions/%d", id), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
}

func TestTransactionValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "validate@example.com")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"empty title", map[string]any{"title": "", "amount": 10.0, "category": "Other", "type": "expense", "date": "2026-08-01"}, http.StatusUnprocessableEntity},
		{"zero amount", map[string]any{"title": "x", "amount": 0.0, "category": "Other", "type": "expense", "date": "2026-08-01"}, http.StatusBadRequest},
		{"negative amount", map[string]any{"title": "x", "amount": -5.0, "category": "Other", "type": "expense", "date": "2026-08-01"}, http.StatusBadRequest},
		{"bad kind", map[string]any{"title": "x", "amount": 10.0, "category": "Other", "type": "transfer", "date": "2026-08-01"}, http.StatusUnprocessableEntity},
		{"bad date", map[string]any{"title": "x", "amount": 10.0, "category": "Other", "type": "expense", "date": "08/01/2026"}, http.StatusBadRequest},
		{"unknown field", map[string]any{"title": "x", "amount": 10.0, "category": "Other", "type": "expense", "date": "2026-08-01", "bogus": true}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestTransactionListFilters(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "filters@example.com")

	seed := []map[string]any{
		{"title": "Salary", "amount": 3000.0, "category": "Salary", "type": "income", "date": "2026-08-01"},
		{"title": "Rent", "amount": 1200.0, "category": "Bills & Utilities", "type": "expense", "date": "2026-08-03"},
		{"title": "Dinner", "amount": 45.0, "category": "Food & Dining", "type": "expense", "date": "2026-08-10"},
		{"title": "July dinner", "amount": 30.0, "category": "Food & Dining", "type": "expense", "date": "2026-07-20"},
	}
	for _, tx := range seed {
		rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, tx)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed %v: status %d body %s", tx["title"], rec.Code, rec.Body.String())
		}
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all", "", 4},
		{"expenses", "?type=expense", 3},
		{"income", "?type=income", 1},
		{"category", "?category=Food+%26+Dining", 2},
		{"date range", "?from=2026-08-01&to=2026-08-31", 3},
		{"limit", "?limit=2", 2},
		{"offset", "?limit=10&offset=3", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodGet, "/api/transactions"+tt.query, token, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
			}
			list := decodeBody[[]map[string]any](t, rec)
			if len(list) != tt.want {
				t.Errorf("len = %d, want %d", len(list), tt.want)
			}
		})
	}

	// Newest first.
	rec := doJSON(t, srv, http.MethodGet, "/api/transactions", token, nil)
	list := decodeBody[[]map[string]any](t, rec)
	if list[0]["title"] != "Dinner" {
		t.Errorf("first item = %v, want Dinner", list[0]["title"])
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?type=transfer", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type filter: status = %d, want 400", rec.Code)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "budgets@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/budgets", token, map[string]any{
		"category": "Food & Dining",
		"amount":   500.0,
		"period":   "monthly",
		"month":    8,
		"year":     2026,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: status = %d body %s", rec.Code, rec.Body.String())
	}
	budget := decodeBody[map[string]any](t, rec)
	budgetID := int64(budget["id"].(float64))
	if budget["color"] != "#EF4444" {
		t.Errorf("budget color = %v, want catalog default #EF4444", budget["color"])
	}

	// Spend against it.
	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"title": "Groceries", "amount": 150.0, "category": "Food & Dining", "type": "expense", "date": "2026-08-05",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed tx: status %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/budgets?year=2026&month=8", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list budgets: status = %d body %s", rec.Code, rec.Body.String())
	}
	reports := decodeBody[[]map[string]any](t, rec)
	if len(reports) != 1 {
		t.Fatalf("reports len = %d, want 1", len(reports))
	}
	status := reports[0]["status"].(map[string]any)
	if status["percentage"].(float64) != 30.0 {
		t.Errorf("percentage = %v, want 30", status["percentage"])
	}
	if status["spent"].(float64) != 150.0 {
		t.Errorf("spent = %v, want 150", status["spent"])
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/budgets/summary?year=2026&month=8", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status = %d body %s", rec.Code, rec.Body.String())
	}
	summary := decodeBody[map[string]any](t, rec)
	if summary["total_budget"].(float64) != 500.0 {
		t.Errorf("total_budget = %v, want 500", summary["total_budget"])
	}
	if summary["total_spent"].(float64) != 150.0 {
		t.Errorf("total_spent = %v, want 150", summary["total_spent"])
	}

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/budgets/%d", budgetID), token, map[string]any{
		"category": "Food & Dining",
		"amount":   600.0,
		"period":   "monthly",
		"month":    8,
		"year":     2026,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update budget: status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", budgetID), token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete budget: status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/budgets?year=2026&month=8", token, nil)
	reports = decodeBody[[]map[string]any](t, rec)
	if len(reports) != 0 {
		t.Errorf("after delete reports len = %d, want 0", len(reports))
	}
}

func TestBudgetValidation(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "budval@example.com")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"missing category", map[string]any{"amount": 100.0, "period": "monthly", "month": 8, "year": 2026}, http.StatusUnprocessableEntity},
		{"bad period", map[string]any{"category": "Other", "amount": 100.0, "period": "weekly", "month": 8, "year": 2026}, http.StatusUnprocessableEntity},
		{"monthly without month", map[string]any{"category": "Other", "amount": 100.0, "period": "monthly", "year": 2026}, http.StatusUnprocessableEntity},
		{"zero amount", map[string]any{"category": "Other", "amount": 0.0, "period": "yearly", "year": 2026}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/budgets", token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCategoryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "cats@example.com")

	rec := doJSON(t, srv, http.MethodGet, "/api/categories", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	all := decodeBody[[]map[string]any](t, rec)
	if len(all) != 14 {
		t.Errorf("seeded categories = %d, want 14", len(all))
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/categories?type=income", token, nil)
	income := decodeBody[[]map[string]any](t, rec)
	if len(income) != 5 {
		t.Errorf("income categories = %d, want 5", len(income))
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/categories", token, map[string]any{
		"name": "Pets", "color": "#14B8A6", "icon": "paw-print", "type": "expense",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[map[string]any](t, rec)
	catID := int64(created["id"].(float64))

	rec = doJSON(t, srv, http.MethodPost, "/api/categories", token, map[string]any{
		"name": "Pets", "color": "#14B8A6", "icon": "paw-print", "type": "expense",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create: status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/categories/%d", catID), token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/categories/%d", catID), token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete again: status = %d, want 404", rec.Code)
	}
}

func TestMonthlyAnalytics(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "analytics@example.com")

	seed := []map[string]any{
		{"title": "Salary", "amount": 3000.0, "category": "Salary", "type": "income", "date": "2026-08-01"},
		{"title": "Rent", "amount": 1200.0, "category": "Bills & Utilities", "type": "expense", "date": "2026-08-03"},
		{"title": "Dinner", "amount": 45.50, "category": "Food & Dining", "type": "expense", "date": "2026-08-10"},
	}
	for _, tx := range seed {
		rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, tx)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed: status %d", rec.Code)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/analytics/monthly?year=2026&month=8", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("monthly: status = %d body %s", rec.Code, rec.Body.String())
	}
	sum := decodeBody[map[string]float64](t, rec)
	if sum["income"] != 3000.0 {
		t.Errorf("income = %v, want 3000", sum["income"])
	}
	if sum["expense"] != 1245.50 {
		t.Errorf("expense = %v, want 1245.50", sum["expense"])
	}
	if sum["net_savings"] != 1754.50 {
		t.Errorf("net_savings = %v, want 1754.50", sum["net_savings"])
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/analytics/categories?year=2026&month=8", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("categories: status = %d", rec.Code)
	}
	totals := decodeBody[[]map[string]any](t, rec)
	if len(totals) != 2 {
		t.Fatalf("totals len = %d, want 2", len(totals))
	}
	if totals[0]["name"] != "Bills & Utilities" {
		t.Errorf("top category = %v, want Bills & Utilities", totals[0]["name"])
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/analytics/net-savings?year=2026&month=8", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("net-savings: status = %d", rec.Code)
	}
	points := decodeBody[[]map[string]any](t, rec)
	if len(points) != 3 {
		t.Fatalf("points len = %d, want 3", len(points))
	}
	if points[0]["bucket"] != "2026-08-01" {
		t.Errorf("first bucket = %v, want 2026-08-01", points[0]["bucket"])
	}
	if points[0]["net"].(float64) != 3000.0 {
		t.Errorf("first net = %v, want 3000", points[0]["net"])
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/analytics/net-savings?granularity=week", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad granularity: status = %d, want 400", rec.Code)
	}
}

func TestDashboardCaching(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "dash@example.com")

	rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"title": "Salary", "amount": 2000.0, "category": "Salary", "type": "income", "date": "2026-08-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed: status %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/analytics/dashboard?year=2026&month=8", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status = %d body %s", rec.Code, rec.Body.String())
	}
	dash := decodeBody[map[string]any](t, rec)
	if dash["income"].(float64) != 2000.0 {
		t.Errorf("income = %v, want 2000", dash["income"])
	}

	// A write must invalidate the cached dashboard.
	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", token, map[string]any{
		"title": "Rent", "amount": 800.0, "category": "Bills & Utilities", "type": "expense", "date": "2026-08-02",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("second tx: status %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/analytics/dashboard?year=2026&month=8", token, nil)
	dash = decodeBody[map[string]any](t, rec)
	if dash["expense"].(float64) != 800.0 {
		t.Errorf("expense after invalidation = %v, want 800", dash["expense"])
	}
	if dash["net_savings"].(float64) != 1200.0 {
		t.Errorf("net_savings = %v, want 1200", dash["net_savings"])
	}
	recent := dash["recent_transactions"].([]any)
	if len(recent) != 2 {
		t.Errorf("recent len = %d, want 2", len(recent))
	}
}

func TestAdvisoriesEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := registerUser(t, srv, "advice@example.com")

	seed := []map[string]any{
		{"title": "Salary", "amount": 4000.0, "category": "Salary", "type": "income", "date": "2026-08-01"},
		{"title": "Rent", "amount": 1000.0, "category": "Bills & Utilities", "type": "expense", "date": "2026-08-02"},
	}
	for _, tx := range seed {
		rec := doJSON(t, srv, http.MethodPost, "/api/transactions", token, tx)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed: status %d", rec.Code)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/advisories?year=2026&month=8", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advisories: status = %d body %s", rec.Code, rec.Body.String())
	}
	advisories := decodeBody[[]map[string]any](t, rec)
	if len(advisories) == 0 {
		t.Fatal("expected at least one advisory")
	}
	found := false
	for _, a := range advisories {
		if a["title"] == "Great Savings Performance!" {
			found = true
		}
	}
	if !found {
		t.Error("missing savings advisory for a 75% savings rate")
	}
}

func TestSecurityHeadersAndRequestLog(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "x@example.com", "password": "whatever123"})
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d unexpectedly limited", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("request 61 should be limited")
	}
	// A different client is unaffected.
	if !rl.allow("10.0.0.2") {
		t.Error("other client should be allowed")
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct", "203.0.113.7:4411", "", "", "203.0.113.7"},
		{"untrusted ignores xff", "203.0.113.7:4411", "198.51.100.9", "", "203.0.113.7"},
		{"trusted honors xff", "127.0.0.1:4411", "198.51.100.9", "", "198.51.100.9"},
		{"trusted honors first xff hop", "10.1.2.3:80", "198.51.100.9, 10.0.0.1", "", "198.51.100.9"},
		{"trusted falls back to xri", "192.168.1.1:80", "", "198.51.100.4", "198.51.100.4"},
		{"trusted bad xff ignored", "127.0.0.1:80", "not-an-ip", "", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseYearMonth(t *testing.T) {
	now := time.Now()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/monthly", nil)
	year, month, err := parseYearMonth(req)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if year != now.Year() || month != int(now.Month()) {
		t.Errorf("defaults = %d-%d, want current month", year, month)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/analytics/monthly?year=2025&month=12", nil)
	year, month, err = parseYearMonth(req)
	if err != nil || year != 2025 || month != 12 {
		t.Errorf("explicit = %d-%d err %v, want 2025-12", year, month, err)
	}

	for _, q := range []string{"?month=13", "?month=0", "?year=123", "?year=abc"} {
		req = httptest.NewRequest(http.MethodGet, "/api/analytics/monthly"+q, nil)
		if _, _, err := parseYearMonth(req); err == nil {
			t.Errorf("query %s: expected error", q)
		}
	}
}
