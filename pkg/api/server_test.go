package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"payments-engine/pkg/account"
	"payments-engine/pkg/engine"
	"payments-engine/pkg/logging"
	memorycollector "payments-engine/pkg/metrics/memory"
	promcollector "payments-engine/pkg/metrics/prometheus"
	"payments-engine/pkg/pipeline"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func testSnapshot() Snapshot {
	open := account.New(2)
	open.Execute(account.Deposit, decimal.RequireFromString("2"))
	open.Execute(account.Withdraw, decimal.RequireFromString("0.5"))

	locked := account.New(1)
	locked.Execute(account.Deposit, decimal.RequireFromString("1.5"))
	locked.Execute(account.Dispute, decimal.RequireFromString("1.5"))
	locked.Execute(account.Chargeback, decimal.RequireFromString("1.5"))

	return Snapshot{
		RunID:    "run-1",
		Accounts: map[uint16]account.Account{1: *locked, 2: *open},
		Result:   pipeline.Result{Read: 5, Applied: 5, RejectedByKind: map[string]int64{}},
		Stats:    engine.Stats{Accounts: 2, Deposits: 2},
	}
}

func setupTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewNoOpLogger())}, opts...)
	return NewServer(testSnapshot(), DefaultServerConfig(), opts...)
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	server := setupTestServer(t)

	w := get(t, server, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(w.Body).Decode(&response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", response["status"])
	}
}

func TestServer_Status(t *testing.T) {
	server := setupTestServer(t)

	w := get(t, server, "/status")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Status string          `json:"status"`
		RunID  string          `json:"run_id"`
		Result pipeline.Result `json:"result"`
		Engine engine.Stats    `json:"engine"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.RunID != "run-1" {
		t.Errorf("Expected run id run-1, got %s", response.RunID)
	}
	if response.Result.Applied != 5 {
		t.Errorf("Expected 5 applied, got %d", response.Result.Applied)
	}
	if response.Engine.Accounts != 2 {
		t.Errorf("Expected 2 accounts, got %d", response.Engine.Accounts)
	}
}

func TestServer_Accounts_SortedByClient(t *testing.T) {
	server := setupTestServer(t)

	w := get(t, server, "/accounts")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var accounts []AccountView
	if err := json.NewDecoder(w.Body).Decode(&accounts); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("Expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Client != 1 || accounts[1].Client != 2 {
		t.Errorf("Expected clients [1 2], got [%d %d]", accounts[0].Client, accounts[1].Client)
	}

	want := AccountView{Client: 1, Available: "0.0000", Held: "0.0000", Total: "0.0000", Locked: true}
	if accounts[0] != want {
		t.Errorf("Expected %+v, got %+v", want, accounts[0])
	}
}

func TestServer_Accounts_Empty(t *testing.T) {
	server := NewServer(Snapshot{}, DefaultServerConfig(), WithLogger(logging.NewNoOpLogger()))

	w := get(t, server, "/accounts")

	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("Expected empty array, got %s", body)
	}
}

func TestServer_Account(t *testing.T) {
	server := setupTestServer(t)

	w := get(t, server, "/accounts/2")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var view AccountView
	json.NewDecoder(w.Body).Decode(&view)

	want := AccountView{Client: 2, Available: "1.5000", Held: "0.0000", Total: "1.5000"}
	if view != want {
		t.Errorf("Expected %+v, got %+v", want, view)
	}
}

func TestServer_Account_Errors(t *testing.T) {
	server := setupTestServer(t)

	tests := []struct {
		path string
		code int
	}{
		{"/accounts/3", http.StatusNotFound},
		{"/accounts/abc", http.StatusBadRequest},
		{"/accounts/65536", http.StatusBadRequest},
		{"/accounts/-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		w := get(t, server, tt.path)
		if w.Code != tt.code {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.code, w.Code)
		}
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/accounts", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestServer_MetricsJSON(t *testing.T) {
	collector := memorycollector.NewMemoryCollector()
	collector.RecordProcessed("deposit", "none", time.Millisecond)
	collector.RecordMalformed()

	server := setupTestServer(t, WithMetricsSnapshot(collector))

	w := get(t, server, "/metrics/json")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var snapshot memorycollector.Snapshot
	json.NewDecoder(w.Body).Decode(&snapshot)

	if snapshot.Malformed != 1 {
		t.Errorf("Expected 1 malformed, got %d", snapshot.Malformed)
	}
	if snapshot.Commands["deposit"].Applied != 1 {
		t.Errorf("Expected 1 applied deposit, got %d", snapshot.Commands["deposit"].Applied)
	}
}

func TestServer_MetricsJSON_Unsupported(t *testing.T) {
	server := setupTestServer(t)

	w := get(t, server, "/metrics/json")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_Metrics_Prometheus(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := promcollector.NewPrometheusCollector("test")
	if err := collector.Register(registry); err != nil {
		t.Fatalf("Failed to register collector: %v", err)
	}
	collector.RecordMalformed()

	server := setupTestServer(t, WithGatherer(registry))

	w := get(t, server, "/metrics")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "test_records_malformed_total 1") {
		t.Errorf("Expected malformed counter in output, got:\n%s", w.Body.String())
	}
}

func TestServer_Metrics_NoGatherer(t *testing.T) {
	server := setupTestServer(t)

	w := get(t, server, "/metrics")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestServer_StartStop(t *testing.T) {
	config := DefaultServerConfig()
	config.Address = "127.0.0.1:0"
	server := NewServer(testSnapshot(), config, WithLogger(logging.NewNoOpLogger()))

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	resp, err := http.Get("http://" + server.Addr() + "/health")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		t.Errorf("Failed to stop server: %v", err)
	}
}

func TestServer_StartBindError(t *testing.T) {
	config := DefaultServerConfig()
	config.Address = "256.0.0.1:bogus"
	server := NewServer(testSnapshot(), config, WithLogger(logging.NewNoOpLogger()))

	if err := server.Start(); err == nil {
		t.Error("Expected bind error, got nil")
	}
}
