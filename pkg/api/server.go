package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"payments-engine/pkg/account"
	"payments-engine/pkg/csvio"
	"payments-engine/pkg/engine"
	"payments-engine/pkg/logging"
	"payments-engine/pkg/metrics/memory"
	"payments-engine/pkg/pipeline"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Snapshot is the final state of a completed run.
type Snapshot struct {
	RunID    string
	Accounts map[uint16]account.Account
	Result   pipeline.Result
	Stats    engine.Stats
}

// AccountView is the JSON representation of an account.
type AccountView struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

func newAccountView(acc account.Account) AccountView {
	return AccountView{
		Client:    acc.ID,
		Available: acc.Available.StringFixed(csvio.AmountPrecision),
		Held:      acc.Held.StringFixed(csvio.AmountPrecision),
		Total:     acc.Total.StringFixed(csvio.AmountPrecision),
		Locked:    acc.Locked,
	}
}

// MetricsSnapshotter is implemented by collectors that can report their state as JSON.
type MetricsSnapshotter interface {
	Snapshot() memory.Snapshot
}

// Server serves a read-only view of a completed run.
type Server struct {
	snapshot Snapshot
	accounts []AccountView
	gatherer prometheus.Gatherer
	metrics  MetricsSnapshotter
	logger   *logging.Logger
	router   *mux.Router
	server   *http.Server
	listener net.Listener
	config   ServerConfig
	started  time.Time
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	// Address to listen on (e.g., ":8080")
	Address string

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration
}

// DefaultServerConfig returns a default configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Address:      ":8080",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Option customizes a Server.
type Option func(*Server)

// WithGatherer exposes the gatherer's metrics at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMetricsSnapshot exposes the collector's state at /metrics/json.
func WithMetricsSnapshot(m MetricsSnapshotter) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server for snapshot. The snapshot is not modified afterwards.
func NewServer(snapshot Snapshot, config ServerConfig, opts ...Option) *Server {
	s := &Server{
		snapshot: snapshot,
		config:   config,
		logger:   logging.L(),
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("api")

	for _, acc := range csvio.SortedAccounts(snapshot.Accounts) {
		s.accounts = append(s.accounts, newAccountView(acc))
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/accounts", s.handleAccounts).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{client}", s.handleAccount).Methods(http.MethodGet)
	r.HandleFunc("/metrics/json", s.handleMetricsJSON).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	s.router = r

	s.server = &http.Server{
		Addr:         config.Address,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the configured address and serves in a goroutine.
// Bind errors are returned; errors while serving are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.listener = ln

	s.logger.Info("serving snapshot", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleHealth returns a simple health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleStatus returns the run summary.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "finished",
		"run_id": s.snapshot.RunID,
		"result": s.snapshot.Result,
		"engine": s.snapshot.Stats,
		"uptime": time.Since(s.started).String(),
	})
}

// handleAccounts returns every account sorted by client id.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := s.accounts
	if accounts == nil {
		accounts = []AccountView{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// handleAccount returns a single account.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["client"]

	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "client must be an integer between 0 and 65535",
			"client": raw,
		})
		return
	}

	acc, ok := s.snapshot.Accounts[uint16(id)]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":  "account not found",
			"client": id,
		})
		return
	}

	writeJSON(w, http.StatusOK, newAccountView(acc))
}

// handleMetricsJSON returns metrics in JSON format.
func (s *Server) handleMetricsJSON(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error": "metrics collector does not support JSON snapshot",
		})
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
