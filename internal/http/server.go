// Package http serves the ledger as a JSON API. Every /api route acts on the
// workspace of the user named by the X-User-ID header.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/apperr"
	"fintrack/internal/banksync"
	"fintrack/internal/entry"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/workspace"
)

// Config holds server settings.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	Logger             *log.Logger
}

// Server is the API server. It embeds http.Server so callers can
// ListenAndServe directly.
type Server struct {
	http.Server

	registry *workspace.Registry
	parser   *entry.Parser
	bank     *banksync.Importer

	logger   *log.Logger
	events   *log.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. bank may be nil, which disables
// POST /api/bank/connect.
func NewServer(cfg Config, registry *workspace.Registry, parser *entry.Parser, bank *banksync.Importer) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		registry:  registry,
		parser:    parser,
		bank:      bank,
		logger:    logger,
		events:    log.NewStructuredLogger(logger.WithComponent(log.ComponentLedger)),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		startedAt: time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.flagSuspicious(handler)
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, r, apperr.ErrRateLimited)
	})(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard", s.withWorkspace(s.handleDashboard))
	mux.HandleFunc("GET /api/dashboard/{view}", s.withWorkspace(s.handleDashboardView))

	mux.HandleFunc("GET /api/incomes", s.withWorkspace(s.handleListIncomes))
	mux.HandleFunc("POST /api/incomes", s.withWorkspace(s.handleCreateIncome))
	mux.HandleFunc("PUT /api/incomes/{id}", s.withWorkspace(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /api/incomes/{id}", s.withWorkspace(s.handleDeleteIncome))
	mux.HandleFunc("DELETE /api/incomes", s.withWorkspace(s.handleResetIncomes))

	mux.HandleFunc("GET /api/bills", s.withWorkspace(s.handleListBills))
	mux.HandleFunc("POST /api/bills", s.withWorkspace(s.handleCreateBill))
	mux.HandleFunc("PUT /api/bills/{id}", s.withWorkspace(s.handleUpdateBill))
	mux.HandleFunc("DELETE /api/bills/{id}", s.withWorkspace(s.handleDeleteBill))
	mux.HandleFunc("DELETE /api/bills", s.withWorkspace(s.handleResetBills))
	mux.HandleFunc("POST /api/bills/paid", s.withWorkspace(s.handleSetBillsPaid))
	mux.HandleFunc("POST /api/bills/{id}/toggle", s.withWorkspace(s.handleToggleBill))

	mux.HandleFunc("GET /api/transactions", s.withWorkspace(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withWorkspace(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withWorkspace(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withWorkspace(s.handleDeleteTransaction))
	mux.HandleFunc("DELETE /api/transactions", s.withWorkspace(s.handleResetTransactions))

	mux.HandleFunc("GET /api/accounts", s.withWorkspace(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.withWorkspace(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts/{id}", s.withWorkspace(s.handleGetAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.withWorkspace(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.withWorkspace(s.handleDeleteAccount))
	mux.HandleFunc("DELETE /api/accounts", s.withWorkspace(s.handleResetAccounts))
	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.withWorkspace(s.handleAccountTransactions))

	mux.HandleFunc("POST /api/reset", s.withWorkspace(s.handleResetAll))
	mux.HandleFunc("POST /api/bank/connect", s.withWorkspace(s.handleBankConnect))
}

// workspaceHandler is an API handler bound to the caller's workspace.
type workspaceHandler func(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace)

func (s *Server) withWorkspace(next workspaceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := userIDFrom(r)
		if err != nil {
			respondWithError(w, r, err)
			return
		}
		ws, err := s.registry.Get(r.Context(), uid)
		if err != nil {
			if errors.Is(err, workspace.ErrClosed) {
				respondWithError(w, r, apperr.Wrap(apperr.ErrUnavailable, err))
				return
			}
			respondWithError(w, r, err)
			return
		}
		ctx := log.IntoContext(r.Context(), log.FromContext(r.Context()).With(log.FieldUserID, uid))
		next(w, r.WithContext(ctx), ws)
	}
}

func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops accepting requests and releases background goroutines.
// Workspaces are owned by the caller and are not closed here.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":              "ready",
		"workspaces":          len(s.registry.Users()),
		"requests":            s.tracer.GetMetrics(),
		"rate_limit_clients":  s.limiter.ActiveClients(),
		"rate_limit_hits":     s.limiter.Hits(),
		"suspicious_requests": s.detector.SuspiciousRequests(),
	})
}
