// Package http serves the fintrack JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/ledger"
	"fintrack/internal/service"
	"fintrack/internal/store"
)

type Server struct {
	http.Server
	svc         *service.LedgerService
	users       store.UserStore
	auth        *auth.Manager
	rateLimiter *rateLimiter
	cacheMgr    *cache.Manager

	// Response caches for the heavy read endpoints, keyed per user so
	// writes can invalidate by prefix.
	dashboardCache *cache.LRUCache[service.Dashboard]
	reportCache    *cache.LRUCache[[]ledger.BudgetReport]

	metrics      serverMetrics
	shutdownOnce sync.Once
}

type serverMetrics struct {
	totalRequests int64
	totalErrors   int64
	rateLimitHits int64
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *service.LedgerService, users store.UserStore, authMgr *auth.Manager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:            svc,
		users:          users,
		auth:           authMgr,
		rateLimiter:    newRateLimiter(),
		cacheMgr:       cache.NewManager(),
		dashboardCache: cache.NewLRUCache[service.Dashboard](100, 5*time.Minute),
		reportCache:    cache.NewLRUCache[[]ledger.BudgetReport](200, 5*time.Minute),
	}

	s.cacheMgr.Register(s.dashboardCache)
	s.cacheMgr.Register(s.reportCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	public := func(h http.HandlerFunc) http.Handler {
		return s.withRequestContext(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return s.withRequestContext(s.auth.Middleware(h))
	}

	mux.Handle("POST /api/auth/register", public(s.handleRegister))
	mux.Handle("POST /api/auth/login", public(s.handleLogin))
	mux.Handle("POST /api/auth/logout", protected(s.handleLogout))
	mux.Handle("GET /api/auth/profile", protected(s.handleProfile))

	mux.Handle("GET /api/transactions", protected(s.handleListTransactions))
	mux.Handle("POST /api/transactions", protected(s.handleCreateTransaction))
	mux.Handle("GET /api/transactions/{id}", protected(s.handleGetTransaction))
	mux.Handle("PUT /api/transactions/{id}", protected(s.handleUpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", protected(s.handleDeleteTransaction))

	mux.Handle("GET /api/categories", protected(s.handleListCategories))
	mux.Handle("POST /api/categories", protected(s.handleCreateCategory))
	mux.Handle("DELETE /api/categories/{id}", protected(s.handleDeleteCategory))

	mux.Handle("GET /api/budgets", protected(s.handleListBudgets))
	mux.Handle("POST /api/budgets", protected(s.handleCreateBudget))
	mux.Handle("GET /api/budgets/summary", protected(s.handleBudgetSummary))
	mux.Handle("PUT /api/budgets/{id}", protected(s.handleUpdateBudget))
	mux.Handle("DELETE /api/budgets/{id}", protected(s.handleDeleteBudget))

	mux.Handle("GET /api/analytics/monthly", protected(s.handleMonthlyAnalytics))
	mux.Handle("GET /api/analytics/categories", protected(s.handleCategoryAnalytics))
	mux.Handle("GET /api/analytics/net-savings", protected(s.handleNetSavings))
	mux.Handle("GET /api/analytics/dashboard", protected(s.handleDashboard))
	mux.Handle("GET /api/advisories", protected(s.handleAdvisories))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestContext adds security headers, rate limiting and request
// logging around every route.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&s.metrics.totalRequests, 1)

		clientIP := extractClientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Mutating requests are rate limited per client.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			atomic.AddInt64(&s.metrics.rateLimitHits, 1)
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode >= http.StatusInternalServerError {
			atomic.AddInt64(&s.metrics.totalErrors, 1)
		}

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	})
}

// invalidateUserCaches drops a user's cached read payloads after a write.
func (s *Server) invalidateUserCaches(userID int64) {
	prefix := fmt.Sprintf("%d:", userID)
	s.dashboardCache.DeletePrefix(prefix)
	s.reportCache.DeletePrefix(prefix)
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "fintrack_requests_total %d\n", atomic.LoadInt64(&s.metrics.totalRequests))
	fmt.Fprintf(w, "fintrack_errors_total %d\n", atomic.LoadInt64(&s.metrics.totalErrors))
	fmt.Fprintf(w, "fintrack_rate_limit_hits_total %d\n", atomic.LoadInt64(&s.metrics.rateLimitHits))
}
