// Package dashboard serves the read-only HTTP surface a paper-trading
// operator or monitoring system reaches: Prometheus metrics from the
// default registry, a health check, and the persisted scan history read
// through internal/storage.
package dashboard

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sym2arb/internal/storage"
)

// Config holds the server's runtime settings.
type Config struct {
	Port      int
	AuthToken string
}

// Server is the dashboard's HTTP surface: it has no write path of its
// own, only read access to a storage.Store.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	store   storage.Store
	logger  *log.Logger
	port    int
	authTok string
}

// NewServer builds a Server and registers its routes.
func NewServer(cfg Config, store storage.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		mux:     http.NewServeMux(),
		store:   store,
		logger:  logger,
		port:    cfg.Port,
		authTok: cfg.AuthToken,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/scans/", s.withAuth(s.handleGetScansByDate))
}

// Handler returns the fully wrapped top-level handler (logging +
// recovery), suitable for http.Server.Handler or a test server.
func (s *Server) Handler() http.Handler {
	return s.recoverMiddleware(s.loggingMiddleware(s.mux))
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("method=%s path=%s remote=%s duration=%s",
			r.Method, s.redactedPath(r.URL), r.RemoteAddr, time.Since(start))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Printf("panic serving %s: %v", r.URL.Path, rec)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// redactedPath returns the request URL with any token/auth_token query
// parameter masked, for safe logging.
func (s *Server) redactedPath(u *url.URL) *url.URL {
	out := *u
	if u.RawQuery == "" {
		return &out
	}
	values := u.Query()
	for _, k := range []string{"token", "auth_token"} {
		if values.Has(k) {
			values.Set(k, "[REDACTED]")
		}
	}
	out.RawQuery = values.Encode()
	return &out
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	if s.authTok == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			if cookie, err := r.Cookie("auth_token"); err == nil {
				token = cookie.Value
			}
		}
		if !s.isValidToken(token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) isValidToken(token string) bool {
	if len(token) != len(s.authTok) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.authTok)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "timestamp": time.Now().Unix()})
}

// handleGetScansByDate serves GET /api/scans/{date}, date formatted
// YYYYMMDD to match internal/storage's ScanRecord.Date convention.
func (s *Server) handleGetScansByDate(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimPrefix(r.URL.Path, "/api/scans/")
	if date == "" || strings.Contains(date, "/") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	records := s.store.GetScansByDate(date)
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

// Start blocks serving the dashboard until Shutdown is called or the
// listener fails.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Printf("starting dashboard server on port %d", s.port)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
