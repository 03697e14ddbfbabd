package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"prevgest/internal/core"
	"prevgest/internal/importer"
	"prevgest/internal/spreadsheet"
	appweb "prevgest/web"
)

// Ports the server needs from the rest of the application. The SQLite
// repository satisfies Store; the import service satisfies ImportRunner.
type (
	Store interface {
		GetContract(ctx context.Context, number string) (core.Contract, error)
		ListContracts(ctx context.Context) ([]core.Contract, error)
		ListEntries(ctx context.Context, contractNumber string) ([]core.LedgerEntry, error)
		AppendEntry(ctx context.Context, e core.LedgerEntry) (int64, error)
		Summary(ctx context.Context) (core.DashboardSummary, error)
	}

	ImportRunner interface {
		ImportContracts(ctx context.Context, sheet *spreadsheet.Sheet, source string) (*importer.Report, error)
		ImportFinancialEvents(ctx context.Context, sheet *spreadsheet.Sheet, eventType core.EventType, source string) (*importer.Report, error)
	}

	// RosterFetcher pulls the contract roster from the ASTREA export.
	// Optional; the route is mounted only when one is configured.
	RosterFetcher interface {
		FetchRoster(ctx context.Context) (*spreadsheet.Sheet, error)
	}
)

type Server struct {
	http.Server
	templates      *template.Template
	store          Store
	imports        ImportRunner
	roster         RosterFetcher
	maxUploadBytes int64
	rateLimiter    *rateLimiter
	shutdownOnce   sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. roster may be nil when no ASTREA export is configured.
func NewServer(addr string, store Store, imports ImportRunner, roster RosterFetcher, maxUploadBytes int64) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:          store,
		imports:        imports,
		roster:         roster,
		maxUploadBytes: maxUploadBytes,
		rateLimiter:    newRateLimiter(),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /{$}", s.withMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /contratos", s.withMiddleware(s.handleContractList))
	mux.HandleFunc("GET /contratos/{numero}", s.withMiddleware(s.handleContractView))
	mux.HandleFunc("POST /contratos/{numero}/lancamentos", s.withMiddleware(s.handleCreateEntry))
	mux.HandleFunc("POST /importar/contratos", s.withMiddleware(s.handleImportContracts))
	mux.HandleFunc("POST /importar/financeiro", s.withMiddleware(s.handleImportFinancial))
	if roster != nil {
		mux.HandleFunc("POST /importar/astrea", s.withMiddleware(s.handleImportAstrea))
	}

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request
// logging to a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests (imports, manual entries).
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Limite de requisições excedido. Tente novamente em instantes.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
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

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
