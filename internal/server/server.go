// Package server provides the HTTP API: accounts, resume storage, AI
// assistance, paginated layout and PDF export.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/resume-layout/internal/browser"
	"github.com/jonathan/resume-layout/internal/config"
	"github.com/jonathan/resume-layout/internal/db"
	"github.com/jonathan/resume-layout/internal/export"
	"github.com/jonathan/resume-layout/internal/llm"
	"github.com/jonathan/resume-layout/internal/measure"
	"github.com/jonathan/resume-layout/internal/server/middleware"
	"github.com/jonathan/resume-layout/internal/server/ratelimit"
	"github.com/jonathan/resume-layout/internal/session"
	"github.com/jonathan/resume-layout/internal/upload"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          DBClient
	sessions    *session.Manager
	assistant   *llm.Assistant
	exporter    export.Exporter
	uploads     *upload.Store
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	authHandler *AuthHandler
	cleanup     []func()
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	APIKey      string
	UploadDir   string
	Exporter    string // config.ExporterCanvas or config.ExporterChrome
	Verbose     bool
}

// deps are the collaborators a Server is assembled from.
type deps struct {
	db        DBClient
	measurer  measure.Measurer
	exporter  export.Exporter
	assistant *llm.Assistant
	uploads   *upload.Store
	limiter   *ratelimit.Limiter
	jwt       *JWTService
	passwords *config.PasswordConfig
	verbose   bool
}

// New connects every collaborator and creates a server instance
func New(cfg Config) (*Server, error) {
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	uploads, err := upload.NewStore(uploadDir)
	if err != nil {
		return nil, err
	}

	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	d := deps{
		db:        database,
		uploads:   uploads,
		limiter:   ratelimit.NewLimiter(ratelimit.LoadConfig()),
		jwt:       NewJWTService(jwtConfig),
		passwords: passwordConfig,
		verbose:   cfg.Verbose,
	}

	// Chrome prints what it measured; the canvas exporter draws with the
	// engine's own fonts.
	var cleanup []func()
	if cfg.Exporter == config.ExporterChrome {
		b := browser.New(browser.DefaultTimeout, cfg.Verbose)
		d.measurer = measure.NewBrowserMeasurer(b, cfg.Verbose)
		d.exporter = export.NewChromeExporter(b, cfg.Verbose)
		cleanup = append(cleanup, b.Close)
	} else {
		engine, err := measure.NewMountedEngine(cfg.Verbose)
		if err != nil {
			database.Close()
			d.limiter.Stop()
			return nil, fmt.Errorf("failed to mount measurement engine: %w", err)
		}
		d.measurer = engine
		d.exporter = export.NewPDFExporter(cfg.Verbose)
	}

	if cfg.APIKey != "" {
		client, err := llm.NewGeminiClient(context.Background(), llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			database.Close()
			d.limiter.Stop()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		d.assistant = llm.NewAssistant(client, cfg.Verbose)
		cleanup = append(cleanup, func() { _ = client.Close() })
	} else {
		log.Printf("[server] GEMINI_API_KEY not set, AI endpoints disabled")
	}

	s := newServer(d)
	s.cleanup = cleanup
	s.httpServer.Addr = fmt.Sprintf(":%d", cfg.Port)
	return s, nil
}

func newServer(d deps) *Server {
	s := &Server{
		db:          d.db,
		sessions:    session.NewManager(d.measurer, session.Options{Verbose: d.verbose}),
		assistant:   d.assistant,
		exporter:    d.exporter,
		uploads:     d.uploads,
		rateLimiter: d.limiter,
		jwtService:  d.jwt,
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}
	s.authHandler = NewAuthHandler(NewUserService(d.db, d.passwords), d.jwt)

	s.httpServer = &http.Server{
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.routes()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // exports can take a while
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	private := middleware.RequireAuth(s.jwtService.AsTokenValidator())
	auth := func(h http.HandlerFunc) http.Handler { return private(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", s.authHandler.Login)
	mux.Handle("GET /api/auth/user", auth(s.authHandler.Me))

	mux.Handle("POST /api/resume", auth(s.handleCreateResume))
	mux.Handle("GET /api/resume", auth(s.handleListResumes))
	mux.Handle("POST /api/resume/analyze", auth(s.handleAnalyze))
	mux.Handle("POST /api/resume/generate", auth(s.handleGenerate))
	mux.Handle("GET /api/resume/{id}", auth(s.handleGetResume))
	mux.Handle("PUT /api/resume/{id}", auth(s.handleUpdateResume))
	mux.Handle("DELETE /api/resume/{id}", auth(s.handleDeleteResume))
	mux.Handle("GET /api/resume/{id}/layout", auth(s.handleLayout))
	mux.Handle("GET /api/resume/{id}/export", auth(s.handleExport))

	mux.Handle("POST /api/upload", auth(s.handleUpload))
	mux.HandleFunc("GET /uploads/{name}", s.handleServeUpload)
	return mux
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[server] starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[server] error: %v", err)
		}
	}()

	<-stop
	log.Println("[server] shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.Close()
	log.Println("[server] stopped")
	return nil
}

// Close releases sessions, the rate limiter, the browser, the model client
// and the database pool.
func (s *Server) Close() {
	s.sessions.CloseAll()
	s.rateLimiter.Stop()
	for _, fn := range s.cleanup {
		fn()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.TokenHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their limit with 429
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s %d %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// jsonResponse writes a JSON response
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err through HTTPStatus. Internal errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[server] internal error: %v", err)
		errorResponse(w, status, "Server error")
		return
	}
	errorResponse(w, status, err.Error())
}

// clientID returns the client IP from RemoteAddr.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = secs
		w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	}

	log.Printf("[rate-limit] exceeded: limit=%d remaining=%d", info.Limit, info.Remaining)
	jsonResponse(w, http.StatusTooManyRequests, response)
}
