package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/styleatelier/atelier/internal/config"
	"github.com/styleatelier/atelier/internal/db"
	"github.com/styleatelier/atelier/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Sheet cache lifetimes. Entries are keyed by card revision, so a stale
// entry is never served; expiry only bounds memory.
const (
	sheetCacheTTL     = 10 * time.Minute
	sheetCacheCleanup = 30 * time.Minute
)

// newHandlers wires the handler dependencies shared by NewServer and tests.
func newHandlers(store *db.Store, cfg *config.Config, log *logging.Logger, version string) (*Handlers, error) {
	if log == nil {
		log = logging.Nop()
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}
	renderer, err := NewRenderer(templateSub, version, log)
	if err != nil {
		return nil, err
	}

	limit := rate.Limit(cfg.CaptureRatePerSec)
	if cfg.CaptureRatePerSec <= 0 {
		limit = rate.Inf
	}

	return &Handlers{
		store:    store,
		cfg:      cfg,
		log:      log,
		renderer: renderer,
		sheets:   cache.New(sheetCacheTTL, sheetCacheCleanup),
		captures: rate.NewLimiter(limit, max(cfg.CaptureBurst, 1)),
	}, nil
}

// NewServer creates the HTTP server for the browser extension and the
// card library UI, listening on cfg.WebBind:cfg.WebPort.
func NewServer(store *db.Store, cfg *config.Config, log *logging.Logger, version string) (*http.Server, error) {
	h, err := newHandlers(store, cfg, log, version)
	if err != nil {
		return nil, err
	}

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cards", http.StatusFound)
	})

	// Extension endpoints (JSON)
	mux.HandleFunc("POST /captures", h.HandleCapture)
	mux.HandleFunc("POST /prompt/parse", h.HandlePromptParse)
	mux.HandleFunc("POST /prompt/build", h.HandlePromptBuild)
	mux.HandleFunc("POST /prompt/append", h.HandlePromptAppend)
	mux.HandleFunc("GET /cards/{id}/prompt", h.HandleCardPrompt)
	mux.HandleFunc("POST /cards/{id}/use", h.HandleUse)
	mux.HandleFunc("PUT /hand/{id}", h.HandlePin)
	mux.HandleFunc("DELETE /hand/{id}", h.HandleUnpin)
	mux.HandleFunc("POST /workbench/compose", h.HandleCompose)

	// Library pages (HTML, or JSON with Accept: application/json)
	mux.HandleFunc("GET /cards", h.HandleList)
	mux.HandleFunc("GET /cards/{id}", h.HandleDetail)
	mux.HandleFunc("GET /hand", h.HandleHand)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.WebBind, cfg.WebPort),
		Handler:           requestLogger(h.log, extensionCORS(securityHeaders(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// extensionCORS lets browser-extension origins call the JSON endpoints.
// Web page origins get no CORS headers and stay blocked by the browser.
func extensionCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if strings.HasPrefix(origin, "chrome-extension://") || strings.HasPrefix(origin, "moz-extension://") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
			w.Header().Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(log *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log *logging.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("atelier server running", "url", "http://"+srv.Addr)
	if strings.HasPrefix(srv.Addr, "0.0.0.0:") || strings.HasPrefix(srv.Addr, "[::]:") || strings.HasPrefix(srv.Addr, ":") {
		log.Warn("server is binding to all interfaces and may be reachable from the network", "addr", srv.Addr)
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
