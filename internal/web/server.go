// Package web provides the HTTP server and handlers for the conversion UI
// and the JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/formatbridge/internal/config"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/i18n"
	"github.com/JonMunkholm/formatbridge/internal/logging"
	mw "github.com/JonMunkholm/formatbridge/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server of the conversion application.
type Server struct {
	service    *core.Service
	cfg        *config.Config
	catalog    *i18n.Catalog
	negotiator *i18n.Negotiator
	router     *chi.Mux
	server     *http.Server
	limiters   []*rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service:    service,
		cfg:        cfg,
		catalog:    i18n.Default(),
		negotiator: i18n.NewNegotiator(cfg.Locale.Supported, cfg.Locale.Default),
		router:     chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5, "text/html", "text/css", "application/json", "text/plain"))
	s.router.Use(middleware.Timeout(s.requestTimeout()))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(s.clientID)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst).middleware)
	}
}

// requestTimeout leaves a tool job its full timeout plus time to upload.
func (s *Server) requestTimeout() time.Duration {
	return s.cfg.Convert.JobTimeout + s.cfg.Convert.MaxWaitTime + 30*time.Second
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.Get("/healthz", s.handleHealth)

	// Tool runs are expensive; they get a second, tighter limit.
	toolLimit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled {
		toolLimit = s.newRateLimiter(s.cfg.Rate.ToolsPerMinute, s.cfg.Rate.ToolsPerMinute).middleware
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Get("/formats", s.handleListFormats)
		r.Get("/conversions", s.handleListConversions)
		r.Get("/tools", s.handleListTools)

		r.Post("/convert", s.handleConvertJSON)
		r.Post("/convert/{slug}", s.handleConvertRaw)
		r.Post("/detect", s.handleDetect)
		r.With(toolLimit).Post("/tools/{tool}", s.handleRunToolAPI)

		r.Get("/recent", s.handleListRecent)
		r.Delete("/recent", s.handleClearRecent)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			s.respondError(w, r, errNotFound, http.StatusNotFound)
		})
	})

	s.router.Get("/", s.redirectToLocale)

	s.router.Route("/{locale}", func(r chi.Router) {
		r.Use(s.requireLocale)

		r.Get("/", s.handleIndex)
		r.Get("/tools/{tool}", s.handleToolPage)
		r.With(toolLimit).Post("/tools/{tool}", s.handleRunToolPage)
		r.Get("/{slug}", s.handleConvertPage)
		r.Post("/{slug}", s.handleConvertForm)
	})

	s.router.NotFound(s.handleNotFound)
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) newRateLimiter(perMinute, burst int) *rateLimiter {
	l := newRateLimiter(perMinute, burst)
	l.onLimit = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
	}
	s.limiters = append(s.limiters, l)
	return l
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// data: links carry converted output for download; group colours are inline styles.
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
