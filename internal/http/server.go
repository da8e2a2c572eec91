package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	applog "alugueis/internal/log"
	"alugueis/internal/metrics"
	"alugueis/internal/middleware/ratelimit"
	"alugueis/internal/middleware/security"
	"alugueis/internal/middleware/trace"
	"alugueis/internal/services"
	appweb "alugueis/web"
)

// Options configures NewServer. Zero values fall back to sane defaults.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	Metrics            *metrics.Metrics
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	svc       *services.LedgerService
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracing   *trace.Middleware
	metrics   *metrics.Metrics
	logger    *applog.Logger
	started   time.Time

	shutdownOnce sync.Once
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(svc *services.LedgerService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = ratelimit.DefaultConfig().RequestsPerMinute
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	rlConfig := ratelimit.DefaultConfig()
	rlConfig.RequestsPerMinute = opts.RateLimitPerMinute

	s := &Server{
		svc:       svc,
		templates: t,
		limiter:   ratelimit.NewLimiter(rlConfig),
		detector:  security.NewDetector(),
		metrics:   opts.Metrics,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		started:   time.Now(),
	}
	s.tracing = trace.NewMiddleware(logger, opts.Metrics, s.detector.ExtractClientIP)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.tracing.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited, http.MethodPost))

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	r.Post("/transactions", s.handleCreateTransaction)
	r.Get("/transactions/{id}/edit", s.handleEditTransaction)
	r.Post("/transactions/{id}", s.handleUpdateTransaction)
	r.Post("/transactions/{id}/delete", s.handleDeleteTransaction)
	r.Post("/form/kind", s.handleFormKind)
	r.Post("/occupancy", s.handleSetOccupancy)

	r.Group(func(r chi.Router) {
		if len(opts.CORSAllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: opts.CORSAllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				ExposedHeaders: []string{"Content-Disposition"},
				MaxAge:         300,
			}))
		}
		r.Use(security.NoStore)
		r.Get("/downloads/{name}", s.handleDownload)
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	http.Error(w, "Muitas requisições. Tente novamente em instantes.", http.StatusTooManyRequests)
}
