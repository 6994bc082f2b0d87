package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"ftt/internal/core"
	"ftt/internal/log"
	"ftt/internal/metrics"
	"ftt/internal/middleware/ratelimit"
	"ftt/internal/middleware/security"
	"ftt/internal/middleware/trace"
	"ftt/internal/session"
	"ftt/internal/view"
	appweb "ftt/web"
)

// Pinger reports whether the data backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server. Sessions is required; the rest fall back to
// working defaults.
type Options struct {
	Addr               string
	Sessions           *session.Registry
	Backend            Pinger
	Metrics            *metrics.Metrics
	Logger             *log.Logger
	CurrencySymbol     string
	RateLimitPerMinute int
	RateLimitBurst     int
	TrustedProxies     []string
}

type Server struct {
	http.Server

	sessions   *session.Registry
	backend    Pinger
	metrics    *metrics.Metrics
	templates  *template.Template
	format     view.Formatter
	limiter    *ratelimit.Limiter
	clientIP   func(*http.Request) string
	logger     *log.Logger
	structured *log.StructuredLogger
	started    time.Time
	today      func() core.Date
}

// NewServer wires templates, middleware and routes.
func NewServer(opts Options) (*Server, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("server: session registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	ips, err := NewClientIPExtractor(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	rl := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rl.RequestsPerMinute = opts.RateLimitPerMinute
	}
	if opts.RateLimitBurst > 0 {
		rl.Burst = opts.RateLimitBurst
	}

	s := &Server{
		sessions:   opts.Sessions,
		backend:    opts.Backend,
		metrics:    opts.Metrics,
		templates:  t,
		format:     view.NewFormatter(opts.CurrencySymbol),
		limiter:    ratelimit.NewLimiter(rl),
		clientIP:   ips.ClientIP,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		started:    time.Now(),
		today:      core.Today,
	}

	// Page loads open sessions and share the per-client budget.
	limitAll := s.limiter.Middleware(ips.ClientIP, s.rateLimited)

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", limitAll(http.HandlerFunc(s.handleIndex)))
	mux.HandleFunc("GET /ui/tab", s.handleSelectTab)
	mux.HandleFunc("POST /companies", s.handleAddCompany)
	mux.HandleFunc("POST /tasks", s.handleAddTask)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	var observer trace.Observer
	if s.metrics != nil {
		observer = s.metrics
	}
	tracer := trace.NewMiddleware(logger, ips.ClientIP, observer)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(ips.ClientIP, s.rateLimited, http.MethodPost)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           tracer.Middleware(headers.Middleware(limit(mux))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// RunMaintenance evicts idle rate limit entries until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context) error {
	return s.limiter.Run(ctx)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.Server.Shutdown(ctx)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.Limited()
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldPath, r.URL.Path,
		log.FieldClientIP, s.clientIP(r))
	if r.Header.Get("HX-Request") == "" {
		w.Header().Set("Retry-After", "60")
		http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		return
	}
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		Header("Retry-After", "60").
		TriggerErrorNotification("Too many requests, please slow down").
		Write(w)
}
