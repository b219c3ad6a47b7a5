package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"ecomdash/internal/analytics"
	"ecomdash/internal/log"
	"ecomdash/internal/middleware/ratelimit"
	"ecomdash/internal/middleware/security"
	"ecomdash/internal/middleware/trace"
	appweb "ecomdash/web"
)

// Config holds the server settings taken from the application config.
type Config struct {
	Addr string
	// Currency is the ISO code shown in money strings.
	Currency string
	// ChartRateLimit is the number of chart renders allowed per client per minute.
	ChartRateLimit int
	Logger         *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	holder    *analytics.Holder
	currency  string
	logger    *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	metrics      appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime       time.Time
	pageRenders  atomic.Int64
	chartRenders atomic.Int64
	chartErrors  atomic.Int64
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
// holder supplies the current dataset session; it may be empty until the
// first load completes.
func NewServer(cfg Config, holder *analytics.Holder) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	if cfg.Currency == "" {
		cfg.Currency = "BRL"
	}
	rlConfig := ratelimit.DefaultConfig()
	if cfg.ChartRateLimit > 0 {
		rlConfig.RequestsPerWindow = cfg.ChartRateLimit
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr: cfg.Addr,
		},
		holder:           holder,
		currency:         cfg.Currency,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		securityDetector: security.NewDetector(),
	}
	s.metrics.uptime = time.Now()
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.CacheControl("public, max-age=3600, immutable")(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	// Chart URLs carry the snapshot id, so a response never goes stale.
	chartLimit := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)
	mux.Handle("/charts/{name}", chartLimit(security.CacheControl("private, max-age=300")(http.HandlerFunc(s.handleChart))))

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ui/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = s.securityDetector.Middleware(s.handleSuspicious)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = log.Middleware(logger, nil)(handler)
	s.Handler = handler

	return s
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldComponent, log.ComponentRateLimit,
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

func (s *Server) handleSuspicious(r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request blocked",
		log.FieldComponent, log.ComponentSecurity,
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path,
		log.FieldUserAgent, r.UserAgent())
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	// Ensure shutdown logic runs only once
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
