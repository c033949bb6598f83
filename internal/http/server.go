package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"betlog/internal/cache"
	"betlog/internal/core"
	"betlog/internal/log"
	"betlog/internal/middleware/ratelimit"
	"betlog/internal/middleware/security"
	"betlog/internal/middleware/trace"
	"betlog/internal/services"
	appweb "betlog/web"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	TrustedProxies     []string
	CacheSize          int
	CacheTTL           time.Duration
	// Stats, when set, adds per-sport stored transaction counts to /metrics.
	Stats StatsFunc
}

// ReadyFunc reports whether the backing store can serve requests.
type ReadyFunc func(ctx context.Context) error

// StatsFunc returns stored transaction counts per sport. A nil map means the
// store does not report them.
type StatsFunc func(ctx context.Context) (map[string]int64, error)

type Server struct {
	http.Server
	templates *template.Template
	bets      *services.BetService
	ready     ReadyFunc
	stats     StatsFunc
	logger    *log.Logger

	// Summaries and calendars are recomputed from the full sequence, so
	// they are cached until the next record for the same sport. cacheGen is
	// bumped by every invalidation; a result computed under an older
	// generation is not stored.
	summaryCache  cache.Cache[core.Summary]
	calendarCache cache.Cache[core.CalendarMonth]
	cacheManager  *cache.Manager
	cacheMu       sync.Mutex
	cacheGen      uint64

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	recorded    int64
	rejected    int64
	cacheHits   int64
	cacheMisses int64
	uptime      time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(cfg Config, bets *services.BetService, ready ReadyFunc, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 100
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, "error", err)
		}
	}

	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.RequestsPerMinute = cfg.RateLimitPerMinute

	summaries := cache.NewLRUCache[core.Summary](cfg.CacheSize, cfg.CacheTTL)
	calendars := cache.NewLRUCache[core.CalendarMonth](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager(logger)
	manager.Register(summaries)
	manager.Register(calendars)
	manager.StartCleanup(10 * time.Minute)

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		bets:             bets,
		ready:            ready,
		stats:            cfg.Stats,
		logger:           logger,
		summaryCache:     summaries,
		calendarCache:    calendars,
		cacheManager:     manager,
		rateLimiter:      ratelimit.NewLimiter(limiterCfg),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", "error", err, log.FieldComponent, log.ComponentTemplate)
	}
	s.templates = t

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.securityDetector.Middleware(s.logger))

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)

	r.Get("/", s.handleIndex)
	r.With(limited).Post("/transactions", s.handleCreateTransaction)

	r.Route("/ui", func(r chi.Router) {
		r.Get("/total", s.handleTotal)
		r.Get("/calendar", s.handleCalendar)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/sports", s.handleAPISports)
		r.Get("/transactions", s.handleAPITransactions)
		r.With(limited).Post("/transactions", s.handleAPICreateTransaction)
		r.Get("/summary", s.handleAPISummary)
		r.Get("/calendar", s.handleAPICalendar)
	})

	return r
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path,
		log.FieldComponent, log.ComponentRateLimit)
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
