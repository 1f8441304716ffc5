package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"organizapay/internal/auth"
	"organizapay/internal/cache"
	"organizapay/internal/finance"
	"organizapay/internal/log"
	"organizapay/internal/middleware/ratelimit"
	"organizapay/internal/middleware/security"
	"organizapay/internal/middleware/trace"
	appweb "organizapay/web"
)

// Deps are the collaborators the server needs.
type Deps struct {
	Auth     *auth.Service
	Registry *finance.Registry
	// Ping backs /readyz. Nil means always ready.
	Ping func(ctx context.Context) error

	Logger        *log.Logger
	RateLimit     int // requests per minute per client, all routes
	AuthRateLimit int // requests per minute per client, /auth routes
	Now           func() time.Time
}

type Server struct {
	http.Server
	auth      *auth.Service
	registry  *finance.Registry
	ping      func(ctx context.Context) error
	logger    *log.Logger
	now       func() time.Time
	templates *template.Template

	detector    *security.Detector
	limiter     *ratelimit.Limiter
	authLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	ping := d.Ping
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}

	s := &Server{
		auth:        d.Auth,
		registry:    d.Registry,
		ping:        ping,
		logger:      logger.WithComponent(log.ComponentHTTP),
		now:         now,
		detector:    security.NewDetector(logger),
		limiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimit}),
		authLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.AuthRateLimit}),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(time.Hour)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	authLimit := s.authLimiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)
	mux.Handle("POST /auth/signup", authLimit(http.HandlerFunc(s.handleSignUp)))
	mux.Handle("POST /auth/signin", authLimit(http.HandlerFunc(s.handleSignIn)))
	mux.Handle("POST /auth/signout", authLimit(http.HandlerFunc(s.handleSignOut)))

	mux.Handle("GET /api/dashboard", s.withSession(s.handleDashboardJSON))

	mux.Handle("POST /api/incomes", s.withSession(s.handleCreateIncome))
	mux.Handle("PATCH /api/incomes/{id}", s.withSession(s.handleUpdateIncome))
	mux.Handle("DELETE /api/incomes/{id}", s.withSession(s.handleDeleteIncome))

	mux.Handle("POST /api/expenses", s.withSession(s.handleCreateExpense))
	mux.Handle("PATCH /api/expenses/{id}", s.withSession(s.handleUpdateExpense))
	mux.Handle("DELETE /api/expenses/{id}", s.withSession(s.handleDeleteExpense))

	mux.Handle("POST /api/goals", s.withSession(s.handleCreateGoal))
	mux.Handle("PATCH /api/goals/{id}", s.withSession(s.handleUpdateGoal))
	mux.Handle("DELETE /api/goals/{id}", s.withSession(s.handleDeleteGoal))

	mux.Handle("PUT /api/profile", s.withSession(s.handleUpdateProfile))

	mux.Handle("GET /api/reports/monthly", s.withSession(s.handleMonthlyReport))
	mux.Handle("GET /api/reports/daily", s.withSession(s.handleDailyReport))
	mux.Handle("GET /api/reports/recent", s.withSession(s.handleRecentReport))
	mux.Handle("GET /api/reports/export.xlsx", s.withSession(s.handleExport))

	mux.HandleFunc("GET /dashboard", s.handleDashboardPage)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = security.NewHeaders(security.DefaultPolicy()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)
	return h
}

// Cleaners returns the in-memory tables the cache manager should sweep.
func (s *Server) Cleaners() []cache.Cleaner {
	return []cache.Cleaner{s.limiter, s.authLimiter}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate_limited", "Muitas requisições. Tente novamente em instantes.").Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
