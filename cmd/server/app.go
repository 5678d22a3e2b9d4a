package main

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/fakti/auth"
	"github.com/diewo77/fakti/httpx"
	"github.com/diewo77/fakti/i18n"
	"github.com/diewo77/fakti/internal/config"
	"github.com/diewo77/fakti/internal/db"
	"github.com/diewo77/fakti/internal/handlers"
	"github.com/diewo77/fakti/internal/middleware"
	"github.com/diewo77/fakti/internal/observability"
	"github.com/diewo77/fakti/internal/pdf"
	"github.com/diewo77/fakti/internal/services"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	handler http.Handler
	db      *gorm.DB
	cfg     *config.Config
	log     *zap.Logger
	metrics *observability.Metrics

	users    *services.UserService
	clients  *services.ClientService
	invoices *services.InvoiceService
	stats    *services.StatsService
	renderer pdf.Renderer
}

// NewApp wires services, handlers and middleware.
func NewApp(gdb *gorm.DB, cfg *config.Config, log *zap.Logger, metrics *observability.Metrics) *App {
	a := &App{
		mux:      http.NewServeMux(),
		db:       gdb,
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		users:    services.NewUserService(gdb, log),
		clients:  services.NewClientService(gdb, log),
		renderer: pdf.New(cfg.PDF.Enabled),
	}
	a.invoices = services.NewInvoiceService(gdb, log, metrics)
	a.stats = services.NewStatsService(gdb, a.invoices, a.clients)

	auth.SetSecret(cfg.Auth.SessionSecret)
	auth.SetSecureCookie(cfg.IsProduction())
	// Sessions of deleted accounts are rejected.
	auth.SetUserVerifier(a.users.Exists)

	a.setupRoutes()
	a.handler = a.middleware(a.mux)
	return a
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// middleware builds the global chain. The metrics middleware wraps the mux
// directly so it sees the matched route pattern.
func (a *App) middleware(mux http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           a.cfg.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !a.cfg.IsProduction(),
	})
	secureHeaders := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				a.log.Warn("secure headers blocked request", zap.Error(err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	return middleware.Chain(
		middleware.RequestID(a.log),
		middleware.Logger(a.log),
		middleware.Recovery(a.log),
		secureHeaders,
		auth.Middleware,
		middleware.Identity,
		middleware.Prefs(a.userLanguage),
	)(a.metrics.Middleware(mux))
}

func (a *App) userLanguage(ctx context.Context, uid uint) string {
	u, err := a.users.Get(ctx, uid)
	if err != nil {
		return ""
	}
	return u.Language
}

// rateLimited limits a route per client IP.
func (a *App) rateLimited(h http.HandlerFunc) http.Handler {
	limit := httprate.Limit(
		a.cfg.Auth.LoginRateLimit,
		a.cfg.Auth.LoginRateEvery,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			lang := i18n.LangFromContext(r.Context())
			httpx.JSONErrorMessage(w, http.StatusTooManyRequests, "rate_limited", i18n.T(lang, "rate_limited"), nil)
		}),
	)
	return limit(h)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	ah := handlers.NewAuthHandler(a.users, a.log)
	ph := handlers.NewProfileHandler(a.users)
	ch := handlers.NewClientHandler(a.clients)
	ih := handlers.NewInvoiceHandler(a.invoices, a.users, a.renderer)
	dh := handlers.NewDashboardHandler(a.stats, a.users)

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /health", a.health)
	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", a.metrics.Handler())

	a.mux.Handle("POST /register", a.rateLimited(ah.Register))
	a.mux.Handle("POST /login", a.rateLimited(ah.Login))
	a.mux.HandleFunc("POST /logout", ah.Logout)

	// ─────────────────────────────────────────────────────────────────────────
	// Authenticated routes (require logged-in user)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /dashboard", a.requireAuth(dh.Show))

	a.mux.Handle("GET /profile", a.requireAuth(ph.View))
	a.mux.Handle("POST /profile", a.requireAuth(ph.Update))
	a.mux.Handle("POST /profile/delete", a.requireAuth(ph.Delete))

	// Clients
	a.mux.Handle("GET /clients", a.requireAuth(ch.List))
	a.mux.Handle("POST /clients", a.requireAuth(ch.Create))
	a.mux.Handle("GET /clients/{id}", a.requireAuth(ch.View))
	a.mux.Handle("POST /clients/{id}", a.requireAuth(ch.Update))
	a.mux.Handle("POST /clients/{id}/delete", a.requireAuth(ch.Delete))

	// Invoices
	a.mux.Handle("GET /invoices", a.requireAuth(ih.List))
	a.mux.Handle("GET /invoices/new", a.requireAuth(ih.New))
	a.mux.Handle("POST /invoices", a.requireAuth(ih.Create))
	a.mux.Handle("GET /invoices/{id}", a.requireAuth(ih.View))
	a.mux.Handle("POST /invoices/{id}", a.requireAuth(ih.Update))
	a.mux.Handle("POST /invoices/{id}/delete", a.requireAuth(ih.Delete))
	a.mux.Handle("POST /invoices/{id}/status/{status}", a.requireAuth(ih.ChangeStatus))
	a.mux.Handle("GET /invoices/{id}/pdf", a.requireAuth(ih.PDF))

	// Invoice Items
	a.mux.Handle("PUT /invoices/{id}/items", a.requireAuth(ih.SaveItems))
	a.mux.Handle("POST /invoices/{id}/items", a.requireAuth(ih.AddItem))
	a.mux.Handle("POST /invoices/{id}/items/{item_id}", a.requireAuth(ih.UpdateItem))
	a.mux.Handle("POST /invoices/{id}/items/{item_id}/delete", a.requireAuth(ih.RemoveItem))
}

// requireAuth wraps a handler to require a logged-in user.
func (a *App) requireAuth(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(h)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// healthz also checks the database.
func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := db.Ping(ctx, a.db); err != nil {
		a.log.Warn("health check failed", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}
