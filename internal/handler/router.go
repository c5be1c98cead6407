package handler

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/urlshortcut/urlshortcut/internal/handler/dto"
	"github.com/urlshortcut/urlshortcut/internal/metrics"
	"github.com/urlshortcut/urlshortcut/internal/middleware"
)

const defaultMaxBodySize = 1 << 20

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Logger      *slog.Logger
	Verifier    middleware.TokenVerifier
	Metrics     metrics.Recorder
	Snapshotter metrics.Snapshotter

	RateLimit   middleware.RateLimitConfig
	CORS        middleware.CORSConfig
	Security    middleware.SecurityConfig
	MaxBodySize int64

	// Peers whose forwarding headers are believed.
	TrustedProxies []netip.Prefix

	Owners OwnerService
	Tokens TokenService
	URLs   URLService

	DB    HealthChecker
	Cache HealthChecker
}

// NewRouter builds the chi router with all routes and middleware.
// Registration, token issuance and redirection are public; every other
// /api route requires a bearer token with the USER scope.
func NewRouter(cfg RouterConfig) http.Handler {
	validator := dto.NewValidator()

	h := New()
	healthHandler := NewHealthHandler(cfg.DB, cfg.Cache)
	metricsHandler := NewMetricsHandler(cfg.Snapshotter)
	ownerHandler := NewOwnerHandler(cfg.Owners, validator, cfg.Logger)
	tokenHandler := NewTokenHandler(cfg.Tokens, validator, cfg.Logger)
	urlHandler := NewURLHandler(cfg.URLs, validator, cfg.Logger)
	redirectHandler := NewRedirectHandler(cfg.URLs, cfg.Logger)

	authCfg := middleware.AuthConfig{
		Logger:   cfg.Logger,
		Verifier: cfg.Verifier,
		Metrics:  cfg.Metrics,
	}
	rateLimitCfg := cfg.RateLimit
	rateLimitCfg.Logger = cfg.Logger

	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP(cfg.TrustedProxies))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(middleware.MaxBodySize(maxBody))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitIP(rateLimitCfg))
			r.Post("/servers/register", ownerHandler.Register)
			r.Post("/token", tokenHandler.Issue)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))
			r.Use(middleware.RequireUser())
			r.Use(middleware.RateLimitAPI(rateLimitCfg))

			r.Get("/servers/{id}", ownerHandler.Get)
			r.Patch("/servers/{id}", ownerHandler.UpdatePassword)
			r.Delete("/servers/{id}", ownerHandler.Delete)

			r.Post("/urls/register", urlHandler.Register)
			r.Get("/urls/{id}", urlHandler.Get)
			r.Delete("/urls/{id}", urlHandler.Delete)
		})
	})

	r.With(middleware.RateLimitIP(rateLimitCfg)).Get("/redirect/{id}", redirectHandler.Redirect)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
