// Package http provides the HTTP delivery layer of the service: the public
// redirect endpoint, the password verification flow and the owner API for
// links and analytics.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/vortex/internal/metrics"
	"github.com/vadimbarashkov/vortex/pkg/middleware/recoverer"
)

// Services groups the use cases served over HTTP.
type Services struct {
	Links     linkService
	Redirects redirectService
	Analytics analyticsService
}

// RouterConfig holds the HTTP settings of the router.
type RouterConfig struct {
	// FrontendURL is the base of the page where visitors enter link passwords.
	FrontendURL    string
	JWTSecret      []byte
	AllowedOrigins []string
	// Limiter throttles password verification; nil disables throttling.
	Limiter rateLimiter
	Metrics *metrics.Metrics
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes.
func NewRouter(logger *httplog.Logger, cfg RouterConfig, svc Services) http.Handler {
	m := cfg.Metrics
	if m == nil {
		m = metrics.New()
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*"}
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"POST", "GET", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	// RemoteAddr stays the transport peer. Client addresses are taken from
	// X-Forwarded-For only, see classifier.ClientIP.
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))
	r.Use(m.Middleware)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Handle("/metrics", m.Handler())

	r.Get("/{shortCode}", handleRedirect(svc.Redirects, cfg.FrontendURL))

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Use(middleware.AllowContentType("application/json"))

		r.Get("/ping", handlePing)

		r.Route("/links", func(r chi.Router) {
			r.With(authenticate(cfg.JWTSecret, false)).Post("/", handleCreateLink(svc.Links, validate))

			r.Group(func(r chi.Router) {
				if cfg.Limiter != nil {
					r.Use(rateLimit(cfg.Limiter, "verify", m))
				}

				r.Post("/verify", handleVerifyPassword(svc.Redirects, validate))
			})

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Use(authenticate(cfg.JWTSecret, true))

				r.Get("/", handleGetLink(svc.Links))
				r.Patch("/", handleUpdateLink(svc.Links, validate))
				r.Delete("/", handleDeleteLink(svc.Links))
				r.Put("/status", handleToggleLink(svc.Links))
			})
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Use(authenticate(cfg.JWTSecret, true))

			r.Get("/overview", handleOverview(svc.Analytics))
			r.Get("/dashboard", handleDashboard(svc.Analytics))
			r.Get("/recent", handleRecent(svc.Analytics))
			r.Get("/links/{shortCode}", handleLinkAnalytics(svc.Analytics))
		})
	})

	return r
}
