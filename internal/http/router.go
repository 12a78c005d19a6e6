package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Students      *StudentHandler
	Announcements *AnnouncementHandler
	Materials     *MaterialHandler
	Health        *HealthHandler
	Metrics       *Metrics

	Sessions SessionLookup
	Cookies  *SessionCookies

	AllowedOrigins []string
	// RequestTimeout bounds JSON routes. Uploads and downloads rely on the
	// server's read and write timeouts instead.
	RequestTimeout time.Duration
	// StaticDir, when set, is served at the root with an index.html fallback.
	StaticDir string

	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

// NewRouter mounts the API under /api plus /healthz and /metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	r := chi.NewRouter()

	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Health)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		if cfg.Sessions != nil && cfg.Cookies != nil {
			api.Use(LoadSession(cfg.Sessions, cfg.Cookies, logger))
		}

		authenticated := RequireAuthenticated(logger)
		admin := RequireAdmin(logger)

		api.Group(func(j chi.Router) {
			if cfg.RequestTimeout > 0 {
				j.Use(middleware.Timeout(cfg.RequestTimeout))
			}

			if cfg.Auth != nil {
				j.Post("/auth/login", cfg.Auth.Login)
				j.Post("/auth/logout", cfg.Auth.Logout)
				j.With(authenticated).Post("/auth/change-password", cfg.Auth.ChangePassword)
				j.Get("/auth/me", cfg.Auth.Me)
			}

			if cfg.Announcements != nil {
				j.Get("/announcements", cfg.Announcements.List)
				j.With(authenticated, admin).Post("/announcements/post", cfg.Announcements.Post)
			}

			if cfg.Materials != nil {
				j.With(authenticated).Get("/materials", cfg.Materials.List)
			}

			if cfg.Students != nil {
				j.With(authenticated, admin).Get("/students", cfg.Students.List)
				j.With(authenticated, admin).Post("/students/create", cfg.Students.Create)
				j.With(authenticated, admin).Post("/students/reset-password", cfg.Students.ResetPassword)
			}
		})

		if cfg.Materials != nil {
			api.With(authenticated, admin).Post("/materials/upload", cfg.Materials.Upload)
			api.With(authenticated).Get("/materials/download/{id}", cfg.Materials.Download)
		}

		api.NotFound(func(w http.ResponseWriter, req *http.Request) {
			newResponder(logger).writeMessage(req.Context(), w, http.StatusNotFound, "Not found")
		})
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", spaHandler(cfg.StaticDir))
	}

	return r
}
