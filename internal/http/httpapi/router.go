package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"pixvault/internal/http/handlers"
	"pixvault/internal/infra"
	"pixvault/internal/middleware"
)

func NewRouter(app *handlers.App, logger zerolog.Logger, cfg *infra.Config) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(cfg.AllowedOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/exports", func(r chi.Router) {
		// Exports decode and re-encode whole assets; keep them behind the
		// rate limit.
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/", app.ExportAssets)
		r.Post("/preview", app.ExportPreview)
	})

	r.Route("/v1/assets", func(r chi.Router) {
		r.Get("/{id}/file", app.DownloadAsset)
	})

	r.Post("/v1/admin/cleanup", app.CleanupAssets)

	return r
}
