package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"motiongen/internal/http/handlers"
	"motiongen/internal/infra"
	"motiongen/internal/middleware"
)

func NewRouter(cfg *infra.Config, app *handlers.App, logger *infra.Logger) http.Handler {
	logger = infra.LoggerOrDiscard(logger)
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(*logger),
		chimw.Recoverer,
		middleware.CORS(cfg.CORSAllowedOrigins),
	)
	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	// Health
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/presets", app.Presets)

	r.Route("/v1/videos", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute)).Post("/", app.VideosGenerate)
		r.Get("/{id}", app.VideoDownload)
		r.Delete("/{id}", app.VideoRelease)
	})

	return r
}
