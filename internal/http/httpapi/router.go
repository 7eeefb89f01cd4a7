package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"pawtraits/server/internal/http/handlers"
	"pawtraits/server/internal/infra/geoip"
	"pawtraits/server/internal/middleware"
)

func NewRouter(app *handlers.App, logger zerolog.Logger, resolver geoip.CountryResolver) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Geo(resolver),
		middleware.Logger(logger),
		middleware.CORS(app.Config.CORSOrigins),
		chimw.Recoverer,
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", app.Generate)
		r.Post("/checkout", app.Checkout)
		r.Post("/webhook", app.Webhook)
		r.Get("/packages", app.Packages)
		r.Get("/orders", app.OrdersList)
	})

	return r
}
