package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/upsellkit/upsellkit-backend/api/controllers"
	"github.com/upsellkit/upsellkit-backend/api/middleware"
	"github.com/upsellkit/upsellkit-backend/internal/upsell"
	"github.com/upsellkit/upsellkit-backend/pkg/config"
	"github.com/upsellkit/upsellkit-backend/pkg/db"
	"github.com/upsellkit/upsellkit-backend/pkg/logger"
	"github.com/upsellkit/upsellkit-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	upsellService *upsell.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/upsell", func(r chi.Router) {
		r.Use(middleware.PublicCORS())
		r.Use(middleware.SessionToken(cfg.Shopify, logg))
		r.Get("/", controllers.PublicUpsell(upsellService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/upsell-groups", func(r chi.Router) {
			r.Post("/", controllers.CreateUpsellGroup(upsellService, logg))
			r.Get("/", controllers.ListUpsellGroups(upsellService, logg))
			r.Get("/{id}", controllers.GetUpsellGroup(upsellService, logg))
			r.Put("/{id}", controllers.UpdateUpsellGroup(upsellService, logg))
			r.Delete("/{id}", controllers.DeleteUpsellGroup(upsellService, logg))
		})

		r.Get("/products/search", controllers.SearchProducts(upsellService, logg))
	})

	return r
}
