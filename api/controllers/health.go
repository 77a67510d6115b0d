package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/upsellkit/upsellkit-backend/api/responses"
	"github.com/upsellkit/upsellkit-backend/pkg/config"
	"github.com/upsellkit/upsellkit-backend/pkg/db"
	pkgerrors "github.com/upsellkit/upsellkit-backend/pkg/errors"
	"github.com/upsellkit/upsellkit-backend/pkg/logger"
	"github.com/upsellkit/upsellkit-backend/pkg/redis"
)

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-UpsellKit-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-UpsellKit-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		failures := map[string]string{}
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				failures["database"] = err.Error()
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				failures["redis"] = err.Error()
			}
		}

		if len(failures) > 0 {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(failures)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
