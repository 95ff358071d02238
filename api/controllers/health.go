package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/velurestudio/velure-backend/api/responses"
	"github.com/velurestudio/velure-backend/pkg/config"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Velure-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each hard dependency. Missing clients are reported as
// skipped rather than failing the probe so partial deployments stay routable.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		w.Header().Set("X-Velure-Env", cfg.App.Env)

		checks := make(map[string]string, len(deps))
		healthy := true
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "unavailable"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health: dependency ping failed", err)
				}
				continue
			}
			checks[name] = "ok"
		}

		if !healthy {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

// ReadinessDeps assembles the dependency map for HealthReady.
func ReadinessDeps(db, redis, gcs, bigquery Pinger) map[string]Pinger {
	return map[string]Pinger{
		"postgres": db,
		"redis":    redis,
		"gcs":      gcs,
		"bigquery": bigquery,
	}
}
