package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shopfront/storefront-backend/api/responses"
	"github.com/shopfront/storefront-backend/pkg/config"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
	"github.com/shopfront/storefront-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency. Nil pingers are reported as disabled.
func HealthReady(cfg *config.Config, pingers map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		checks := make(map[string]string, len(pingers))
		failed := false
		for name, p := range pingers {
			if p == nil {
				checks[name] = "disabled"
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			err := p.Ping(ctx)
			cancel()
			if err != nil {
				failed = true
				checks[name] = "down"
				if logg != nil {
					logg.WarnErr(logg.WithField(r.Context(), "dependency", name), "readiness check failed", err)
				}
				continue
			}
			checks[name] = "ok"
		}

		if failed {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency check failed").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
