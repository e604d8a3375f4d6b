package controllers

import (
	"net/http"

	"github.com/prajjwolcodes/Kin-Bech-sub000/api/responses"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/config"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/db"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/logger"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KinBech-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the datastore and cache answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, database db.Pinger, cache redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KinBech-Env", cfg.App.Env)

		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
