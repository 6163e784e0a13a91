package controllers

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	envHeader    = "X-Storefront-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is any backing dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency in parallel. Any failure answers 503
// with the failing names under details.failed.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		failed := pingAll(r.Context(), logg, deps)
		if len(failed) == 0 {
			responses.WriteSuccess(w, map[string]string{"status": "ready"})
			return
		}
		responses.WriteJSON(w, http.StatusServiceUnavailable, types.ErrorEnvelope{
			Error:   true,
			Message: "dependencies unavailable",
			Code:    string(pkgerrors.CodeDependency),
			Details: map[string]any{"failed": failed},
		})
	}
}

func pingAll(ctx context.Context, logg *logger.Logger, deps map[string]Pinger) []string {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed []string
	)
	for name, dep := range deps {
		if dep == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := dep.Ping(ctx)
			if err == nil {
				return
			}
			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": name, "error": err.Error()}), "health.ready.ping_failed")
			}
			mu.Lock()
			failed = append(failed, name)
			mu.Unlock()
		}()
	}
	wg.Wait()
	slices.Sort(failed)
	return failed
}
