package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zenGate-Global/wedding-admin/contracts"
	platformauth "github.com/zenGate-Global/wedding-admin/platform/go/auth"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/wedding-admin/platform/go/logging"
	platformmiddleware "github.com/zenGate-Global/wedding-admin/platform/go/middleware"
)

// routeRegistrar is implemented by every domain handler.
type routeRegistrar interface {
	Routes(r chi.Router)
}

type readinessCheck func(ctx context.Context) error

type routerDeps struct {
	auth           func(http.Handler) http.Handler
	corsOrigins    []string
	requestTimeout time.Duration
	readiness      map[string]readinessCheck
	// domains maps a contract name to the handler mounted at /api/v1/<name>.
	domains map[string]routeRegistrar
}

func newRouter(deps routerDeps, logger *zap.Logger) (http.Handler, error) {
	validators, err := specValidators(contracts.Names...)
	if err != nil {
		return nil, err
	}

	rootRouter := chi.NewRouter()
	rootRouter.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	if deps.requestTimeout > 0 {
		rootRouter.Use(chimw.Timeout(deps.requestTimeout))
	}
	rootRouter.Use(
		platformmiddleware.CORS(deps.corsOrigins),
		platformlogging.RequestLogger(logger),
	)

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", readyzHandler(deps.readiness, logger))

	registerDocsRoutes(rootRouter, logger)

	rootRouter.Route("/api/v1", func(api chi.Router) {
		api.Use(deps.auth)
		api.Use(platformauth.RequireAuthenticated)
		api.Use(platformmiddleware.RequestTrace)

		for _, name := range contracts.Names {
			handler, ok := deps.domains[name]
			if !ok {
				continue
			}
			validator := validators[name]
			api.Group(func(r chi.Router) {
				r.Use(validator)
				r.Route("/"+name, handler.Routes)
			})
		}
	})

	return rootRouter, nil
}

func readyzHandler(checks map[string]readinessCheck, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("readiness check failed", zap.String("dependency", name), zap.Error(err))
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			problem := httpapi.NewProblem(http.StatusServiceUnavailable, "Service unavailable", "one or more dependencies are not ready")
			problem.Details = failed
			httpapi.WriteProblem(w, problem)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
