// Package app wires configuration, models and HTTP routes into a runnable service.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alloy-predictor/internal/common/config"
	apperrors "alloy-predictor/internal/common/errors"
	apphttp "alloy-predictor/internal/common/http"
	"alloy-predictor/internal/common/logger"
	"alloy-predictor/internal/common/metrics"
	"alloy-predictor/internal/common/observability"
	"alloy-predictor/internal/modelstore"
	pp "alloy-predictor/internal/services/predict-properties"
)

type App struct {
	cfg     *config.Config
	log     logger.Logger
	store   *modelstore.Store
	obs     *observability.Observability
	handler http.Handler
	server  *apphttp.Server
	ready   atomic.Bool
}

// ModelPaths maps the models config section onto store slots.
func ModelPaths(cfg config.ModelsConfig) modelstore.Paths {
	return modelstore.Paths{
		YieldStrength:   cfg.YieldStrengthPath,
		TensileStrength: cfg.TensileStrengthPath,
		Elongation:      cfg.ElongationPath,
	}
}

// New loads all three models and builds the HTTP stack. A model that
// cannot be loaded is a startup failure.
func New(cfg *config.Config, log logger.Logger, obs *observability.Observability) (*App, error) {
	store, err := modelstore.LoadStore(ModelPaths(cfg.Models), log)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, log, obs, store)
}

// NewWithStore builds the HTTP stack around an already loaded store.
func NewWithStore(cfg *config.Config, log logger.Logger, obs *observability.Observability, store *modelstore.Store) (*App, error) {
	a := &App{cfg: cfg, log: log, store: store, obs: obs}

	for slot, summary := range store.Summaries() {
		metrics.ModelsLoaded.WithLabelValues(string(slot), string(summary.ModelType)).Set(1)
	}

	handler, err := a.routes()
	if err != nil {
		return nil, err
	}
	a.handler = handler
	a.server = apphttp.NewServer(cfg.Server, handler, log)
	a.ready.Store(true)
	return a, nil
}

func (a *App) routes() (http.Handler, error) {
	predict, err := pp.NewHandler(pp.ConfigFromApp(a.cfg), pp.ServiceDependencies{
		Models:        a.store,
		Logger:        a.log,
		Observability: a.obs,
	})
	if err != nil {
		return nil, fmt.Errorf("build predict handler: %w", err)
	}

	mux := http.NewServeMux()
	predict.Register(mux)
	mux.HandleFunc("GET /health", a.health)
	mux.HandleFunc("GET /ready", a.readiness)
	if a.cfg.Metrics.Enabled {
		mux.Handle("GET "+a.cfg.Metrics.Path, promhttp.Handler())
	}

	chain := apphttp.Chain(
		apphttp.Recovery(a.log),
		apphttp.RequestID,
		apphttp.AccessLog(a.log),
		apphttp.CORS(a.cfg.Server.CORS),
		apphttp.RequestSize(a.cfg.Server.MaxBodyBytes),
		apphttp.Metrics,
	)
	return chain(mux), nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Store() *modelstore.Store {
	return a.store
}

// Run serves until ctx is cancelled, then drains connections.
func (a *App) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", a.server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.server.Addr(), err)
	}
	return a.Serve(ctx, l)
}

// Serve is Run on an existing listener.
func (a *App) Serve(ctx context.Context, l net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(l)
	}()

	a.log.Info("Alloy predictor started", map[string]interface{}{
		"addr":      l.Addr().String(),
		"profile":   a.cfg.App.Profile,
		"preflight": a.cfg.Server.CORS.Preflight,
		"origins":   a.cfg.Server.CORS.AllowedOrigins,
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(a.cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, apphttp.HealthStatus{
		Status:  "healthy",
		Service: a.cfg.App.Name,
		Profile: a.cfg.App.Profile,
	})
}

func (a *App) readiness(w http.ResponseWriter, r *http.Request) {
	if !a.ready.Load() {
		apperrors.WriteJSON(w, http.StatusServiceUnavailable, apphttp.HealthStatus{Status: "not ready"})
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, apphttp.HealthStatus{
		Status:  "ready",
		Service: a.cfg.App.Name,
		Profile: a.cfg.App.Profile,
	})
}
