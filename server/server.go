package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/tarungka/sonata/internal/models"
	metrics "github.com/tarungka/sonata/internal/pipeline"
)

// StatusProvider reports on the running pipelines.
type StatusProvider interface {
	Stats() []metrics.RunStats
	Runs() []models.RunInfo
	PoolStats() metrics.WorkerPoolStats
}

// NewRouter builds the status API: /health, /stats, /pipelines and
// /metrics.
func NewRouter(p StatusProvider) chi.Router {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		metrics.NewCollector(p.Stats),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := chi.NewRouter()

	router.Use(hlog.NewHandler(log.Logger))
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Dur("duration", duration).
			Msg("Request")
	}))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/health"))
	router.Use(middleware.CleanPath)
	router.Use(middleware.RequestID)

	router.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		sendData(w, r, StatsModel{Pipelines: p.Stats(), Pool: p.PoolStats()})
	})
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	router.Mount("/pipelines", PipelinesRouter(p))

	return router
}

// Run serves the status API on addr until ctx is done.
func Run(ctx context.Context, addr string, p StatusProvider) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(p),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Running the web server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "web server")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "web server shutdown")
	}
	log.Info().Msg("Web server stopped")
	return nil
}
