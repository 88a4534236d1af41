// Command flowlined runs the flowline pipeline daemon: it subscribes to the
// configured pub/sub transport, drives every received message through the
// stage chain, and serves Prometheus metrics until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vnykmshr/flowline/internal/config"
	"github.com/vnykmshr/flowline/pkg/ingress"
	"github.com/vnykmshr/flowline/pkg/metrics"
	"github.com/vnykmshr/flowline/pkg/orchestrator"
	"github.com/vnykmshr/flowline/pkg/stages"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	env, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(env.Mode)
	log.Info().
		Str("mode", string(env.Mode)).
		Str("transport", env.TransportAddr()).
		Msg("starting flowlined")

	prom := metrics.NewRegistry(prometheus.DefaultRegisterer)
	transport := ingress.NewRedisTransport(env.TransportAddr())
	sink := stages.NewRedisStreamSink(env.TransportAddr(), env.ExportStream)
	orch := orchestrator.New(env, log, transport, sink, prom)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("pipeline startup failed")
	}

	var metricsSrv *http.Server
	if env.MetricsPort > 0 {
		metricsSrv = serveMetrics(env.MetricsPort, log)
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}
	if err := orch.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("pipeline shutdown incomplete")
	}

	log.Info().
		Int("completed_pipelines", orch.Monitor().CompletedPipelines()).
		Msg("flowlined stopped")
}

// newLogger builds the process logger: pretty console output in
// development, JSON at info level otherwise.
func newLogger(mode config.Mode) zerolog.Logger {
	if mode == config.ModeDevelopment {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}

// serveMetrics exposes the Prometheus scrape endpoint in the background.
func serveMetrics(port int, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		log.Info().Int("port", port).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return srv
}
