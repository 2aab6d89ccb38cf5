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

	"github.com/go-chi/httplog"
	"github.com/marcelsud/pixbridge/adapter"
	"github.com/marcelsud/pixbridge/cache"
	cacheredis "github.com/marcelsud/pixbridge/cache/redis"
	"github.com/marcelsud/pixbridge/config"
	"github.com/marcelsud/pixbridge/connection"
	"github.com/marcelsud/pixbridge/integration"
	"github.com/marcelsud/pixbridge/integration/transport"
	"github.com/marcelsud/pixbridge/internal/http/chi"
	"github.com/marcelsud/pixbridge/metrics"
	"github.com/marcelsud/pixbridge/presets"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const TIMEOUT = 30 * time.Second

/* api wires every package together: config, the Redis-backed cache, the registry
 * with its HTTP transport, the connection monitor, metrics and the admin API
 * Imports only flow downwards: the binary imports the domain packages, which import their adapters
 */

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("pixbridge", httplog.Options{
		JSON:     true,
		LogLevel: cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	backend, err := cacheredis.NewBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer backend.Close(ctx)
	store := cache.NewStore(backend, cache.WithPrefix(cfg.CachePrefix), cache.WithLogger(logger))

	deviceID, err := store.DeviceID(ctx)
	if err != nil {
		return err
	}
	logger = logger.With().Str("device_id", deviceID).Logger()

	loader := presets.NewLoader()
	if err := loader.Load(cfg.PresetsFile); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		logger.Info().Str("file", cfg.PresetsFile).Msg("no presets file, using built-in presets")
	}

	// the exporter is created after the registry it observes; attempts only happen once both exist
	var exporter *metrics.OTelExporter
	client := transport.NewClient(
		transport.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
		transport.WithObserver(transport.ObserverFunc(func(ctx context.Context, attempt int, elapsed time.Duration, err error) {
			exporter.ObserveAttempt(ctx, attempt, elapsed, err)
		})),
		transport.WithLogger(logger),
	)
	registry := integration.NewRegistry(client, integration.WithLogger(logger))

	monitor := connection.NewMonitor(connection.WithProbeURL(cfg.ProbeURL), connection.WithLogger(logger))

	exporter, err = metrics.NewOTelExporter(metrics.NewStateCollector(registry, monitor, backend, cfg.CachePrefix))
	if err != nil {
		return err
	}
	defer exporter.Shutdown(context.Background())
	exporter.Observe(registry.Bus())
	defer exporter.ObserveMonitor(monitor)()

	integration.Subscribe(registry.Bus(), func(e integration.SystemRegistered) {
		logger.Info().Str("system_id", e.ID).Str("kind", e.System.Kind.String()).Msg("system registered")
	})
	integration.Subscribe(registry.Bus(), func(e integration.SystemUnregistered) {
		logger.Info().Str("system_id", e.ID).Msg("system unregistered")
	})

	r := chi.Handlers(ctx, chi.Dependencies{
		Systems:   registry,
		Presets:   loader,
		Monitor:   monitor,
		Cache:     store,
		Exchange:  adapter.NewExchange(registry),
		Metrics:   exporter.Handler(),
		PricesTTL: cfg.PricesTTL(),
		Logger:    logger,
	})
	srv := &http.Server{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		Addr:         ":" + cfg.Port,
		Handler:      r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		monitor.Run(gctx, cfg.ProbeInterval())
		return nil
	})
	g.Go(func() error {
		return shutdown(gctx, srv)
	})
	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	return g.Wait()
}

func shutdown(ctxShutdown context.Context, server *http.Server) error {
	<-ctxShutdown.Done()

	ctxTimeout, stop := context.WithTimeout(context.Background(), TIMEOUT)
	defer stop()

	if err := server.Shutdown(ctxTimeout); err != nil {
		return fmt.Errorf("forcing closing the server: %w", err)
	}
	fmt.Printf("\nShutting down server...\n")
	return nil
}
