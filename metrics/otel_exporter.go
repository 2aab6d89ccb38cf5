package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/marcelsud/pixbridge/connection"
	"github.com/marcelsud/pixbridge/integration"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector
	gatherer      promclient.Gatherer

	// OTel meters and instruments
	meter                   metric.Meter
	systemsGauge            metric.Int64ObservableGauge
	inactiveSystemsGauge    metric.Int64ObservableGauge
	onlineGauge             metric.Int64ObservableGauge
	cacheEntriesGauge       metric.Int64ObservableGauge
	dispatchCounter         metric.Int64Counter
	attemptDuration         metric.Float64Histogram
	registryChangeCounter   metric.Int64Counter
	connectionChangeCounter metric.Int64Counter
}

// Option configures an OTelExporter
type Option func(*exporterOptions)

type exporterOptions struct {
	registry *promclient.Registry
}

// WithRegistry exports into reg instead of the process-wide default registry
func WithRegistry(reg *promclient.Registry) Option {
	return func(o *exporterOptions) { o.registry = reg }
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector Collector, opts ...Option) (*OTelExporter, error) {
	var options exporterOptions
	for _, opt := range opts {
		opt(&options)
	}

	var exporterOpts []prometheus.Option
	var gatherer promclient.Gatherer = promclient.DefaultGatherer
	if options.registry != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(options.registry))
		gatherer = options.registry
	}

	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	if options.registry == nil {
		otel.SetMeterProvider(meterProvider)
	}

	meter := meterProvider.Meter(
		"pixbridge",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		gatherer:      gatherer,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.systemsGauge, err = oe.meter.Int64ObservableGauge(
		"pixbridge.systems.registered",
		metric.WithDescription("Number of registered external systems per kind"),
		metric.WithUnit("{systems}"),
		metric.WithInt64Callback(oe.observeSystems),
	)
	if err != nil {
		return fmt.Errorf("creating systems gauge: %w", err)
	}

	oe.inactiveSystemsGauge, err = oe.meter.Int64ObservableGauge(
		"pixbridge.systems.inactive",
		metric.WithDescription("Number of registered systems that refuse dispatch"),
		metric.WithUnit("{systems}"),
		metric.WithInt64Callback(oe.observeInactiveSystems),
	)
	if err != nil {
		return fmt.Errorf("creating inactive systems gauge: %w", err)
	}

	oe.onlineGauge, err = oe.meter.Int64ObservableGauge(
		"pixbridge.connection.online",
		metric.WithDescription("1 while the connection monitor reports online, 0 otherwise"),
		metric.WithInt64Callback(oe.observeOnline),
	)
	if err != nil {
		return fmt.Errorf("creating online gauge: %w", err)
	}

	oe.cacheEntriesGauge, err = oe.meter.Int64ObservableGauge(
		"pixbridge.cache.entries",
		metric.WithDescription("Number of keys under the cache prefix"),
		metric.WithUnit("{entries}"),
		metric.WithInt64Callback(oe.observeCacheEntries),
	)
	if err != nil {
		return fmt.Errorf("creating cache entries gauge: %w", err)
	}

	oe.dispatchCounter, err = oe.meter.Int64Counter(
		"pixbridge.dispatches",
		metric.WithDescription("Completed dispatches per system and outcome"),
		metric.WithUnit("{dispatches}"),
	)
	if err != nil {
		return fmt.Errorf("creating dispatch counter: %w", err)
	}

	oe.attemptDuration, err = oe.meter.Float64Histogram(
		"pixbridge.dispatch.attempt.duration",
		metric.WithDescription("Duration of single HTTP attempts made by the dispatcher"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("creating attempt duration histogram: %w", err)
	}

	oe.registryChangeCounter, err = oe.meter.Int64Counter(
		"pixbridge.registry.changes",
		metric.WithDescription("Register and unregister operations"),
		metric.WithUnit("{changes}"),
	)
	if err != nil {
		return fmt.Errorf("creating registry change counter: %w", err)
	}

	oe.connectionChangeCounter, err = oe.meter.Int64Counter(
		"pixbridge.connection.changes",
		metric.WithDescription("Online/offline transitions seen by the connection monitor"),
		metric.WithUnit("{changes}"),
	)
	if err != nil {
		return fmt.Errorf("creating connection change counter: %w", err)
	}

	return nil
}

// Observe feeds registry lifecycle events into the counters
func (oe *OTelExporter) Observe(bus *integration.Bus) {
	ctx := context.Background()

	integration.Subscribe(bus, func(e integration.SystemRegistered) {
		oe.registryChangeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("change", "registered")))
	})
	integration.Subscribe(bus, func(e integration.SystemUnregistered) {
		oe.registryChangeCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("change", "unregistered")))
	})
	integration.Subscribe(bus, func(e integration.SystemConnected) {
		oe.dispatchCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("system.id", e.ID),
			attribute.String("outcome", "success"),
		))
	})
	integration.Subscribe(bus, func(e integration.SystemError) {
		oe.dispatchCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("system.id", e.ID),
			attribute.String("outcome", "error"),
			attribute.String("error.type", errorType(e.Err)),
		))
	})
}

// ObserveMonitor counts connection transitions; the returned func stops counting
func (oe *OTelExporter) ObserveMonitor(monitor *connection.Monitor) func() {
	return monitor.OnChange(func(online bool) {
		oe.connectionChangeCounter.Add(context.Background(), 1, metric.WithAttributes(
			attribute.Bool("online", online),
		))
	})
}

// ObserveAttempt records one dispatcher attempt
func (oe *OTelExporter) ObserveAttempt(ctx context.Context, attempt int, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = errorType(err)
	}
	oe.attemptDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("attempt", strconv.Itoa(attempt)),
		attribute.String("outcome", outcome),
	))
}

func errorType(err error) string {
	var statusErr *integration.HTTPStatusError
	var transportErr *integration.TransportError
	switch {
	case errors.As(err, &statusErr):
		return "http_status"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "other"
	}
}

// observeSystems is a callback that reports registered systems per kind
func (oe *OTelExporter) observeSystems(ctx context.Context, observer metric.Int64Observer) error {
	counts, err := oe.collector.GetSystemsByKind(ctx)
	if err != nil {
		return err
	}

	for kind, count := range counts {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("kind", kind),
		))
	}

	return nil
}

// observeInactiveSystems is a callback that reports systems with active=false
func (oe *OTelExporter) observeInactiveSystems(ctx context.Context, observer metric.Int64Observer) error {
	snapshot, err := oe.collector.Collect(ctx)
	if err != nil {
		return err
	}

	observer.Observe(snapshot.InactiveSystems)
	return nil
}

// observeOnline is a callback that reports the connection flag
func (oe *OTelExporter) observeOnline(ctx context.Context, observer metric.Int64Observer) error {
	online, err := oe.collector.GetOnline(ctx)
	if err != nil {
		return err
	}

	var value int64
	if online {
		value = 1
	}
	observer.Observe(value)
	return nil
}

// observeCacheEntries is a callback that reports the cache size
func (oe *OTelExporter) observeCacheEntries(ctx context.Context, observer metric.Int64Observer) error {
	entries, err := oe.collector.GetCacheEntries(ctx)
	if err != nil {
		return err
	}

	observer.Observe(entries)
	return nil
}

// Handler serves Prometheus-formatted metrics
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.HandlerFor(oe.gatherer, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
