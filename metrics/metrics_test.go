package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/marcelsud/pixbridge/cache/memory"
	"github.com/marcelsud/pixbridge/connection"
	"github.com/marcelsud/pixbridge/integration"
	"github.com/marcelsud/pixbridge/integration/mocks"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSystem(kind integration.Kind, active bool) integration.System {
	return integration.System{
		Name:   kind.String(),
		Kind:   kind,
		Config: integration.EndpointConfig{APIURL: "https://example.com"},
		Active: active,
	}
}

func TestStateCollector(t *testing.T) {
	ctx := context.Background()

	t.Run("collects registry, monitor and cache state", func(t *testing.T) {
		registry := integration.NewRegistry(mocks.NewTransport(t))
		require.NoError(t, registry.Register("a", newSystem(integration.API, true)))
		require.NoError(t, registry.Register("b", newSystem(integration.API, false)))
		require.NoError(t, registry.Register("c", newSystem(integration.Database, true)))

		monitor := connection.NewMonitor()
		monitor.SetOnline(false)

		backend := memory.NewBackend()
		require.NoError(t, backend.Set(ctx, "dmccrypto_cache_prices", "{}", 0))
		require.NoError(t, backend.Set(ctx, "dmccrypto_device_id", "id", 0))

		snapshot, err := NewStateCollector(registry, monitor, backend, "dmccrypto_cache_").Collect(ctx)

		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"api": 2, "webhook": 0, "database": 1, "service": 0}, snapshot.SystemsByKind)
		assert.Equal(t, int64(1), snapshot.InactiveSystems)
		assert.False(t, snapshot.Online)
		assert.Equal(t, int64(1), snapshot.CacheEntries)
		assert.False(t, snapshot.Timestamp.IsZero())
	})

	t.Run("missing monitor and cache read as zero", func(t *testing.T) {
		registry := integration.NewRegistry(mocks.NewTransport(t))

		snapshot, err := NewStateCollector(registry, nil, nil, "").Collect(ctx)

		require.NoError(t, err)
		assert.False(t, snapshot.Online)
		assert.Zero(t, snapshot.CacheEntries)
	})
}

func TestCollector_Interface(t *testing.T) {
	var _ Collector = (*StateCollector)(nil)
}

func scrape(t *testing.T, exporter *OTelExporter) string {
	t.Helper()

	server := httptest.NewServer(exporter.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestOTelExporter(t *testing.T) {
	ctx := context.Background()
	transport := mocks.NewTransport(t)
	registry := integration.NewRegistry(transport)
	monitor := connection.NewMonitor()

	exporter, err := NewOTelExporter(
		NewStateCollector(registry, monitor, memory.NewBackend(), "dmccrypto_cache_"),
		WithRegistry(promclient.NewRegistry()),
	)
	require.NoError(t, err)
	defer exporter.Shutdown(ctx)

	exporter.Observe(registry.Bus())
	stop := exporter.ObserveMonitor(monitor)
	defer stop()

	require.NoError(t, registry.Register("pix_provider", newSystem(integration.API, true)))
	transport.On("Send", ctx, mock.Anything, nil).Return(nil, &integration.HTTPStatusError{Attempt: 1, StatusCode: 502, Status: "Bad Gateway"}).Once()
	transport.On("Send", ctx, mock.Anything, nil).Return(json.RawMessage(`{}`), nil).Once()

	_, err = registry.Dispatch(ctx, "pix_provider", nil)
	require.Error(t, err)
	_, err = registry.Dispatch(ctx, "pix_provider", nil)
	require.NoError(t, err)

	monitor.SetOnline(false)
	exporter.ObserveAttempt(ctx, 1, 150*time.Millisecond, nil)
	exporter.ObserveAttempt(ctx, 2, time.Second, &integration.TransportError{Attempt: 2, Err: context.DeadlineExceeded})

	body := scrape(t, exporter)

	t.Run("dispatch counter by outcome", func(t *testing.T) {
		assert.Contains(t, body, "pixbridge_dispatches")
		assert.Contains(t, body, `system_id="pix_provider"`)
		assert.Contains(t, body, `outcome="success"`)
		assert.Contains(t, body, `error_type="http_status"`)
	})

	t.Run("attempt histogram", func(t *testing.T) {
		assert.Contains(t, body, "pixbridge_dispatch_attempt_duration")
		assert.Contains(t, body, `outcome="timeout"`)
	})

	t.Run("registry and connection counters", func(t *testing.T) {
		assert.Contains(t, body, "pixbridge_registry_changes")
		assert.Contains(t, body, `change="registered"`)
		assert.Contains(t, body, "pixbridge_connection_changes")
		assert.Contains(t, body, `online="false"`)
	})

	t.Run("state gauges", func(t *testing.T) {
		assert.Contains(t, body, "pixbridge_systems_registered")
		assert.Contains(t, body, `kind="api"`)
		assert.Contains(t, body, "pixbridge_connection_online")
		assert.Contains(t, body, "pixbridge_cache_entries")
	})
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&integration.HTTPStatusError{StatusCode: 500}, "http_status"},
		{&integration.TransportError{Err: context.DeadlineExceeded}, "timeout"},
		{&integration.TransportError{Err: errors.New("connection refused")}, "transport"},
		{errors.New("other"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, errorType(tt.err))
		})
	}
}
