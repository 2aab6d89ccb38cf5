package connection

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultProbeURL is a lightweight public endpoint that answers any GET
	DefaultProbeURL = "https://api.coingecko.com/api/v3/ping"

	// PoorLatency is the probe latency above which a connection is rated poor
	PoorLatency = 2 * time.Second

	// DefaultProbeTimeout bounds a single probe request
	DefaultProbeTimeout = 10 * time.Second
)

// Quality rates the current connection
type Quality int

const (
	Offline Quality = iota
	Poor
	Good
)

func (q Quality) String() string {
	switch q {
	case Good:
		return "good"
	case Poor:
		return "poor"
	default:
		return "offline"
	}
}

// MarshalText renders the quality by name
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// Listener is told about online/offline transitions
type Listener func(online bool)

/* Monitor tracks whether the process believes it is online
 * The flag is driven by platform signals (SetOnline) and by active probes (TestConnection, Run)
 */
type Monitor struct {
	online atomic.Bool

	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]Listener
	order     []uint64

	probeURL string
	client   *http.Client
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures a Monitor
type Option func(*Monitor)

func WithProbeURL(url string) Option {
	return func(m *Monitor) { m.probeURL = url }
}

func WithHTTPClient(client *http.Client) Option {
	return func(m *Monitor) { m.client = client }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// NewMonitor creates a monitor that starts online
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		listeners: make(map[uint64]Listener),
		probeURL:  DefaultProbeURL,
		client:    &http.Client{Timeout: DefaultProbeTimeout},
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	m.online.Store(true)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// SetOnline records a platform online/offline signal; listeners run only on transitions
func (m *Monitor) SetOnline(online bool) {
	if m.online.Swap(online) == online {
		return
	}

	m.logger.Info().Bool("online", online).Msg("connection changed")

	m.mu.Lock()
	snapshot := make([]Listener, 0, len(m.order))
	for _, id := range m.order {
		snapshot = append(snapshot, m.listeners[id])
	}
	m.mu.Unlock()

	for _, fn := range snapshot {
		m.notify(fn, online)
	}
}

func (m *Monitor) notify(fn Listener, online bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Bool("online", online).Msg("connection listener failed")
		}
	}()
	fn(online)
}

// OnChange registers fn for transitions and returns a func that removes it
func (m *Monitor) OnChange(fn Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	m.order = append(m.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { m.remove(id) })
	}
}

func (m *Monitor) remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.listeners, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i:i], m.order[i+1:]...)
			return
		}
	}
}

// TestConnection probes the network; only a request that gets no response reads as false
func (m *Monitor) TestConnection(ctx context.Context) bool {
	_, err := m.probe(ctx)
	if err != nil {
		m.logger.Debug().Err(err).Str("url", m.probeURL).Msg("connection probe failed")
		return false
	}
	return true
}

// Quality probes the network and rates the result by latency
func (m *Monitor) Quality(ctx context.Context) Quality {
	if !m.IsOnline() {
		return Offline
	}

	latency, err := m.probe(ctx)
	if err != nil {
		return Offline
	}
	if latency > PoorLatency {
		return Poor
	}
	return Good
}

func (m *Monitor) probe(ctx context.Context) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating probe request: %w", err)
	}

	start := m.now()
	resp, err := m.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w", m.probeURL, err)
	}
	resp.Body.Close()

	// any answer means the host was reached, whatever the status
	return m.now().Sub(start), nil
}

// Run probes every interval until ctx is done and feeds the result into SetOnline
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	online := m.TestConnection(ctx)
	// a probe cut short by shutdown says nothing about the network
	if ctx.Err() != nil {
		return
	}
	m.SetOnline(online)
}
