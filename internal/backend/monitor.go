package backend

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is anything that can check the backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the backend answers. The result is reflected in Status.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/cart/count", nil, nil)
}

// Monitor pings the backend on an interval so the connection status stays
// current between requests.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	logger   *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMonitor creates a monitor. A non-positive interval means 30s.
func NewMonitor(p Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		pinger:   p,
		interval: interval,
		logger:   logger.Named("monitor"),
		done:     make(chan struct{}),
	}
}

// Start begins the ping loop
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.loop()
}

// Stop stops the ping loop and waits for it to exit
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
	m.wg.Wait()
}

func (m *Monitor) loop() {
	defer m.wg.Done()

	// Ping immediately on start
	m.ping()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.ping()
		}
	}
}

func (m *Monitor) ping() {
	ctx, cancel := context.WithTimeout(context.Background(), m.interval)
	defer cancel()

	if err := m.pinger.Ping(ctx); err != nil && IsKind(err, KindTransport) {
		m.logger.Debug("backend unreachable", zap.Error(err))
	}
}
