package goadssim

import (
	"sync"
	"sync/atomic"
)

// Metrics defines the interface for collecting operational metrics.
// Implementations can export metrics to various backends (Prometheus, StatsD, etc.).
type Metrics interface {
	// Connection metrics
	ConnectionOpened()
	ConnectionClosed()
	ConnectionsActive(count int)

	// Request metrics
	RequestReceived(command string)
	ResponseSent(command string)
	MalformedFrame()
	DispatchFailed(command string)

	// Data transfer metrics
	BytesRead(bytes int64)
	BytesWritten(bytes int64)

	// Notification metrics
	NotificationSent()
	NotificationDropped()
	SubscriptionsActive(count int)
}

// noopMetrics implements Metrics with no-op operations for minimal overhead.
type noopMetrics struct{}

func (n *noopMetrics) ConnectionOpened()              {}
func (n *noopMetrics) ConnectionClosed()              {}
func (n *noopMetrics) ConnectionsActive(count int)    {}
func (n *noopMetrics) RequestReceived(command string) {}
func (n *noopMetrics) ResponseSent(command string)    {}
func (n *noopMetrics) MalformedFrame()                {}
func (n *noopMetrics) DispatchFailed(command string)  {}
func (n *noopMetrics) BytesRead(bytes int64)          {}
func (n *noopMetrics) BytesWritten(bytes int64)       {}
func (n *noopMetrics) NotificationSent()              {}
func (n *noopMetrics) NotificationDropped()           {}
func (n *noopMetrics) SubscriptionsActive(count int)  {}

var (
	// DefaultMetrics is a no-op metrics collector to minimize overhead when metrics are not configured.
	DefaultMetrics Metrics = &noopMetrics{}
)

// InMemoryMetrics provides a simple in-memory metrics collector for testing and debugging.
type InMemoryMetrics struct {
	mu sync.RWMutex

	// Connection metrics
	ConnectionsOpenedCount atomic.Int64
	ConnectionsClosedCount atomic.Int64
	ConnectionsActiveCount atomic.Int64

	// Request metrics
	RequestCounts        map[string]*atomic.Int64
	ResponseCounts       map[string]*atomic.Int64
	DispatchFailures     map[string]*atomic.Int64
	MalformedFramesCount atomic.Int64

	// Data transfer metrics
	BytesReadCount    atomic.Int64
	BytesWrittenCount atomic.Int64

	// Notification metrics
	NotificationsSentCount    atomic.Int64
	NotificationsDroppedCount atomic.Int64
	SubscriptionsActiveCount  atomic.Int64
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		RequestCounts:    make(map[string]*atomic.Int64),
		ResponseCounts:   make(map[string]*atomic.Int64),
		DispatchFailures: make(map[string]*atomic.Int64),
	}
}

func (m *InMemoryMetrics) ConnectionOpened() {
	m.ConnectionsOpenedCount.Add(1)
}

func (m *InMemoryMetrics) ConnectionClosed() {
	m.ConnectionsClosedCount.Add(1)
}

func (m *InMemoryMetrics) ConnectionsActive(count int) {
	m.ConnectionsActiveCount.Store(int64(count))
}

func (m *InMemoryMetrics) RequestReceived(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.RequestCounts[command]; !exists {
		m.RequestCounts[command] = &atomic.Int64{}
	}
	m.RequestCounts[command].Add(1)
}

func (m *InMemoryMetrics) ResponseSent(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.ResponseCounts[command]; !exists {
		m.ResponseCounts[command] = &atomic.Int64{}
	}
	m.ResponseCounts[command].Add(1)
}

func (m *InMemoryMetrics) MalformedFrame() {
	m.MalformedFramesCount.Add(1)
}

func (m *InMemoryMetrics) DispatchFailed(command string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.DispatchFailures[command]; !exists {
		m.DispatchFailures[command] = &atomic.Int64{}
	}
	m.DispatchFailures[command].Add(1)
}

func (m *InMemoryMetrics) BytesRead(bytes int64) {
	m.BytesReadCount.Add(bytes)
}

func (m *InMemoryMetrics) BytesWritten(bytes int64) {
	m.BytesWrittenCount.Add(bytes)
}

func (m *InMemoryMetrics) NotificationSent() {
	m.NotificationsSentCount.Add(1)
}

func (m *InMemoryMetrics) NotificationDropped() {
	m.NotificationsDroppedCount.Add(1)
}

func (m *InMemoryMetrics) SubscriptionsActive(count int) {
	m.SubscriptionsActiveCount.Store(int64(count))
}

// Snapshot returns a copy of current metrics for reporting.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		ConnectionsOpened:     m.ConnectionsOpenedCount.Load(),
		ConnectionsClosed:     m.ConnectionsClosedCount.Load(),
		ConnectionsActive:     m.ConnectionsActiveCount.Load(),
		MalformedFrames:       m.MalformedFramesCount.Load(),
		BytesRead:             m.BytesReadCount.Load(),
		BytesWritten:          m.BytesWrittenCount.Load(),
		NotificationsSent:     m.NotificationsSentCount.Load(),
		NotificationsDropped:  m.NotificationsDroppedCount.Load(),
		SubscriptionsActive:   m.SubscriptionsActiveCount.Load(),
		RequestCounts:         make(map[string]int64),
		ResponseCounts:        make(map[string]int64),
		DispatchFailureCounts: make(map[string]int64),
	}

	for cmd, counter := range m.RequestCounts {
		snapshot.RequestCounts[cmd] = counter.Load()
	}

	for cmd, counter := range m.ResponseCounts {
		snapshot.ResponseCounts[cmd] = counter.Load()
	}

	for cmd, counter := range m.DispatchFailures {
		snapshot.DispatchFailureCounts[cmd] = counter.Load()
	}

	return snapshot
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	ConnectionsOpened     int64
	ConnectionsClosed     int64
	ConnectionsActive     int64
	MalformedFrames       int64
	BytesRead             int64
	BytesWritten          int64
	NotificationsSent     int64
	NotificationsDropped  int64
	SubscriptionsActive   int64
	RequestCounts         map[string]int64
	ResponseCounts        map[string]int64
	DispatchFailureCounts map[string]int64
}

// WithMetrics returns a new option that sets the metrics collector for the server.
func WithMetrics(metrics Metrics) Option {
	return func(c *serverConfig) error {
		c.metrics = metrics
		return nil
	}
}
