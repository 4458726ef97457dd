package spine

import "sync"

// MockObserver is a call-counting Observer implementation for tests:
// it records every observation and exposes counters for verification
// instead of forwarding to real metrics.
type MockObserver struct {
	mu sync.Mutex

	tickCount          int
	broadcastCount     int
	consolidationCount int
	drainCalls         int
	drainTotal         int
	dropCount          int
	retryTotal         int
	lastTickNs         uint64
}

// NewMockObserver creates a MockObserver.
func NewMockObserver() *MockObserver { return &MockObserver{} }

func (m *MockObserver) ObserveTick(durationNs uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickCount++
	m.lastTickNs = durationNs
}

func (m *MockObserver) ObserveBroadcast() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcastCount++
}

func (m *MockObserver) ObserveConsolidation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consolidationCount++
}

func (m *MockObserver) ObserveInterruptDrain(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drainCalls++
	m.drainTotal += n
}

func (m *MockObserver) ObserveInterruptDrop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropCount++
}

func (m *MockObserver) ObserveSeqlockRetries(n uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryTotal += int(n)
}

// TickCount returns the number of ticks observed.
func (m *MockObserver) TickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickCount
}

// BroadcastCount returns the number of broadcast cycles observed.
func (m *MockObserver) BroadcastCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broadcastCount
}

// ConsolidationCount returns the number of consolidation cycles observed.
func (m *MockObserver) ConsolidationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consolidationCount
}

// DrainTotal returns the cumulative number of interrupts drained across
// all observed ticks.
func (m *MockObserver) DrainTotal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drainTotal
}

// DropCount returns the number of dropped-push observations.
func (m *MockObserver) DropCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropCount
}

// Compile-time interface check.
var _ Observer = (*MockObserver)(nil)

// NewTestRegion allocates an anonymous, process-local region suitable
// for hermetic unit tests — no named POSIX shared-memory segment is
// created, so nothing needs cleanup beyond Close.
func NewTestRegion() (*Region, error) {
	return Allocate("")
}
