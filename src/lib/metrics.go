package lib

import "sync"

// Metrics is an in-memory counter store backing the /metrics endpoint.
// Names passed to NewMetrics are pre-registered so known counters report
// zero before their first increment.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]uint64
}

func NewMetrics(names ...string) *Metrics {
	counters := make(map[string]uint64, len(names))
	for _, name := range names {
		counters[name] = 0
	}
	return &Metrics{counters: counters}
}

func (m *Metrics) Inc(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name]++
}

func (m *Metrics) Get(name string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[name]
}

func (m *Metrics) Snapshot() map[string]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]uint64, len(m.counters))
	for k, v := range m.counters {
		cp[k] = v
	}
	return cp
}
