package observability

import (
	"sort"
	"strings"
	"sync"
)

// Metrics records application counters.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
}

// Tag labels a metric.
type Tag struct {
	Key   string
	Value string
}

// T creates a new Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag) {}

// InMemoryMetrics keeps counters in memory for tests and the CLI.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{counters: make(map[string]int64)}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[formatKey(name, tags)] += value
}

// GetCounter returns the current value of a counter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[formatKey(name, tags)]
}

// Snapshot copies every counter keyed by name and sorted tags.
func (m *InMemoryMetrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

func formatKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	sorted := append([]Tag(nil), tags...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var b strings.Builder
	b.WriteString(name)
	for _, t := range sorted {
		b.WriteString(":")
		b.WriteString(t.Key)
		b.WriteString("=")
		b.WriteString(t.Value)
	}
	return b.String()
}

// Metric names.
const (
	MetricStatusCreated      = "workflow.status.created"
	MetricStatusUpdated      = "workflow.status.updated"
	MetricStatusDeleted      = "workflow.status.deleted"
	MetricStatusReordered    = "workflow.status.reordered"
	MetricTransitionsUpdated = "workflow.transitions.updated"
	MetricTransitionRejected = "workflow.transition.rejected"
	MetricTaskStatusChanged  = "tasks.status.changed"
	MetricCacheHit           = "workflow.cache.hit"
	MetricCacheMiss          = "workflow.cache.miss"
	MetricCacheError         = "workflow.cache.error"
	MetricTenantsSeeded      = "workflow.tenants.seeded"
)
