package observability

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult is the outcome of one check.
type HealthCheckResult struct {
	Status   HealthStatus `json:"status"`
	Message  string       `json:"message,omitempty"`
	Duration string       `json:"duration"`
}

// OverallHealth summarizes every registered check.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// HealthRegistry runs named dependency checks.
type HealthRegistry struct {
	mu     sync.RWMutex
	checks map[string]healthCheck
}

type healthCheck struct {
	ping     func(ctx context.Context) error
	critical bool
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checks: make(map[string]healthCheck)}
}

// Register adds a ping check. A failing critical check makes the service
// unhealthy; a failing non-critical one (cache, broker) only degrades it.
func (r *HealthRegistry) Register(name string, critical bool, ping func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = healthCheck{ping: ping, critical: critical}
}

// Check runs all checks sequentially.
func (r *HealthRegistry) Check(ctx context.Context) OverallHealth {
	r.mu.RLock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	checks := make(map[string]healthCheck, len(r.checks))
	for k, v := range r.checks {
		checks[k] = v
	}
	r.mu.RUnlock()
	sort.Strings(names)

	overall := OverallHealth{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]HealthCheckResult, len(names)),
	}
	for _, name := range names {
		check := checks[name]
		start := time.Now()
		err := check.ping(ctx)
		result := HealthCheckResult{Status: HealthStatusHealthy, Duration: time.Since(start).String()}
		if err != nil {
			result.Message = err.Error()
			result.Status = HealthStatusDegraded
			if check.critical {
				result.Status = HealthStatusUnhealthy
			}
		}
		overall.Checks[name] = result
		overall.Status = worse(overall.Status, result.Status)
	}
	return overall
}

func worse(a, b HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{HealthStatusHealthy: 0, HealthStatusDegraded: 1, HealthStatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
