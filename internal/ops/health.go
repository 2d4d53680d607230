// Package ops serves the operational endpoints of the console: Prometheus metrics and
// health probes on a listener separate from the UI.
package ops

import (
	"context"
	"sync"
	"time"

	"github.com/tair/catalog-console/pkg/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DependencyHealth represents the health status of one dependency
type DependencyHealth struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ConsoleHealth represents the overall console health
type ConsoleHealth struct {
	Service      string                      `json:"service"`
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyHealth `json:"dependencies"`
	Uptime       time.Duration               `json:"uptime_seconds"`
}

// HealthChecker checks the console's dependencies
type HealthChecker struct {
	service   string
	checks    map[string]Pinger
	startTime time.Time
}

// NewHealthChecker creates a checker over the named dependencies.
func NewHealthChecker(service string, checks map[string]Pinger) *HealthChecker {
	return &HealthChecker{
		service:   service,
		checks:    checks,
		startTime: time.Now(),
	}
}

// Check pings a single dependency
func (h *HealthChecker) Check(ctx context.Context, name string, p Pinger) DependencyHealth {
	start := time.Now()
	result := DependencyHealth{
		Name:      name,
		Status:    StatusHealthy,
		Timestamp: start,
	}
	if err := p.Ping(ctx); err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
	}
	result.Latency = time.Since(start)
	return result
}

// CheckAll pings every dependency concurrently
func (h *HealthChecker) CheckAll(ctx context.Context) ConsoleHealth {
	deps := make(map[string]DependencyHealth, len(h.checks))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, p := range h.checks {
		wg.Add(1)
		go func(n string, p Pinger) {
			defer wg.Done()
			health := h.Check(ctx, n, p)

			mu.Lock()
			deps[n] = health
			mu.Unlock()

			if health.Status == StatusHealthy {
				logger.Debug(ctx).
					Str("dependency", n).
					Dur("latency", health.Latency).
					Msg("Dependency health check")
			} else {
				logger.Warn(ctx).
					Str("dependency", n).
					Str("error", health.Error).
					Msg("Dependency health check failed")
			}
		}(name, p)
	}
	wg.Wait()

	return ConsoleHealth{
		Service:      h.service,
		Status:       overallStatus(deps),
		Dependencies: deps,
		Uptime:       time.Since(h.startTime),
	}
}

func overallStatus(deps map[string]DependencyHealth) string {
	healthy := 0
	for _, d := range deps {
		if d.Status == StatusHealthy {
			healthy++
		}
	}
	switch {
	case healthy == len(deps):
		return StatusHealthy
	case healthy > 0:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}

// QuickCheck reports the process itself without touching dependencies
func (h *HealthChecker) QuickCheck() map[string]interface{} {
	return map[string]interface{}{
		"status":    StatusHealthy,
		"service":   h.service,
		"uptime":    time.Since(h.startTime).Seconds(),
		"timestamp": time.Now(),
	}
}
