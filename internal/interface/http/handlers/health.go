package handlers

import (
	"context"
	"strings"
	"sync"
	"time"
)

// HealthChecker reports service health for the /health family of
// endpoints.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus

	// AddCheck registers a named dependency check.
	AddCheck(name string, check HealthCheckFunc)

	// RemoveCheck drops a named check.
	RemoveCheck(name string)
}

// HealthCheckFunc probes one dependency, returning an error on failure.
type HealthCheckFunc func(ctx context.Context) error

// HealthStatus is the aggregated health of the service.
type HealthStatus struct {
	Healthy   bool                   `json:"healthy"`
	Ready     bool                   `json:"ready"`
	Message   string                 `json:"message,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Healthy     bool      `json:"healthy"`
	Message     string    `json:"message,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	LastChecked time.Time `json:"last_checked,omitempty"`
}

// CompositeHealthChecker runs all registered checks in parallel, each
// under its own timeout, and aggregates the results.
type CompositeHealthChecker struct {
	mu        sync.RWMutex
	checks    map[string]HealthCheckFunc
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewCompositeHealthChecker creates a checker with a 5s per-check timeout.
func NewCompositeHealthChecker(version string) *CompositeHealthChecker {
	return &CompositeHealthChecker{
		checks:    make(map[string]HealthCheckFunc),
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// AddCheck registers a named dependency check.
func (c *CompositeHealthChecker) AddCheck(name string, check HealthCheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// RemoveCheck drops a named check.
func (c *CompositeHealthChecker) RemoveCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Check runs every registered check and reports the combined status.
func (c *CompositeHealthChecker) Check(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := make(map[string]HealthCheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	status := HealthStatus{
		Healthy:   true,
		Ready:     true,
		Checks:    make(map[string]CheckResult),
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		Version:   c.version,
	}

	if len(checks) == 0 {
		status.Message = "No health checks registered"
		return status
	}

	type namedResult struct {
		name   string
		result CheckResult
	}
	results := make(chan namedResult, len(checks))

	var wg sync.WaitGroup
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check HealthCheckFunc) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			start := time.Now()
			err := check(checkCtx)

			result := CheckResult{
				Healthy:     err == nil,
				Message:     "OK",
				Duration:    time.Since(start).Round(time.Millisecond).String(),
				LastChecked: time.Now().UTC(),
			}
			if err != nil {
				result.Message = err.Error()
			}
			results <- namedResult{name, result}
		}(name, check)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var failed []string
	for r := range results {
		status.Checks[r.name] = r.result
		if !r.result.Healthy {
			status.Healthy = false
			status.Ready = false
			failed = append(failed, r.name)
		}
	}

	if status.Healthy {
		status.Message = "All checks passed"
	} else {
		status.Message = "Some checks failed: " + strings.Join(failed, ", ")
	}
	return status
}

// DatabaseChecker is the subset of the postgres connection the health
// check needs.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// NewDatabaseCheck probes database connectivity.
func NewDatabaseCheck(db DatabaseChecker) HealthCheckFunc {
	return func(ctx context.Context) error {
		return db.Ping(ctx)
	}
}

// CacheChecker is the subset of the redis cache the health check needs.
type CacheChecker interface {
	Ping(ctx context.Context) error
}

// NewCacheCheck probes cache connectivity.
func NewCacheCheck(cache CacheChecker) HealthCheckFunc {
	return func(ctx context.Context) error {
		return cache.Ping(ctx)
	}
}

// NoopHealthChecker always reports healthy. Used when no dependencies
// are wired, such as the in-memory configuration.
type NoopHealthChecker struct {
	startTime time.Time
}

// NewNoopHealthChecker creates a checker with no dependencies.
func NewNoopHealthChecker() *NoopHealthChecker {
	return &NoopHealthChecker{startTime: time.Now()}
}

// Check always reports healthy.
func (n *NoopHealthChecker) Check(ctx context.Context) HealthStatus {
	return HealthStatus{
		Healthy:   true,
		Ready:     true,
		Message:   "OK",
		Uptime:    time.Since(n.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
}

// AddCheck is a no-op.
func (n *NoopHealthChecker) AddCheck(name string, check HealthCheckFunc) {}

// RemoveCheck is a no-op.
func (n *NoopHealthChecker) RemoveCheck(name string) {}
