// Package dbhealth periodically probes registered pools and tracks a
// consecutive-failure-gated health status per pool, generalizing the
// teacher's per-tenant raw-byte TCP/handshake probes to a single
// caller-supplied PingFunc per pool — in practice, the driver
// connection's own protocol-level Ping (see internal/conn/pgconn and
// internal/conn/myconn) borrowed via a short Acquire/Return from its
// internal/dbpool.Pool, so a check exercises the real authenticated
// wire path instead of a bare TCP dial.
package dbhealth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sqlcore/sqlcore/internal/dbmetrics"
)

// Status is a pool's health as tracked by consecutive probe outcomes.
type Status int

const (
	StatusUnknown Status = iota
	StatusHealthy
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// TargetHealth is a point-in-time health snapshot for one registered
// pool.
type TargetHealth struct {
	Status              Status
	LastCheck           time.Time
	ConsecutiveFailures int
	LastError           string
}

// PingFunc performs one health probe against a pool, returning an error
// describing why the probe failed.
type PingFunc func(ctx context.Context) error

type target struct {
	driver string
	label  string // redacted metrics/log identifier, e.g. "host:port/dbname"
	ping   PingFunc
}

// Checker runs PingFunc probes against every registered target on a
// fixed interval and tracks health with a consecutive-failure
// threshold, exactly the teacher's Checker's gating logic.
type Checker struct {
	mu      sync.RWMutex
	targets map[string]*target
	health  map[string]*TargetHealth
	metrics *dbmetrics.Collector

	interval         time.Duration
	failureThreshold int
	probeTimeout     time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewChecker builds a Checker. m may be nil if metrics aren't wired.
func NewChecker(interval time.Duration, failureThreshold int, probeTimeout time.Duration, m *dbmetrics.Collector) *Checker {
	return &Checker{
		targets:          make(map[string]*target),
		health:           make(map[string]*TargetHealth),
		metrics:          m,
		interval:         interval,
		failureThreshold: failureThreshold,
		probeTimeout:     probeTimeout,
		stopCh:           make(chan struct{}),
	}
}

// Register adds (or replaces) the probe for id. label must be a
// redacted, non-secret pool identifier, matching internal/dbmetrics'
// "target" label contract.
func (c *Checker) Register(id, driver, label string, ping PingFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targets[id] = &target{driver: driver, label: label, ping: ping}
	if _, ok := c.health[id]; !ok {
		c.health[id] = &TargetHealth{Status: StatusUnknown}
	}
}

// Deregister removes a pool's probe and health state.
func (c *Checker) Deregister(id string) {
	c.mu.Lock()
	t, ok := c.targets[id]
	delete(c.targets, id)
	delete(c.health, id)
	c.mu.Unlock()

	if ok && c.metrics != nil {
		c.metrics.RemovePool(t.driver, t.label)
	}
	slog.Info("dbhealth: removed target", "id", id)
}

// Start begins periodic probing in a background goroutine.
func (c *Checker) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run()
	}()
	slog.Info("dbhealth: checker started", "interval", c.interval, "threshold", c.failureThreshold)
}

// Stop stops the checker. Safe to call multiple times.
func (c *Checker) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
	slog.Info("dbhealth: checker stopped")
}

func (c *Checker) run() {
	c.checkAll()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.checkAll()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Checker) snapshotTargets() map[string]*target {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*target, len(c.targets))
	for id, t := range c.targets {
		out[id] = t
	}
	return out
}

func (c *Checker) checkAll() {
	targets := c.snapshotTargets()

	const maxWorkers = 10
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for id, t := range targets {
		id, t := id, t
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			err := c.probe(t)
			elapsed := time.Since(start)

			if c.metrics != nil {
				c.metrics.HealthCheckCompleted(t.driver, t.label, elapsed, err == nil)
			}
			c.updateStatus(id, t, err)
		}()
	}
	wg.Wait()
}

func (c *Checker) probe(t *target) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.probeTimeout)
	defer cancel()
	return t.ping(ctx)
}

func (c *Checker) updateStatus(id string, t *target, probeErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	th, ok := c.health[id]
	if !ok {
		th = &TargetHealth{}
		c.health[id] = th
	}
	th.LastCheck = time.Now()

	if probeErr == nil {
		if th.ConsecutiveFailures > 0 {
			slog.Info("dbhealth: target recovered", "id", id, "failures", th.ConsecutiveFailures)
		}
		th.Status = StatusHealthy
		th.ConsecutiveFailures = 0
		th.LastError = ""
	} else {
		th.ConsecutiveFailures++
		th.LastError = probeErr.Error()
		if c.metrics != nil {
			c.metrics.HealthCheckError(t.driver, t.label, "probe_failed")
		}
		if th.ConsecutiveFailures >= c.failureThreshold {
			if th.Status != StatusUnhealthy {
				slog.Warn("dbhealth: target marked unhealthy", "id", id, "failures", th.ConsecutiveFailures, "error", th.LastError)
			}
			th.Status = StatusUnhealthy
		}
	}
}

// IsHealthy reports whether id is healthy. An unregistered or
// never-probed id is treated as healthy (fail-open, matching the
// teacher's IsHealthy).
func (c *Checker) IsHealthy(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	th, ok := c.health[id]
	if !ok {
		return true
	}
	return th.Status != StatusUnhealthy
}

// GetStatus returns the current health snapshot for id.
func (c *Checker) GetStatus(id string) TargetHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	th, ok := c.health[id]
	if !ok {
		return TargetHealth{Status: StatusUnknown}
	}
	return *th
}

// GetAllStatuses returns a snapshot of every registered target's
// health.
func (c *Checker) GetAllStatuses() map[string]TargetHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]TargetHealth, len(c.health))
	for id, th := range c.health {
		out[id] = *th
	}
	return out
}

// OverallHealthy reports whether every registered target is healthy.
func (c *Checker) OverallHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, th := range c.health {
		if th.Status == StatusUnhealthy {
			return false
		}
	}
	return true
}
