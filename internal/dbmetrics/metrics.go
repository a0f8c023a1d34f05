// Package dbmetrics provides the Prometheus instrumentation hooks for
// pools, queries, the statement cache, and health probes, generalizing
// the teacher's per-tenant proxy metrics ("tenant", "db_type" labels) to
// per-(driver, target) client-library metrics. It is registry-only:
// sqlcore has no HTTP surface of its own, so scraping a Collector's
// Registry is the caller's responsibility (see DESIGN.md's
// dropped-gorilla/mux note).
package dbmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every metric sqlcore exposes. All label values named
// "target" must be a redacted, non-secret identifier for a pool (e.g.
// "host:port/dbname") — never a raw DSN carrying credentials.
type Collector struct {
	Registry *prometheus.Registry

	connectionsActive  *prometheus.GaugeVec
	connectionsIdle    *prometheus.GaugeVec
	connectionsTotal   *prometheus.GaugeVec
	connectionsWaiting *prometheus.GaugeVec
	poolExhausted      *prometheus.CounterVec
	acquireDuration    *prometheus.HistogramVec

	queryDuration *prometheus.HistogramVec

	transactionsTotal   *prometheus.CounterVec
	transactionDuration *prometheus.HistogramVec

	stmtCacheHits      *prometheus.CounterVec
	stmtCacheMisses    *prometheus.CounterVec
	stmtCacheEvictions *prometheus.CounterVec

	healthCheckDuration *prometheus.HistogramVec
	healthCheckErrors   *prometheus.CounterVec
}

// New creates and registers every metric against a fresh registry. Safe
// to call multiple times (e.g. in tests) — each call returns an
// independent registry.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		Registry: reg,
		connectionsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sqlcore_connections_active",
				Help: "Number of active (checked-out) connections per pool",
			},
			[]string{"driver", "target"},
		),
		connectionsIdle: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sqlcore_connections_idle",
				Help: "Number of idle connections per pool",
			},
			[]string{"driver", "target"},
		),
		connectionsTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sqlcore_connections_total",
				Help: "Total number of connections (active + idle) per pool",
			},
			[]string{"driver", "target"},
		),
		connectionsWaiting: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sqlcore_connections_waiting",
				Help: "Number of callers waiting on Acquire per pool",
			},
			[]string{"driver", "target"},
		),
		poolExhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlcore_pool_exhausted_total",
				Help: "Total number of times Acquire had to wait because the pool was at MaxConns",
			},
			[]string{"driver", "target"},
		),
		acquireDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlcore_acquire_duration_seconds",
				Help:    "Time spent waiting inside Pool.Acquire",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
			[]string{"driver", "target"},
		),

		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlcore_query_duration_seconds",
				Help:    "Duration of a single Execute/Fetch call",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"driver", "target"},
		),

		transactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlcore_transactions_total",
				Help: "Total completed transactions (committed or rolled back)",
			},
			[]string{"driver", "target", "outcome"},
		),
		transactionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlcore_transaction_duration_seconds",
				Help:    "Duration from Begin to Commit/Rollback",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
			},
			[]string{"driver", "target"},
		),

		stmtCacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlcore_statement_cache_hits_total",
				Help: "Prepared statement cache hits per connection's SQL text lookup",
			},
			[]string{"driver", "target"},
		),
		stmtCacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlcore_statement_cache_misses_total",
				Help: "Prepared statement cache misses, each triggering a server-side prepare",
			},
			[]string{"driver", "target"},
		),
		stmtCacheEvictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlcore_statement_cache_evictions_total",
				Help: "Prepared statements evicted from the cache, each triggering a server-side close",
			},
			[]string{"driver", "target"},
		),

		healthCheckDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sqlcore_health_check_duration_seconds",
				Help:    "Duration of a backend health probe",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"driver", "target", "status"},
		),
		healthCheckErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sqlcore_health_check_errors_total",
				Help: "Health check errors by kind",
			},
			[]string{"driver", "target", "error_kind"},
		),
	}

	reg.MustRegister(
		c.connectionsActive,
		c.connectionsIdle,
		c.connectionsTotal,
		c.connectionsWaiting,
		c.poolExhausted,
		c.acquireDuration,
		c.queryDuration,
		c.transactionsTotal,
		c.transactionDuration,
		c.stmtCacheHits,
		c.stmtCacheMisses,
		c.stmtCacheEvictions,
		c.healthCheckDuration,
		c.healthCheckErrors,
	)

	return c
}

// UpdatePoolStats sets the pool gauges from a point-in-time snapshot.
func (c *Collector) UpdatePoolStats(driver, target string, active, idle, total, waiting int) {
	c.connectionsActive.WithLabelValues(driver, target).Set(float64(active))
	c.connectionsIdle.WithLabelValues(driver, target).Set(float64(idle))
	c.connectionsTotal.WithLabelValues(driver, target).Set(float64(total))
	c.connectionsWaiting.WithLabelValues(driver, target).Set(float64(waiting))
}

// PoolExhausted increments the exhaustion counter for a pool.
func (c *Collector) PoolExhausted(driver, target string) {
	c.poolExhausted.WithLabelValues(driver, target).Inc()
}

// AcquireDuration observes how long a caller waited inside Acquire.
func (c *Collector) AcquireDuration(driver, target string, d time.Duration) {
	c.acquireDuration.WithLabelValues(driver, target).Observe(d.Seconds())
}

// QueryDuration observes a single Execute/Fetch call's duration.
func (c *Collector) QueryDuration(driver, target string, d time.Duration) {
	c.queryDuration.WithLabelValues(driver, target).Observe(d.Seconds())
}

// TransactionCompleted records a finished transaction and its duration.
// outcome is "committed" or "rolled_back".
func (c *Collector) TransactionCompleted(driver, target, outcome string, d time.Duration) {
	c.transactionsTotal.WithLabelValues(driver, target, outcome).Inc()
	c.transactionDuration.WithLabelValues(driver, target).Observe(d.Seconds())
}

// StatementCacheHit increments the cache-hit counter.
func (c *Collector) StatementCacheHit(driver, target string) {
	c.stmtCacheHits.WithLabelValues(driver, target).Inc()
}

// StatementCacheMiss increments the cache-miss counter.
func (c *Collector) StatementCacheMiss(driver, target string) {
	c.stmtCacheMisses.WithLabelValues(driver, target).Inc()
}

// StatementCacheEviction increments the cache-eviction counter.
func (c *Collector) StatementCacheEviction(driver, target string) {
	c.stmtCacheEvictions.WithLabelValues(driver, target).Inc()
}

// HealthCheckCompleted records a health probe's duration and result.
func (c *Collector) HealthCheckCompleted(driver, target string, d time.Duration, healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	c.healthCheckDuration.WithLabelValues(driver, target, status).Observe(d.Seconds())
}

// HealthCheckError records a health probe failure by error kind.
func (c *Collector) HealthCheckError(driver, target, errorKind string) {
	c.healthCheckErrors.WithLabelValues(driver, target, errorKind).Inc()
}

// RemovePool deletes every series labeled with (driver, target), for
// use when a pool is closed and its identity will not be reused.
func (c *Collector) RemovePool(driver, target string) {
	labels := prometheus.Labels{"driver": driver, "target": target}
	c.connectionsActive.DeletePartialMatch(labels)
	c.connectionsIdle.DeletePartialMatch(labels)
	c.connectionsTotal.DeletePartialMatch(labels)
	c.connectionsWaiting.DeletePartialMatch(labels)
	c.poolExhausted.DeletePartialMatch(labels)
	c.acquireDuration.DeletePartialMatch(labels)
	c.queryDuration.DeletePartialMatch(labels)
	c.transactionsTotal.DeletePartialMatch(labels)
	c.transactionDuration.DeletePartialMatch(labels)
	c.stmtCacheHits.DeletePartialMatch(labels)
	c.stmtCacheMisses.DeletePartialMatch(labels)
	c.stmtCacheEvictions.DeletePartialMatch(labels)
	c.healthCheckDuration.DeletePartialMatch(labels)
	c.healthCheckErrors.DeletePartialMatch(labels)
}
