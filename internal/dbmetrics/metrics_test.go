package dbmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUpdatePoolStats(t *testing.T) {
	c := New()
	c.UpdatePoolStats("postgres", "db.internal:5432/orders", 3, 2, 5, 1)

	if got := testutil.ToFloat64(c.connectionsActive.WithLabelValues("postgres", "db.internal:5432/orders")); got != 3 {
		t.Fatalf("expected active=3, got %v", got)
	}
	if got := testutil.ToFloat64(c.connectionsIdle.WithLabelValues("postgres", "db.internal:5432/orders")); got != 2 {
		t.Fatalf("expected idle=2, got %v", got)
	}
	if got := testutil.ToFloat64(c.connectionsWaiting.WithLabelValues("postgres", "db.internal:5432/orders")); got != 1 {
		t.Fatalf("expected waiting=1, got %v", got)
	}
}

func TestPoolExhaustedIncrements(t *testing.T) {
	c := New()
	c.PoolExhausted("mysql", "db:3306/catalog")
	c.PoolExhausted("mysql", "db:3306/catalog")

	if got := testutil.ToFloat64(c.poolExhausted.WithLabelValues("mysql", "db:3306/catalog")); got != 2 {
		t.Fatalf("expected 2 exhaustion events, got %v", got)
	}
}

func TestStatementCacheCounters(t *testing.T) {
	c := New()
	c.StatementCacheHit("sqlite", ":memory:")
	c.StatementCacheHit("sqlite", ":memory:")
	c.StatementCacheMiss("sqlite", ":memory:")
	c.StatementCacheEviction("sqlite", ":memory:")

	if got := testutil.ToFloat64(c.stmtCacheHits.WithLabelValues("sqlite", ":memory:")); got != 2 {
		t.Fatalf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(c.stmtCacheMisses.WithLabelValues("sqlite", ":memory:")); got != 1 {
		t.Fatalf("expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(c.stmtCacheEvictions.WithLabelValues("sqlite", ":memory:")); got != 1 {
		t.Fatalf("expected 1 eviction, got %v", got)
	}
}

func TestTransactionCompletedRecordsOutcome(t *testing.T) {
	c := New()
	c.TransactionCompleted("postgres", "db/orders", "committed", 10*time.Millisecond)
	c.TransactionCompleted("postgres", "db/orders", "rolled_back", 5*time.Millisecond)

	if got := testutil.ToFloat64(c.transactionsTotal.WithLabelValues("postgres", "db/orders", "committed")); got != 1 {
		t.Fatalf("expected 1 committed transaction, got %v", got)
	}
	if got := testutil.ToFloat64(c.transactionsTotal.WithLabelValues("postgres", "db/orders", "rolled_back")); got != 1 {
		t.Fatalf("expected 1 rolled-back transaction, got %v", got)
	}
}

func TestHealthCheckCompletedRecordsStatus(t *testing.T) {
	c := New()
	c.HealthCheckCompleted("mysql", "db/catalog", 2*time.Millisecond, true)
	c.HealthCheckError("mysql", "db/catalog", "io")

	if got := testutil.ToFloat64(c.healthCheckErrors.WithLabelValues("mysql", "db/catalog", "io")); got != 1 {
		t.Fatalf("expected 1 health check error, got %v", got)
	}
}

func TestRemovePoolDeletesSeries(t *testing.T) {
	c := New()
	c.UpdatePoolStats("postgres", "db/orders", 1, 1, 2, 0)
	c.PoolExhausted("postgres", "db/orders")

	c.RemovePool("postgres", "db/orders")

	if got := testutil.ToFloat64(c.connectionsActive.WithLabelValues("postgres", "db/orders")); got != 0 {
		t.Fatalf("expected series removed (reads as 0), got %v", got)
	}
}
