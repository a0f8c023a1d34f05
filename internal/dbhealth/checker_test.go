package dbhealth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestIsHealthyBeforeAnyProbe(t *testing.T) {
	c := NewChecker(time.Hour, 3, time.Second, nil)
	if !c.IsHealthy("unregistered") {
		t.Fatal("expected an unregistered target to be treated as healthy (fail-open)")
	}
}

func TestCheckAllMarksHealthyOnSuccess(t *testing.T) {
	c := NewChecker(time.Hour, 1, time.Second, nil)
	c.Register("orders", "postgres", "db/orders", func(ctx context.Context) error { return nil })

	c.checkAll()

	if !c.IsHealthy("orders") {
		t.Fatal("expected orders to be healthy after a successful probe")
	}
	st := c.GetStatus("orders")
	if st.Status != StatusHealthy || st.ConsecutiveFailures != 0 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestCheckAllRequiresConsecutiveFailuresBeforeUnhealthy(t *testing.T) {
	c := NewChecker(time.Hour, 3, time.Second, nil)
	failing := errors.New("connection refused")
	c.Register("catalog", "mysql", "db/catalog", func(ctx context.Context) error { return failing })

	c.checkAll()
	if !c.IsHealthy("catalog") {
		t.Fatal("expected still healthy after 1 of 3 failures")
	}
	c.checkAll()
	if !c.IsHealthy("catalog") {
		t.Fatal("expected still healthy after 2 of 3 failures")
	}
	c.checkAll()
	if c.IsHealthy("catalog") {
		t.Fatal("expected unhealthy after 3 consecutive failures")
	}

	st := c.GetStatus("catalog")
	if st.LastError != failing.Error() {
		t.Fatalf("expected last error recorded, got %q", st.LastError)
	}
}

func TestCheckAllRecoversAfterSuccess(t *testing.T) {
	c := NewChecker(time.Hour, 1, time.Second, nil)
	var fail atomic.Bool
	fail.Store(true)
	c.Register("orders", "postgres", "db/orders", func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("down")
		}
		return nil
	})

	c.checkAll()
	if c.IsHealthy("orders") {
		t.Fatal("expected unhealthy while failing")
	}

	fail.Store(false)
	c.checkAll()
	if !c.IsHealthy("orders") {
		t.Fatal("expected healthy after recovery")
	}
	if st := c.GetStatus("orders"); st.ConsecutiveFailures != 0 {
		t.Fatalf("expected consecutive failures reset to 0, got %d", st.ConsecutiveFailures)
	}
}

func TestOverallHealthyReflectsWorstTarget(t *testing.T) {
	c := NewChecker(time.Hour, 1, time.Second, nil)
	c.Register("ok", "postgres", "db/ok", func(ctx context.Context) error { return nil })
	c.Register("bad", "mysql", "db/bad", func(ctx context.Context) error { return errors.New("down") })

	c.checkAll()

	if c.OverallHealthy() {
		t.Fatal("expected OverallHealthy to be false when any target is unhealthy")
	}
}

func TestDeregisterRemovesHealthState(t *testing.T) {
	c := NewChecker(time.Hour, 1, time.Second, nil)
	c.Register("orders", "postgres", "db/orders", func(ctx context.Context) error { return nil })
	c.checkAll()

	c.Deregister("orders")

	if st := c.GetStatus("orders"); st.Status != StatusUnknown {
		t.Fatalf("expected status reset to unknown after deregister, got %+v", st)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	c := NewChecker(10*time.Millisecond, 1, time.Second, nil)
	var calls atomic.Int32
	c.Register("orders", "postgres", "db/orders", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	c.Start()
	time.Sleep(50 * time.Millisecond)
	c.Stop()

	if calls.Load() == 0 {
		t.Fatal("expected at least one probe to have run")
	}
}
