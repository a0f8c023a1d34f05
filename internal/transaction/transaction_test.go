package transaction

import (
	"context"
	"testing"
)

type fakeExec struct {
	statements []string
}

func (f *fakeExec) ExecSQL(ctx context.Context, sql string) error {
	f.statements = append(f.statements, sql)
	return nil
}

func TestTopLevelBeginCommit(t *testing.T) {
	exec := &fakeExec{}
	m := New(exec)
	h, err := m.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.Depth() != 1 {
		t.Fatalf("depth=%d", m.Depth())
	}
	if err := h.Commit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.Depth() != 0 {
		t.Fatalf("depth=%d after commit", m.Depth())
	}
	if exec.statements[0] != "BEGIN" || exec.statements[1] != "COMMIT" {
		t.Fatalf("statements=%v", exec.statements)
	}
}

func TestNestedBeginUsesSavepoint(t *testing.T) {
	exec := &fakeExec{}
	m := New(exec)
	outer, _ := m.Begin(context.Background())
	inner, err := m.Begin(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if exec.statements[1] != "SAVEPOINT _sqlcore_savepoint_2" {
		t.Fatalf("statements=%v", exec.statements)
	}
	if err := inner.Commit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if exec.statements[2] != "RELEASE SAVEPOINT _sqlcore_savepoint_2" {
		t.Fatalf("statements=%v", exec.statements)
	}
	if err := outer.Commit(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestRollbackToSavepoint(t *testing.T) {
	exec := &fakeExec{}
	m := New(exec)
	outer, _ := m.Begin(context.Background())
	inner, _ := m.Begin(context.Background())
	if err := inner.Rollback(context.Background()); err != nil {
		t.Fatal(err)
	}
	if exec.statements[2] != "ROLLBACK TO SAVEPOINT _sqlcore_savepoint_2" {
		t.Fatalf("statements=%v", exec.statements)
	}
	if err := outer.Rollback(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.Depth() != 0 {
		t.Fatalf("depth=%d", m.Depth())
	}
}

func TestCommitOutOfOrderIsRejected(t *testing.T) {
	exec := &fakeExec{}
	m := New(exec)
	outer, _ := m.Begin(context.Background())
	_, _ = m.Begin(context.Background())
	if err := outer.Commit(context.Background()); err == nil {
		t.Fatal("expected error committing a non-innermost scope")
	}
}

func TestRollbackIsIdempotent(t *testing.T) {
	exec := &fakeExec{}
	m := New(exec)
	h, _ := m.Begin(context.Background())
	if err := h.Rollback(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := h.Rollback(context.Background()); err != nil {
		t.Fatal("second Rollback should be a no-op, not an error")
	}
}
