package querydriver

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoOpAlwaysEmpty(t *testing.T) {
	d := NewNoOp()
	rows, err := d.Execute(context.Background(), QueryDTO{Statement: "SELECT * FROM t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty rows, got %d", len(rows))
	}
}

func TestMemoryInsertThenSelect(t *testing.T) {
	d := NewMemory(func(string) string { return "table0" })

	_, err := d.Execute(context.Background(), QueryDTO{
		Statement: "INSERT INTO ks.table0 (pk0, col0) VALUES (?, ?)",
		Values:    []any{int64(1), "a"},
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	rows, err := d.Execute(context.Background(), QueryDTO{
		Statement: "SELECT pk0, col0 FROM ks.table0 WHERE pk0 = ?",
		Values:    []any{int64(1)},
	})
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
}

func TestMemoryFailWith(t *testing.T) {
	d := NewMemory(nil)
	sentinel := errors.New("boom")
	d.FailWith(sentinel)

	_, err := d.Execute(context.Background(), QueryDTO{Statement: "SELECT 1"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var qe *Error
	if !errors.As(err, &qe) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel error")
	}
}

func TestSubprocessDelegatesAndTearsDown(t *testing.T) {
	inner := NewMemory(nil)
	s := NewSubprocess(inner, 10*time.Millisecond)

	_, err := s.Execute(context.Background(), QueryDTO{
		Statement: "INSERT INTO ks.t (pk0) VALUES (?)",
		Values:    []any{int64(1)},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	rows, err := s.Execute(context.Background(), QueryDTO{Statement: "SELECT pk0 FROM ks.t"})
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row via delegated inner driver, got %d", len(rows))
	}

	if err := s.Teardown(); err != nil {
		t.Fatalf("teardown failed: %v", err)
	}
	// Teardown must be idempotent.
	if err := s.Teardown(); err != nil {
		t.Fatalf("second teardown failed: %v", err)
	}
}

func TestSubprocessExecuteAfterTeardown(t *testing.T) {
	s := NewSubprocess(NewMemory(nil), 10*time.Millisecond)
	if err := s.Teardown(); err != nil {
		t.Fatalf("teardown failed: %v", err)
	}

	_, err := s.Execute(context.Background(), QueryDTO{Statement: "SELECT 1"})
	if err == nil {
		t.Fatalf("expected error executing after teardown")
	}
}
