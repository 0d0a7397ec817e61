// Package querydriver defines the abstract synchronous execution contract
// the rest of the engine programs against, plus the concrete driver
// variants: real (gocql-backed), no-op, in-memory, and subprocess-isolated.
package querydriver

import (
	"context"
	"fmt"
)

// QueryDTO is a prepared-statement text paired with its ordered bind values.
type QueryDTO struct {
	Statement string
	Values    []any
}

func (q QueryDTO) String() string {
	return fmt.Sprintf("%s %v", q.Statement, q.Values)
}

// Row is an ordered column-name to value mapping, in driver-returned order.
type Row struct {
	Columns []string
	Values  []any
}

// Error categorizes any failure surfaced by a QueryDriver so the worker can
// apply its retry policy uniformly regardless of underlying cause.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("query driver: %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// QueryDriver is the synchronous execution contract every concrete variant
// implements. Execute never returns a nil slice for a statement with no
// result rows — it returns an empty, non-nil slice.
type QueryDriver interface {
	// Prepare is an optional warm-up; drivers for which preparation is a
	// no-op may implement it as such.
	Prepare(ctx context.Context, statement string) error
	// Execute runs dto and returns its result rows, or a *Error on failure.
	Execute(ctx context.Context, dto QueryDTO) ([]Row, error)
	// Teardown releases held connections/resources. Idempotent.
	Teardown() error
}
