package querydriver

import (
	"context"
	"strings"
	"sync"
)

// Memory is a test-only driver keyed by statement prefix: rows inserted via
// an "insert" statement become visible to a later "select" statement that
// targets the same table, making it usable as a cheap oracle double in
// tests that don't need a real cluster.
type Memory struct {
	mu    sync.Mutex
	rows  map[string][]Row // table name -> stored rows
	err   error            // when set, Execute always fails with this error
	table func(statement string) string
}

// NewMemory builds an empty in-memory driver. tableOf extracts the table
// name a statement targets; callers that don't need table isolation may
// pass a function that always returns the same key.
func NewMemory(tableOf func(statement string) string) *Memory {
	if tableOf == nil {
		tableOf = func(string) string { return "default" }
	}
	return &Memory{rows: make(map[string][]Row), table: tableOf}
}

// FailWith makes every subsequent Execute call return err.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) Prepare(ctx context.Context, statement string) error { return nil }

func (m *Memory) Execute(ctx context.Context, dto QueryDTO) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, &Error{Op: "execute", Err: m.err}
	}

	table := m.table(dto.Statement)
	kind := statementKind(dto.Statement)
	switch kind {
	case "insert":
		m.rows[table] = append(m.rows[table], Row{Columns: nil, Values: append([]any{}, dto.Values...)})
		return []Row{}, nil
	case "select":
		return append([]Row{}, m.rows[table]...), nil
	default:
		return []Row{}, nil
	}
}

func (m *Memory) Teardown() error { return nil }

func statementKind(statement string) string {
	s := strings.ToLower(strings.TrimSpace(statement))
	switch {
	case strings.HasPrefix(s, "insert"):
		return "insert"
	case strings.HasPrefix(s, "select"):
		return "select"
	default:
		return "other"
	}
}
