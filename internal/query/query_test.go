package query

import (
	"testing"

	"github.com/elchinoo/gemini/internal/columns"
	"github.com/elchinoo/gemini/internal/historystore"
	"github.com/elchinoo/gemini/internal/schema"
)

func simpleTable(t *testing.T, npk int) *schema.Table {
	t.Helper()
	cfg := schema.GenerateConfig{
		Seed: 1234, MaxTables: 1,
		MinPartitionKeys: npk, MaxPartitionKeys: npk,
		MinClusteringKeys: 1, MaxClusteringKeys: 1,
		MinColumns: 1, MaxColumns: 1,
	}
	allBigint := []columns.Kind{columns.KindBigInt}
	s, err := schema.GenerateSchema(cfg, allBigint, allBigint, allBigint)
	if err != nil {
		t.Fatalf("generate schema: %v", err)
	}
	return s.Tables[0]
}

func TestInsertQueryGeneratorStatementShape(t *testing.T) {
	table := simpleTable(t, 1)
	gen := NewInsertQueryGenerator(table, []PartitionTuple{{int64(1)}, {int64(2)}}, 1234)

	op, dto, err := gen.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op != Write {
		t.Fatalf("expected Write operation, got %v", op)
	}
	wantStatement := "INSERT INTO gemini.table0 (pk0, ck0, col0) VALUES (?,?,?)"
	if dto.Statement != wantStatement {
		t.Fatalf("statement mismatch:\ngot:  %s\nwant: %s", dto.Statement, wantStatement)
	}
	if len(dto.Values) != 3 || dto.Values[0] != int64(1) {
		t.Fatalf("unexpected values: %v", dto.Values)
	}

	_, dto2, _ := gen.Next()
	if dto2.Values[0] != int64(2) {
		t.Fatalf("expected second call to cycle to partition 2, got %v", dto2.Values[0])
	}
}

func TestInsertQueryGeneratorCompositePartitionKey(t *testing.T) {
	table := simpleTable(t, 2)
	gen := NewInsertQueryGenerator(table, []PartitionTuple{{int64(1), int64(2)}}, 1234)

	_, dto, err := gen.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStatement := "INSERT INTO gemini.table0 (pk0, pk1, ck0, col0) VALUES (?,?,?,?)"
	if dto.Statement != wantStatement {
		t.Fatalf("statement mismatch:\ngot:  %s\nwant: %s", dto.Statement, wantStatement)
	}
	if dto.Values[0] != int64(1) || dto.Values[1] != int64(2) {
		t.Fatalf("unexpected partition values: %v", dto.Values)
	}
}

type fakeHistory struct {
	row []any
	err error
}

func (f *fakeHistory) GetRandomRow(table *schema.Table) ([]any, error) { return f.row, f.err }

func TestSelectQueryGeneratorBindsFullKey(t *testing.T) {
	table := simpleTable(t, 1)
	hist := &fakeHistory{row: []any{int64(1), int64(97)}}
	gen := NewSelectQueryGenerator(table, nil, hist, nil)

	op, dto, err := gen.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op != Read {
		t.Fatalf("expected Read operation, got %v", op)
	}
	want := "SELECT pk0, ck0, col0 FROM gemini.table0 WHERE pk0=? AND ck0=?"
	if dto.Statement != want {
		t.Fatalf("statement mismatch:\ngot:  %s\nwant: %s", dto.Statement, want)
	}
	if dto.Values[0] != int64(1) || dto.Values[1] != int64(97) {
		t.Fatalf("unexpected bound values: %v", dto.Values)
	}
}

func TestSelectQueryGeneratorFallsBackOnEmptyHistory(t *testing.T) {
	table := simpleTable(t, 1)
	hist := &fakeHistory{err: historystore.ErrEmpty}

	fallbackCalls := 0
	gen := NewSelectQueryGenerator(table, []PartitionTuple{{int64(1)}}, hist, func() { fallbackCalls++ })

	op, dto, err := gen.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op != Read {
		t.Fatalf("expected Read operation, got %v", op)
	}
	if dto.Statement != "SELECT pk0, ck0, col0 FROM gemini.table0 WHERE pk0=?" {
		t.Fatalf("unexpected fallback statement: %s", dto.Statement)
	}

	// Calling again while still empty must not invoke onFallback twice.
	_, _, _ = gen.Next()
	if fallbackCalls != 1 {
		t.Fatalf("expected onFallback called exactly once, got %d", fallbackCalls)
	}
}

func TestMixedGeneratorAlternatesWriteRead(t *testing.T) {
	table := simpleTable(t, 1)
	insertGen := NewInsertQueryGenerator(table, []PartitionTuple{{int64(1)}}, 1234)
	hist := &fakeHistory{row: []any{int64(1), int64(2)}}
	selectGen := NewSelectQueryGenerator(table, nil, hist, nil)
	mixed := NewMixedQueryGenerator(insertGen, selectGen)

	for step := 0; step < 4; step++ {
		op, _, err := mixed.Next()
		if err != nil {
			t.Fatalf("unexpected error at step %d: %v", step, err)
		}
		wantWrite := step%2 == 0
		if (op == Write) != wantWrite {
			t.Fatalf("step %d: expected write=%v, got op=%v", step, wantWrite, op)
		}
	}
}
