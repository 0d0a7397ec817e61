package historystore

import (
	"path/filepath"
	"testing"

	"github.com/elchinoo/gemini/internal/columns"
	"github.com/elchinoo/gemini/internal/querydriver"
	"github.com/elchinoo/gemini/internal/schema"
)

func simpleSchema(t *testing.T) *schema.Schema {
	t.Helper()
	cfg := schema.GenerateConfig{
		Seed: 1234, MaxTables: 1,
		MinPartitionKeys: 1, MaxPartitionKeys: 1,
		MinClusteringKeys: 1, MaxClusteringKeys: 1,
		MinColumns: 1, MaxColumns: 1,
	}
	allBigint := []columns.Kind{columns.KindBigInt}
	s, err := schema.GenerateSchema(cfg, allBigint, allBigint, allBigint)
	if err != nil {
		t.Fatalf("generate schema: %v", err)
	}
	return s
}

func TestInsertThenGetRandomRow(t *testing.T) {
	sch := simpleSchema(t)
	path := filepath.Join(t.TempDir(), "worker0.db")

	store, err := Open(path, sch, true, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	table := sch.Tables[0]
	_, err = store.GetRandomRow(table)
	if err != ErrEmpty {
		t.Fatalf("expected ErrEmpty before any insert, got %v", err)
	}

	err = store.Insert(table, querydriver.QueryDTO{Values: []any{int64(1), int64(97), int64(67)}})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	row, err := store.GetRandomRow(table)
	if err != nil {
		t.Fatalf("get_random_row: %v", err)
	}
	if len(row) != 2 {
		t.Fatalf("expected 2 key values (pk0, ck0), got %d", len(row))
	}
}

func TestInsertOrReplaceSupersedesOldKey(t *testing.T) {
	sch := simpleSchema(t)
	path := filepath.Join(t.TempDir(), "worker0.db")

	store, err := Open(path, sch, true, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	table := sch.Tables[0]
	if err := store.Insert(table, querydriver.QueryDTO{Values: []any{int64(1), int64(1), int64(1)}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// Same (pk0, ck0) key, different value: must replace, not duplicate.
	if err := store.Insert(table, querydriver.QueryDTO{Values: []any{int64(1), int64(1), int64(2)}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var count int
	row := store.db.QueryRow(`SELECT COUNT(*) FROM "` + table.HistoryTableName() + `"`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 row after replace, got %d", count)
	}
}

func TestReopenWithoutDropRestoresRowsCount(t *testing.T) {
	sch := simpleSchema(t)
	path := filepath.Join(t.TempDir(), "worker0.db")

	store, err := Open(path, sch, true, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	table := sch.Tables[0]
	if err := store.Insert(table, querydriver.QueryDTO{Values: []any{int64(1), int64(2), int64(3)}}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path, sch, false, 1)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if reopened.rowsCount[table.Name] != 1 {
		t.Fatalf("expected restored rows_count 1, got %d", reopened.rowsCount[table.Name])
	}
}
