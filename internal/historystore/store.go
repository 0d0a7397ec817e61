// Package historystore implements the per-worker durable index of written
// partition/clustering key tuples, backed by a local embedded SQLite file.
package historystore

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/elchinoo/gemini/internal/querydriver"
	"github.com/elchinoo/gemini/internal/schema"
)

// ErrEmpty is returned by GetRandomRow when the store holds no rows yet.
var ErrEmpty = errors.New("historystore: empty")

// Store is a single worker's local history index, one SQLite file mirroring
// the key columns of every table in the schema.
type Store struct {
	db   *sql.DB
	tx   *sql.Tx
	path string
	rng  *rand.Rand

	mu         sync.Mutex
	rowsCount  map[string]int64
	keyColumns map[string][]schema.ColumnDef
}

// Open creates or reopens the history file at path. When dropSchema is set,
// existing mirror tables are dropped and recreated empty; otherwise any
// prior rows are kept and rows_count is restored from SELECT MAX(id).
// rngSeed seeds the sampling RNG deterministically per worker.
func Open(path string, sch *schema.Schema, dropSchema bool, rngSeed int64) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("historystore: open %s: %w", path, err)
	}

	s := &Store{
		db:         db,
		path:       path,
		rng:        rand.New(rand.NewSource(rngSeed)),
		rowsCount:  make(map[string]int64),
		keyColumns: make(map[string][]schema.ColumnDef),
	}

	if dropSchema {
		if err := s.DropSchema(sch); err != nil {
			db.Close()
			return nil, err
		}
	}

	for _, ddl := range sch.AsSQL() {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("historystore: create mirror table: %w", err)
		}
	}

	for _, t := range sch.Tables {
		keyCols := append(append([]schema.ColumnDef{}, t.PartitionKeys...), t.ClusteringKeys...)
		s.keyColumns[t.Name] = keyCols

		var maxID sql.NullInt64
		row := db.QueryRow(fmt.Sprintf(`SELECT MAX(id) FROM "%s"`, t.HistoryTableName()))
		if err := row.Scan(&maxID); err != nil {
			db.Close()
			return nil, fmt.Errorf("historystore: restore rows_count for %s: %w", t.Name, err)
		}
		s.rowsCount[t.Name] = maxID.Int64
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("historystore: begin: %w", err)
	}
	s.tx = tx

	return s, nil
}

// Insert takes the first |pk|+|ck| values of dto, prepends a null deletion
// timestamp, and writes the row via INSERT OR REPLACE, keyed on the table's
// partition+clustering columns (see the UNIQUE constraint emitted by
// schema.Schema.AsSQL). Writes are batched inside the store's open
// transaction until Commit.
func (s *Store) Insert(table *schema.Table, dto querydriver.QueryDTO) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyCols, ok := s.keyColumns[table.Name]
	if !ok {
		return fmt.Errorf("historystore: unknown table %q", table.Name)
	}
	k := len(keyCols)
	if len(dto.Values) < k {
		return fmt.Errorf("historystore: insert: dto has %d values, need >= %d", len(dto.Values), k)
	}

	colNames := make([]string, 0, k+2)
	placeholders := make([]string, 0, k+2)
	values := make([]any, 0, k+2)
	colNames = append(colNames, "d_time")
	placeholders = append(placeholders, "?")
	values = append(values, nil)
	for i, c := range keyCols {
		colNames = append(colNames, c.Name)
		placeholders = append(placeholders, "?")
		values = append(values, dto.Values[i])
	}

	stmt := fmt.Sprintf(`INSERT OR REPLACE INTO "%s" (%s) VALUES (%s)`,
		table.HistoryTableName(), strings.Join(colNames, ", "), strings.Join(placeholders, ", "))
	if _, err := s.tx.Exec(stmt, values...); err != nil {
		return fmt.Errorf("historystore: insert: %w", err)
	}
	s.rowsCount[table.Name]++
	return nil
}

// GetRandomRow samples a uniformly random id in [1, rows_count] for table
// and returns its stored key tuple, excluding id and d_time. It is
// undefined (returns ErrEmpty) when the table has no rows yet.
func (s *Store) GetRandomRow(table *schema.Table) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := s.rowsCount[table.Name]
	if count <= 0 {
		return nil, ErrEmpty
	}
	keyCols := s.keyColumns[table.Name]
	names := make([]string, len(keyCols))
	for i, c := range keyCols {
		names[i] = c.Name
	}

	idx := s.rng.Int63n(count) + 1
	query := fmt.Sprintf(`SELECT %s FROM "%s" WHERE id = ?`, strings.Join(names, ", "), table.HistoryTableName())
	row := s.tx.QueryRow(query, idx)

	dest := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// id hole left by a prior INSERT OR REPLACE collision; treat
			// as empty-for-this-draw rather than fatal.
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("historystore: get_random_row: %w", err)
	}
	return dest, nil
}

// Commit flushes pending writes to disk and opens a fresh transaction for
// subsequent inserts.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("historystore: commit: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("historystore: begin after commit: %w", err)
	}
	s.tx = tx
	return nil
}

// DropSchema drops every mirror table named by sch.
func (s *Store) DropSchema(sch *schema.Schema) error {
	for _, t := range sch.Tables {
		if _, err := s.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, t.HistoryTableName())); err != nil {
			return fmt.Errorf("historystore: drop_schema: %w", err)
		}
	}
	return nil
}

// Close commits any pending transaction and closes the underlying file.
func (s *Store) Close() error {
	_ = s.Commit()
	return s.db.Close()
}
