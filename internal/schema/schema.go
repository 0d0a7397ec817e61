// Package schema models generated tables and keyspaces: random schema
// construction, CQL DDL for the SUT/oracle clusters, and the parallel SQL
// DDL mirrored into each worker's local history store.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/elchinoo/gemini/internal/columns"
	"github.com/elchinoo/gemini/internal/querydriver"
)

// ColumnDef names one column position and the column kind (type) chosen for
// it at schema-generation time; it is not itself a value generator — the
// worker builds one columns.Column per ColumnDef, seeded by the run's seed.
type ColumnDef struct {
	Name string        `json:"name"`
	Kind columns.Kind  `json:"kind"`
}

// Table is an immutable generated table definition.
type Table struct {
	Name           string      `json:"name"`
	KeyspaceName   string      `json:"keyspace_name"`
	PartitionKeys  []ColumnDef `json:"partition_keys"`
	ClusteringKeys []ColumnDef `json:"clustering_keys"`
	Columns        []ColumnDef `json:"columns"`
}

// AllColumns is the concatenation of partition keys, clustering keys, and
// regular columns, in that order.
func (t *Table) AllColumns() []ColumnDef {
	all := make([]ColumnDef, 0, len(t.PartitionKeys)+len(t.ClusteringKeys)+len(t.Columns))
	all = append(all, t.PartitionKeys...)
	all = append(all, t.ClusteringKeys...)
	all = append(all, t.Columns...)
	return all
}

// HistoryTableName is the table's name inside the local per-worker history
// store; it mirrors the SUT table name since each store holds one SQLite
// file per worker rather than per keyspace.
func (t *Table) HistoryTableName() string { return t.Name }

// Schema is a named collection of generated tables.
type Schema struct {
	Name   string   `json:"name"`
	Tables []*Table `json:"tables"`
}

// GenerateConfig bounds the random shape of a generated schema.
type GenerateConfig struct {
	Seed                  int64
	MaxTables             int
	MinPartitionKeys      int
	MaxPartitionKeys      int
	MinClusteringKeys     int
	MaxClusteringKeys     int
	MinColumns            int
	MaxColumns            int
}

// GenerateSchema builds a schema named "gemini" with cfg.MaxTables tables,
// drawing per-table shape counts and column type choices from a single RNG
// seeded by cfg.Seed so that two runs with the same seed produce byte-
// identical DDL.
func GenerateSchema(cfg GenerateConfig, pkTypes, ckTypes, cTypes []columns.Kind) (*Schema, error) {
	if cfg.MaxTables < 1 {
		return nil, fmt.Errorf("schema: max_tables must be >= 1, got %d", cfg.MaxTables)
	}
	if len(pkTypes) == 0 || len(ckTypes) == 0 || len(cTypes) == 0 {
		return nil, fmt.Errorf("schema: pk/ck/column type lists must be non-empty")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	s := &Schema{Name: "gemini"}

	for ti := 0; ti < cfg.MaxTables; ti++ {
		np := intnRange(rng, cfg.MinPartitionKeys, cfg.MaxPartitionKeys)
		if np < 1 {
			np = 1
		}
		nc := intnRange(rng, cfg.MinClusteringKeys, cfg.MaxClusteringKeys)
		ncol := intnRange(rng, cfg.MinColumns, cfg.MaxColumns)
		if ncol < 1 {
			ncol = 1
		}

		table := &Table{
			Name:         fmt.Sprintf("table%d", ti),
			KeyspaceName: s.Name,
		}
		for i := 0; i < np; i++ {
			kind := pkTypes[rng.Intn(len(pkTypes))]
			table.PartitionKeys = append(table.PartitionKeys, ColumnDef{Name: fmt.Sprintf("pk%d", i), Kind: kind})
		}
		for i := 0; i < nc; i++ {
			kind := ckTypes[rng.Intn(len(ckTypes))]
			table.ClusteringKeys = append(table.ClusteringKeys, ColumnDef{Name: fmt.Sprintf("ck%d", i), Kind: kind})
		}
		for i := 0; i < ncol; i++ {
			kind := cTypes[rng.Intn(len(cTypes))]
			table.Columns = append(table.Columns, ColumnDef{Name: fmt.Sprintf("col%d", i), Kind: kind})
		}
		s.Tables = append(s.Tables, table)
	}
	return s, nil
}

func intnRange(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}

// AsQueries renders the CQL DDL for the SUT/oracle keyspace and its tables.
func (s *Schema) AsQueries(repl ReplicationStrategy) []string {
	queries := make([]string, 0, len(s.Tables)+1)
	queries = append(queries, fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s with replication = %s", s.Name, repl.CQL()))
	for _, t := range s.Tables {
		queries = append(queries, t.createTableCQL())
	}
	return queries
}

func (t *Table) createTableCQL() string {
	all := t.AllColumns()
	colDefs := make([]string, 0, len(all))
	for _, c := range all {
		colDefs = append(colDefs, fmt.Sprintf("%s %s", c.Name, columns.CQLType(c.Kind)))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (%s, PRIMARY KEY (%s))",
		t.KeyspaceName, t.Name, strings.Join(colDefs, ", "), t.primaryKeyCQL())
}

func (t *Table) primaryKeyCQL() string {
	pkNames := namesOf(t.PartitionKeys)
	var p string
	if len(pkNames) > 1 {
		p = "(" + strings.Join(pkNames, ", ") + ")"
	} else {
		p = pkNames[0]
	}
	parts := append([]string{p}, namesOf(t.ClusteringKeys)...)
	return strings.Join(parts, ", ")
}

func namesOf(defs []ColumnDef) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// AsSQL renders the local history-store DDL: one table per SUT table,
// holding only the key columns plus the synthetic id and deletion
// timestamp. Regular columns are never mirrored.
func (s *Schema) AsSQL() []string {
	queries := make([]string, 0, len(s.Tables))
	for _, t := range s.Tables {
		keyCols := append(append([]ColumnDef{}, t.PartitionKeys...), t.ClusteringKeys...)
		colDefs := make([]string, 0, len(keyCols)+3)
		colDefs = append(colDefs, "id INTEGER PRIMARY KEY AUTOINCREMENT", "d_time INTEGER")
		for _, c := range keyCols {
			colDefs = append(colDefs, fmt.Sprintf("%s %s", c.Name, columns.SQLType(c.Kind)))
		}
		colDefs = append(colDefs, fmt.Sprintf("UNIQUE(%s)", strings.Join(namesOf(keyCols), ", ")))
		queries = append(queries, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (%s)`,
			t.HistoryTableName(), strings.Join(colDefs, ", ")))
	}
	return queries
}

// Create executes the CQL DDL serially against driver.
func (s *Schema) Create(ctx context.Context, driver querydriver.QueryDriver, repl ReplicationStrategy) error {
	for _, q := range s.AsQueries(repl) {
		if _, err := driver.Execute(ctx, querydriver.QueryDTO{Statement: q}); err != nil {
			return fmt.Errorf("schema: create: %w", err)
		}
	}
	return nil
}

// Drop drops the schema's keyspace.
func (s *Schema) Drop(ctx context.Context, driver querydriver.QueryDriver) error {
	_, err := driver.Execute(ctx, querydriver.QueryDTO{
		Statement: fmt.Sprintf("DROP KEYSPACE IF EXISTS %s", s.Name),
	})
	if err != nil {
		return fmt.Errorf("schema: drop: %w", err)
	}
	return nil
}

// MarshalSchema renders s as JSON for the --schema-file round trip.
func MarshalSchema(s *Schema) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// LoadSchema reads a schema previously written by MarshalSchema, letting a
// run reproduce a failure against a frozen schema instead of generating a
// fresh one.
func LoadSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: load: %w", err)
	}
	if s.Name == "" || len(s.Tables) == 0 {
		return nil, fmt.Errorf("schema: load: empty schema")
	}
	return &s, nil
}
