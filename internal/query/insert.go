package query

import (
	"fmt"
	"strings"

	"github.com/elchinoo/gemini/internal/columns"
	"github.com/elchinoo/gemini/internal/querydriver"
	"github.com/elchinoo/gemini/internal/schema"
)

// InsertQueryGenerator emits INSERT INTO ks.table (all_columns) VALUES (...)
// statements, cycling through partitions and drawing fresh random values for
// every clustering key and regular column on each step.
type InsertQueryGenerator struct {
	table      *schema.Table
	partitions []PartitionTuple
	idx        int
	valueCols  []columns.Column
	statement  string
}

// NewInsertQueryGenerator builds a generator over table using the seed to
// derive each value column's deterministic RNG.
func NewInsertQueryGenerator(table *schema.Table, partitions []PartitionTuple, seed int64) *InsertQueryGenerator {
	var valueCols []columns.Column
	for _, c := range table.ClusteringKeys {
		valueCols = append(valueCols, columns.New(c.Kind, seed, c.Name))
	}
	for _, c := range table.Columns {
		valueCols = append(valueCols, columns.New(c.Kind, seed, c.Name))
	}
	return &InsertQueryGenerator{
		table:      table,
		partitions: partitions,
		valueCols:  valueCols,
		statement:  insertStatement(table),
	}
}

func insertStatement(table *schema.Table) string {
	names := columnNames(table.AllColumns())
	placeholders := make([]string, len(names))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s.%s (%s) VALUES (%s)",
		table.KeyspaceName, table.Name, strings.Join(names, ", "), strings.Join(placeholders, ","))
}

// Next cycles the next partition tuple and appends fresh random values for
// every clustering key and regular column.
func (g *InsertQueryGenerator) Next() (Operation, querydriver.QueryDTO, error) {
	if len(g.partitions) == 0 {
		return Write, querydriver.QueryDTO{}, fmt.Errorf("query: insert generator has no partitions for table %s", g.table.Name)
	}
	pk := g.partitions[g.idx%len(g.partitions)]
	g.idx++

	values := make([]any, 0, len(pk)+len(g.valueCols))
	values = append(values, pk...)
	for _, c := range g.valueCols {
		values = append(values, c.GenerateRandomValue())
	}
	return Write, querydriver.QueryDTO{Statement: g.statement, Values: values}, nil
}

func columnNames(defs []schema.ColumnDef) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}
