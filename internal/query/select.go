package query

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/elchinoo/gemini/internal/historystore"
	"github.com/elchinoo/gemini/internal/querydriver"
	"github.com/elchinoo/gemini/internal/schema"
)

// HistorySource is the subset of historystore.Store a SELECT generator
// needs; defined here so tests can supply a fake without a real SQLite file.
type HistorySource interface {
	GetRandomRow(table *schema.Table) ([]any, error)
}

// SelectQueryGenerator emits SELECT statements binding the full primary key
// (all partition and clustering columns), drawn from the worker's history
// store. Per the resolved "empty history on READ" open question, when the
// store holds no rows yet it falls back to a partition-tuple-only SELECT
// (omitting clustering-key predicates) so read-mode runs remain usable
// against a freshly created history file.
type SelectQueryGenerator struct {
	table      *schema.Table
	partitions []PartitionTuple
	idx        int
	history    HistorySource

	fullStatement        string
	partitionOnlyStatement string

	fallbackOnce sync.Once
	onFallback   func()
}

// NewSelectQueryGenerator builds a SELECT generator over table. onFallback,
// if non-nil, is invoked exactly once the first time the generator falls
// back to partition-tuple-only binding.
func NewSelectQueryGenerator(table *schema.Table, partitions []PartitionTuple, history HistorySource, onFallback func()) *SelectQueryGenerator {
	return &SelectQueryGenerator{
		table:                  table,
		partitions:             partitions,
		history:                history,
		fullStatement:          selectStatement(table, append(append([]schema.ColumnDef{}, table.PartitionKeys...), table.ClusteringKeys...)),
		partitionOnlyStatement: selectStatement(table, table.PartitionKeys),
		onFallback:             onFallback,
	}
}

func selectStatement(table *schema.Table, whereCols []schema.ColumnDef) string {
	allNames := columnNames(table.AllColumns())
	predicates := make([]string, len(whereCols))
	for i, c := range whereCols {
		predicates[i] = fmt.Sprintf("%s=?", c.Name)
	}
	return fmt.Sprintf("SELECT %s FROM %s.%s WHERE %s",
		strings.Join(allNames, ", "), table.KeyspaceName, table.Name, strings.Join(predicates, " AND "))
}

// Next draws a full key tuple from the history store, or falls back to the
// cycling partitions when the store is empty.
func (g *SelectQueryGenerator) Next() (Operation, querydriver.QueryDTO, error) {
	keyTuple, err := g.history.GetRandomRow(g.table)
	if err == nil {
		return Read, querydriver.QueryDTO{Statement: g.fullStatement, Values: keyTuple}, nil
	}
	if !errors.Is(err, historystore.ErrEmpty) {
		return Read, querydriver.QueryDTO{}, fmt.Errorf("query: select generator: %w", err)
	}

	g.fallbackOnce.Do(func() {
		if g.onFallback != nil {
			g.onFallback()
		}
	})

	if len(g.partitions) == 0 {
		return Read, querydriver.QueryDTO{}, fmt.Errorf("query: select generator has no partitions for table %s", g.table.Name)
	}
	pk := g.partitions[g.idx%len(g.partitions)]
	g.idx++
	return Read, querydriver.QueryDTO{Statement: g.partitionOnlyStatement, Values: append([]any{}, pk...)}, nil
}
