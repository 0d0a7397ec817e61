// Package query implements the lazy INSERT/SELECT/MIXED query generators
// that pair a table and a partition slice with the statement shape spec.md
// requires for each operation kind.
package query

import "github.com/elchinoo/gemini/internal/querydriver"

// Operation tags whether a generated query is a write or a read.
type Operation int

const (
	Write Operation = iota
	Read
)

func (o Operation) String() string {
	if o == Write {
		return "write"
	}
	return "read"
}

// Generator is a lazy infinite pull-source of (Operation, QueryDTO) pairs.
// No backing collection is materialized; state lives in the concrete
// generator's cursors.
type Generator interface {
	Next() (Operation, querydriver.QueryDTO, error)
}

// PartitionTuple is one partition-key value tuple, ordered to match the
// table's partition key column order.
type PartitionTuple []any
