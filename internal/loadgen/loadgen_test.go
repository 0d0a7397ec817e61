package loadgen

import (
	"testing"

	"github.com/elchinoo/gemini/internal/columns"
	"github.com/elchinoo/gemini/internal/query"
	"github.com/elchinoo/gemini/internal/schema"
)

func twoTableSchema(t *testing.T) *schema.Schema {
	t.Helper()
	cfg := schema.GenerateConfig{
		Seed: 1, MaxTables: 2,
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

func TestRoundRobinFairness(t *testing.T) {
	s := twoTableSchema(t)
	partitions := []query.PartitionTuple{{int64(1)}}

	var gens []query.Generator
	for _, table := range s.Tables {
		g, err := BuildTableGenerator(ModeWrite, table, partitions, nil, 1, nil)
		if err != nil {
			t.Fatalf("build generator: %v", err)
		}
		gens = append(gens, g)
	}
	lg, err := New(gens)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	hits := map[string]int{}
	for i := 0; i < 4; i++ {
		_, dto, err := lg.GetQuery()
		if err != nil {
			t.Fatalf("get_query: %v", err)
		}
		hits[dto.Statement]++
	}
	if len(hits) != 2 || hits["INSERT INTO gemini.table0 (pk0, ck0, col0) VALUES (?,?,?)"] != 2 || hits["INSERT INTO gemini.table1 (pk0, ck0, col0) VALUES (?,?,?)"] != 2 {
		t.Fatalf("expected equal hits across 2 generators over 4 calls, got %v", hits)
	}
}

func TestNewRejectsEmptyGeneratorList(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for empty generator list")
	}
}
