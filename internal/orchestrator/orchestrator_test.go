package orchestrator

import (
	"testing"

	"github.com/elchinoo/gemini/internal/columns"
	"github.com/elchinoo/gemini/internal/config"
	"github.com/elchinoo/gemini/internal/query"
	"github.com/elchinoo/gemini/internal/schema"
)

func fixtureSchema() *schema.Schema {
	return &schema.Schema{
		Name: "gemini",
		Tables: []*schema.Table{
			{
				Name:          "table0",
				KeyspaceName:  "gemini",
				PartitionKeys: []schema.ColumnDef{{Name: "pk0", Kind: columns.KindBigInt}},
			},
		},
	}
}

func TestGeneratePartitionsIsDeterministic(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = 42
	cfg.TokenRangeSlices = 16

	sch := fixtureSchema()
	a := generatePartitions(sch, cfg)
	b := generatePartitions(sch, cfg)

	if len(a["table0"]) != 16 || len(b["table0"]) != 16 {
		t.Fatalf("expected 16 partition tuples, got %d and %d", len(a["table0"]), len(b["table0"]))
	}
	for i := range a["table0"] {
		if a["table0"][i][0] != b["table0"][i][0] {
			t.Fatalf("same seed must reproduce the same partition tuples at index %d", i)
		}
	}
}

func TestSlicePartitionsForWorkerIsExhaustiveAndDisjoint(t *testing.T) {
	all := map[string][]query.PartitionTuple{
		"table0": {{1}, {2}, {3}, {4}, {5}, {6}},
	}

	const concurrency = 3
	seen := map[int]bool{}
	for w := 0; w < concurrency; w++ {
		for _, tuple := range slicePartitionsForWorker(all, w, concurrency)["table0"] {
			v := tuple[0].(int)
			if seen[v] {
				t.Fatalf("value %d assigned to more than one worker", v)
			}
			seen[v] = true
		}
	}
	for v := 1; v <= 6; v++ {
		if !seen[v] {
			t.Fatalf("value %d was never assigned to any worker", v)
		}
	}
}
