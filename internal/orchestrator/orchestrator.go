// Package orchestrator drives one full run: schema generation (or reuse),
// DDL against the SUT/oracle clusters, partition-space slicing, worker
// fan-out, and result aggregation, following the teacher's
// context-with-timeout-plus-signal-channel shutdown pattern.
package orchestrator

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/elchinoo/gemini/internal/columns"
	"github.com/elchinoo/gemini/internal/config"
	"github.com/elchinoo/gemini/internal/logging"
	"github.com/elchinoo/gemini/internal/query"
	"github.com/elchinoo/gemini/internal/querydriver"
	"github.com/elchinoo/gemini/internal/results"
	"github.com/elchinoo/gemini/internal/schema"
	"github.com/elchinoo/gemini/internal/worker"
)

// Outcome is everything the CLI layer needs to decide its exit code and
// final report.
type Outcome struct {
	Result      results.ProcessResult
	Interrupted bool
	Schema      *schema.Schema
}

// Orchestrator owns one run end to end.
type Orchestrator struct {
	Cfg    config.Config
	Logger logging.GeminiLogger
}

// New builds an orchestrator for cfg.
func New(cfg config.Config, logger logging.GeminiLogger) *Orchestrator {
	return &Orchestrator{Cfg: cfg, Logger: logger}
}

// Run generates or loads the schema, creates it on both clusters, fans out
// cfg.Concurrency workers for cfg.Duration (or until SIGINT/SIGTERM), and
// returns the aggregated outcome.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	sch, err := o.resolveSchema()
	if err != nil {
		return Outcome{}, err
	}

	if err := o.prepareClusterSchema(ctx, o.Cfg.TestCluster, sch, schema.SimpleStrategy{ReplicationFactor: 3}); err != nil {
		return Outcome{}, fmt.Errorf("orchestrator: prepare test cluster: %w", err)
	}
	if len(o.Cfg.OracleCluster) > 0 {
		if err := o.prepareClusterSchema(ctx, o.Cfg.OracleCluster, sch, schema.SimpleStrategy{ReplicationFactor: 1}); err != nil {
			return Outcome{}, fmt.Errorf("orchestrator: prepare oracle cluster: %w", err)
		}
	}

	partitions := generatePartitions(sch, o.Cfg)

	runCtx, cancel := context.WithTimeout(ctx, o.Cfg.Duration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	resultsCh := make(chan results.ProcessResult, o.Cfg.Concurrency)
	group, groupCtx := errgroup.WithContext(runCtx)

	for i := 0; i < o.Cfg.Concurrency; i++ {
		w := &worker.Worker{
			Index:      i,
			Cfg:        o.Cfg,
			Schema:     sch,
			Tables:     sch.Tables,
			Partitions: slicePartitionsForWorker(partitions, i, o.Cfg.Concurrency),
			Logger:     o.Logger.With(logging.Fields.Worker(i)...),
			Results:    resultsCh,
		}
		group.Go(func() error {
			return w.Run(groupCtx, cancel)
		})
	}

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	interrupted := false
	select {
	case err := <-done:
		if err != nil {
			return Outcome{}, fmt.Errorf("orchestrator: worker failed: %w", err)
		}
	case sig := <-sigChan:
		o.Logger.Warn("orchestrator: received signal, shutting down", logging.Fields.String("signal", sig.String()))
		interrupted = true
		cancel()
		<-done
	}
	close(resultsCh)

	var total results.ProcessResult
	for r := range resultsCh {
		total = total.Add(r)
	}

	return Outcome{Result: total, Interrupted: interrupted, Schema: sch}, nil
}

func (o *Orchestrator) resolveSchema() (*schema.Schema, error) {
	if o.Cfg.SchemaFile != "" {
		data, err := os.ReadFile(o.Cfg.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: read schema file: %w", err)
		}
		return schema.LoadSchema(data)
	}

	sch, err := schema.GenerateSchema(schema.GenerateConfig{
		Seed:              o.Cfg.Seed,
		MaxTables:         o.Cfg.MaxTables,
		MinPartitionKeys:  o.Cfg.MinPartitionKeys,
		MaxPartitionKeys:  o.Cfg.MaxPartitionKeys,
		MinClusteringKeys: o.Cfg.MinClusteringKeys,
		MaxClusteringKeys: o.Cfg.MaxClusteringKeys,
		MinColumns:        o.Cfg.MinColumns,
		MaxColumns:        o.Cfg.MaxColumns,
	}, columns.AllColumnTypes, columns.AllColumnTypes, columns.AllColumnTypes)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: generate schema: %w", err)
	}
	return sch, nil
}

// prepareClusterSchema opens a short-lived driver to run DDL, then tears it
// down immediately — long-lived driver construction happens only inside
// each worker's own goroutine.
func (o *Orchestrator) prepareClusterSchema(ctx context.Context, hosts []string, sch *schema.Schema, repl schema.ReplicationStrategy) error {
	driver, err := querydriver.NewReal(querydriver.RealConfig{Hosts: hosts})
	if err != nil {
		return fmt.Errorf("open ddl driver: %w", err)
	}
	defer driver.Teardown()

	if o.Cfg.DropSchema {
		if err := sch.Drop(ctx, driver); err != nil {
			return err
		}
	}
	return sch.Create(ctx, driver, repl)
}

// generatePartitions draws cfg.TokenRangeSlices partition-key tuples per
// table from a single seeded RNG, so the same seed reproduces the same
// partition space across runs.
func generatePartitions(sch *schema.Schema, cfg config.Config) map[string][]query.PartitionTuple {
	rng := rand.New(rand.NewSource(cfg.Seed))
	out := make(map[string][]query.PartitionTuple, len(sch.Tables))
	for _, t := range sch.Tables {
		tuples := make([]query.PartitionTuple, 0, cfg.TokenRangeSlices)
		for i := 0; i < cfg.TokenRangeSlices; i++ {
			tuple := make(query.PartitionTuple, 0, len(t.PartitionKeys))
			for _, pk := range t.PartitionKeys {
				col := columns.New(pk.Kind, rng.Int63(), pk.Name)
				tuple = append(tuple, col.GenerateRandomValue())
			}
			tuples = append(tuples, tuple)
		}
		out[t.Name] = tuples
	}
	return out
}

// slicePartitionsForWorker assigns every concurrency-th tuple, starting at
// workerIndex, to that worker — a fixed, non-overlapping partition of the
// token-range slices across the run's workers.
func slicePartitionsForWorker(all map[string][]query.PartitionTuple, workerIndex, concurrency int) map[string][]query.PartitionTuple {
	out := make(map[string][]query.PartitionTuple, len(all))
	for table, tuples := range all {
		var slice []query.PartitionTuple
		for i := workerIndex; i < len(tuples); i += concurrency {
			slice = append(slice, tuples[i])
		}
		out[table] = slice
	}
	return out
}
