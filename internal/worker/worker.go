// Package worker implements the execute-compare-record loop that drives one
// concurrent test lane: its own SUT and oracle drivers, its own history
// store, its own retry queue, round-robining over its slice of the
// partition space until the run's shared context is canceled.
package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/elchinoo/gemini/internal/config"
	"github.com/elchinoo/gemini/internal/historystore"
	"github.com/elchinoo/gemini/internal/loadgen"
	"github.com/elchinoo/gemini/internal/logging"
	"github.com/elchinoo/gemini/internal/query"
	"github.com/elchinoo/gemini/internal/querydriver"
	"github.com/elchinoo/gemini/internal/results"
	"github.com/elchinoo/gemini/internal/retry"
	"github.com/elchinoo/gemini/internal/schema"
	"github.com/elchinoo/gemini/internal/validator"
)

// Worker owns every piece of mutable state one test lane needs. Nothing here
// is shared with another Worker except the run's shared context, cancel
// func, and the results channel.
type Worker struct {
	Index      int
	Cfg        config.Config
	Schema     *schema.Schema
	Tables     []*schema.Table
	Partitions map[string][]query.PartitionTuple
	Logger     logging.GeminiLogger
	Results    chan<- results.ProcessResult
}

// Run builds this worker's SUT/oracle drivers and history store, then loops
// until ctx is canceled. Drivers are constructed here, inside the worker's
// own goroutine, never handed in by the caller — gocql sessions created
// outside their owning goroutine's execution context can hang.
func (w *Worker) Run(ctx context.Context, cancel context.CancelFunc) error {
	sutDriver, err := querydriver.NewReal(querydriver.RealConfig{
		Hosts:    w.Cfg.TestCluster,
		Keyspace: w.Schema.Name,
	})
	if err != nil {
		return fmt.Errorf("worker %d: open sut driver: %w", w.Index, err)
	}
	defer sutDriver.Teardown()

	var oracleDriver querydriver.QueryDriver
	if len(w.Cfg.OracleCluster) > 0 {
		real, err := querydriver.NewReal(querydriver.RealConfig{
			Hosts:    w.Cfg.OracleCluster,
			Keyspace: w.Schema.Name,
		})
		if err != nil {
			return fmt.Errorf("worker %d: open oracle driver: %w", w.Index, err)
		}
		oracleDriver = real
	} else {
		oracleDriver = querydriver.NewNoOp()
	}
	defer oracleDriver.Teardown()

	historyPath := filepath.Join(w.Cfg.HistoryDir, fmt.Sprintf("gemini-history-worker-%d.sqlite", w.Index))
	historyStore, err := historystore.Open(historyPath, w.Schema, w.Cfg.DropSchema, w.Cfg.Seed+int64(w.Index))
	if err != nil {
		return fmt.Errorf("worker %d: open history store: %w", w.Index, err)
	}
	defer historyStore.Close()

	retryCtl := retry.New(w.Cfg.MaxMutationRetriesBackoff)
	defer retryCtl.Stop()

	lg, err := w.buildLoadGenerator(historyStore)
	if err != nil {
		return fmt.Errorf("worker %d: build load generator: %w", w.Index, err)
	}

	res := results.ProcessResult{}
	defer func() {
		if err := historyStore.Commit(); err != nil {
			w.Logger.Error("worker: commit history store", err, logging.Fields.Worker(w.Index)...)
		}
		w.Results <- res
	}()

	w.loop(ctx, cancel, sutDriver, oracleDriver, len(w.Cfg.OracleCluster) > 0, historyStore, retryCtl, lg, &res)
	return nil
}

func (w *Worker) buildLoadGenerator(historyStore *historystore.Store) (*loadgen.LoadGenerator, error) {
	mode := loadgen.Mode(w.Cfg.Mode)
	generators := make([]query.Generator, 0, len(w.Tables))
	for _, t := range w.Tables {
		gen, err := loadgen.BuildTableGenerator(mode, t, w.Partitions[t.Name], historyStore, w.Cfg.Seed+int64(w.Index), w.onHistoryFallback(t))
		if err != nil {
			return nil, err
		}
		generators = append(generators, gen)
	}
	return loadgen.New(generators)
}

func (w *Worker) onHistoryFallback(t *schema.Table) func() {
	return func() {
		w.Logger.Warn("worker: history store empty, falling back to partition-only select",
			append(logging.Fields.Worker(w.Index), logging.Fields.String("table", t.Name))...)
	}
}

func (w *Worker) loop(
	ctx context.Context,
	cancel context.CancelFunc,
	sutDriver, oracleDriver querydriver.QueryDriver,
	oracleConfigured bool,
	historyStore *historystore.Store,
	retryCtl *retry.Controller,
	lg *loadgen.LoadGenerator,
	res *results.ProcessResult,
) {
	callCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var (
			op      query.Operation
			dto     querydriver.QueryDTO
			table   *schema.Table
			attempt int
			err     error
		)

		if retryCtl.RetryAvailable() {
			op, dto, attempt, err = retryCtl.GetRetry()
			if err != nil {
				continue
			}
			table = w.tableForStatement(dto.Statement)
		} else {
			op, dto, err = lg.GetQuery()
			if err != nil {
				w.Logger.Error("worker: generate query", err, logging.Fields.Worker(w.Index)...)
				continue
			}
			table = w.Tables[callCount%len(w.Tables)]
			callCount++
		}

		w.step(ctx, cancel, sutDriver, oracleDriver, oracleConfigured, historyStore, retryCtl, res, op, dto, table, attempt)
	}
}

func (w *Worker) step(
	ctx context.Context,
	cancel context.CancelFunc,
	sutDriver, oracleDriver querydriver.QueryDriver,
	oracleConfigured bool,
	historyStore *historystore.Store,
	retryCtl *retry.Controller,
	res *results.ProcessResult,
	op query.Operation,
	dto querydriver.QueryDTO,
	table *schema.Table,
	attempt int,
) {
	sutRows, sutErr := sutDriver.Execute(ctx, dto)
	if sutErr != nil {
		if attempt < w.Cfg.MaxMutationRetries {
			retryCtl.AddRetry(op, dto, attempt+1)
			return
		}
		w.recordError(res, op)
		w.Logger.Error("worker: sut execution failed", sutErr,
			append(logging.Fields.Worker(w.Index), logging.Fields.Query(op.String(), dto.Statement)...)...)
		if w.Cfg.FailFast {
			cancel()
		}
		return
	}

	oracleRows, oracleErr := oracleDriver.Execute(ctx, dto)
	if oracleErr != nil {
		if attempt < w.Cfg.MaxMutationRetries {
			retryCtl.AddRetry(op, dto, attempt+1)
			return
		}
		w.recordError(res, op)
		w.Logger.Error("worker: oracle execution failed", oracleErr,
			append(logging.Fields.Worker(w.Index), logging.Fields.Query(op.String(), dto.Statement)...)...)
		if w.Cfg.FailFast {
			cancel()
		}
		return
	}
	if oracleConfigured {
		if vErr := validator.Validate(oracleRows, sutRows); vErr != nil {
			w.recordError(res, op)
			w.Logger.Error("worker: validation mismatch", vErr,
				append(logging.Fields.Worker(w.Index), logging.Fields.Query(op.String(), dto.Statement)...)...)
			if w.Cfg.FailFast {
				cancel()
			}
			return
		}
	}

	if op == query.Write {
		res.WriteOps++
		if table != nil {
			if err := historyStore.Insert(table, dto); err != nil {
				w.Logger.Error("worker: record history", err, logging.Fields.Worker(w.Index)...)
			}
		}
	} else {
		res.ReadOps++
	}
}

func (w *Worker) recordError(res *results.ProcessResult, op query.Operation) {
	if op == query.Write {
		res.WriteErrors++
	} else {
		res.ReadErrors++
	}
}

// tableForStatement recovers the table a retried statement targets by
// locating "<keyspace>.<table>" in its text, since retry.Entry carries only
// the operation and bound query, not the schema object that produced it.
func (w *Worker) tableForStatement(statement string) *schema.Table {
	marker := w.Schema.Name + "."
	idx := strings.Index(statement, marker)
	if idx < 0 {
		return nil
	}
	rest := statement[idx+len(marker):]
	end := strings.IndexAny(rest, " (\t")
	if end >= 0 {
		rest = rest[:end]
	}
	for _, t := range w.Tables {
		if t.Name == rest {
			return t
		}
	}
	return nil
}
