package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Warehouse stores historical run outcomes in an operator-supplied
// PostgreSQL database, independent of the Cassandra-compatible SUT/oracle
// this engine tests. Adapted from the teacher's results.Backend: same
// constructor-with-ping discipline and row-per-run shape, repurposed to
// store ProcessResult run history instead of TPS/QPS percentile rows,
// since this engine's Non-goals explicitly exclude performance profiling.
type Warehouse struct {
	db     *pgxpool.Pool
	config WarehouseConfig
}

// WarehouseConfig configures the optional warehouse backend. DSN, when set,
// is used verbatim as the pgx connection string; otherwise one is built from
// the discrete Host/Port/... fields.
type WarehouseConfig struct {
	Enabled  bool
	DSN      string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// Run is one historical engine invocation.
type Run struct {
	ID            int64     `json:"id"`
	Seed          int64     `json:"seed"`
	Mode          string    `json:"mode"`
	Concurrency   int       `json:"concurrency"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	GeminiVersion string    `json:"gemini_version"`
	Result        ProcessResult
	Interrupted   bool `json:"interrupted"`
}

// NewWarehouse opens the warehouse connection and ensures its schema exists.
func NewWarehouse(ctx context.Context, cfg WarehouseConfig) (*Warehouse, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("results: warehouse backend is disabled")
	}

	dsn := cfg.DSN
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode)
	}

	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("results: warehouse: create pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: warehouse: ping: %w", err)
	}

	w := &Warehouse{db: db, config: cfg}
	if err := w.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Warehouse) createTables(ctx context.Context) error {
	_, err := w.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS gemini_runs (
			id BIGSERIAL PRIMARY KEY,
			seed BIGINT NOT NULL,
			mode TEXT NOT NULL,
			concurrency INT NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			gemini_version TEXT NOT NULL,
			write_ops BIGINT NOT NULL,
			write_errors BIGINT NOT NULL,
			read_ops BIGINT NOT NULL,
			read_errors BIGINT NOT NULL,
			interrupted BOOLEAN NOT NULL DEFAULT false,
			result_json JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("results: warehouse: create tables: %w", err)
	}
	return nil
}

// RecordRun persists one finished run.
func (w *Warehouse) RecordRun(ctx context.Context, run Run) error {
	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("results: warehouse: marshal result: %w", err)
	}
	_, err = w.db.Exec(ctx, `
		INSERT INTO gemini_runs
			(seed, mode, concurrency, start_time, end_time, gemini_version,
			 write_ops, write_errors, read_ops, read_errors, interrupted, result_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		run.Seed, run.Mode, run.Concurrency, run.StartTime, run.EndTime, run.GeminiVersion,
		run.Result.WriteOps, run.Result.WriteErrors, run.Result.ReadOps, run.Result.ReadErrors,
		run.Interrupted, resultJSON)
	if err != nil {
		return fmt.Errorf("results: warehouse: insert run: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (w *Warehouse) Close() {
	if w.db != nil {
		w.db.Close()
	}
}
