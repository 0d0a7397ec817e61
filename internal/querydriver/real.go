package querydriver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
)

// Real wraps a gocql session against one cluster (SUT or oracle).
// Connections are opened per worker, never shared; statements are prepared
// and cached so repeated INSERT/SELECT shapes reuse their prepared form —
// gocql itself maintains the LRU of prepared statements keyed by query
// text, capped by PageSize-independent internal bookkeeping, so Real only
// needs to track which statements it has already warmed.
type Real struct {
	session *gocql.Session

	mu      sync.Mutex
	primed  map[string]bool
}

// RealConfig names the contact points and keyspace a Real driver targets.
type RealConfig struct {
	Hosts       []string
	Keyspace    string
	Consistency gocql.Consistency
	Timeout     time.Duration
}

// NewReal opens a session against the configured cluster. Long-lived
// drivers are opened from inside the owning worker's goroutine; the
// orchestrator only opens a short-lived one to run DDL and tears it down
// before any worker starts.
func NewReal(cfg RealConfig) (*Real, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	if cfg.Keyspace != "" {
		cluster.Keyspace = cfg.Keyspace
	}
	if cfg.Consistency != 0 {
		cluster.Consistency = cfg.Consistency
	} else {
		cluster.Consistency = gocql.Quorum
	}
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	} else {
		cluster.Timeout = 10 * time.Second
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.RoundRobinHostPolicy()

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("querydriver: create session: %w", err)
	}
	return &Real{session: session, primed: make(map[string]bool)}, nil
}

func (r *Real) Prepare(ctx context.Context, statement string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// gocql prepares lazily on first Exec/Iter; Prepare here only records
	// the warm-up intent so repeated calls are cheap no-ops.
	r.primed[statement] = true
	return nil
}

func (r *Real) Execute(ctx context.Context, dto QueryDTO) ([]Row, error) {
	q := r.session.Query(dto.Statement, dto.Values...).WithContext(ctx)
	defer q.Release()

	iter := q.Iter()
	cols := iter.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	rows := []Row{}
	for {
		values := make(map[string]any, len(names))
		if !iter.MapScan(values) {
			break
		}
		row := Row{Columns: names, Values: make([]any, len(names))}
		for i, n := range names {
			row.Values[i] = values[n]
		}
		rows = append(rows, row)
	}
	if err := iter.Close(); err != nil {
		return nil, &Error{Op: "execute", Err: err}
	}
	return rows, nil
}

func (r *Real) Teardown() error {
	if r.session != nil {
		r.session.Close()
	}
	return nil
}
