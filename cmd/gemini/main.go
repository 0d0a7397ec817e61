// cmd/gemini/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/elchinoo/gemini/internal/config"
	"github.com/elchinoo/gemini/internal/logging"
	"github.com/elchinoo/gemini/internal/orchestrator"
	"github.com/elchinoo/gemini/internal/results"
)

// Version information (set by build system via ldflags)
var (
	Version   = "v0.1.0-beta"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configFile                string
		mode                      string
		testCluster               string
		oracleCluster             string
		dropSchema                bool
		duration                  time.Duration
		tokenRangeSlices          int
		concurrency               int
		seed                      int64
		maxTables                 int
		minPartitionKeys          int
		maxPartitionKeys          int
		minClusteringKeys         int
		maxClusteringKeys         int
		minColumns                int
		maxColumns                int
		failFast                  bool
		maxMutationRetries        int
		maxMutationRetriesBackoff time.Duration
		outfile                   string
		historyDir                string
		schemaFile                string
		nonInteractive            bool
		showVersion               bool
		warehouseDSN              string
	)

	rootCmd := &cobra.Command{
		Use:   "gemini",
		Short: "A Cassandra-compatible differential random testing engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Printf("gemini %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
				return nil
			}

			cfg := config.Default()
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return fmt.Errorf("gemini: %w", err)
				}
				cfg = *loaded
			}

			changed := cmd.Flags().Changed
			applyFlagOverrides(&cfg, flagOverrides{
				mode: mode, testCluster: testCluster, oracleCluster: oracleCluster,
				dropSchema: dropSchema, duration: duration, tokenRangeSlices: tokenRangeSlices,
				concurrency: concurrency, seed: seed, maxTables: maxTables,
				minPartitionKeys: minPartitionKeys, maxPartitionKeys: maxPartitionKeys,
				minClusteringKeys: minClusteringKeys, maxClusteringKeys: maxClusteringKeys,
				minColumns: minColumns, maxColumns: maxColumns, failFast: failFast,
				maxMutationRetries: maxMutationRetries, maxMutationRetriesBackoff: maxMutationRetriesBackoff,
				outfile: outfile, historyDir: historyDir, schemaFile: schemaFile,
				warehouseDSN: warehouseDSN,
			}, changed)

			// --drop-schema is ignored in read mode.
			if cfg.Mode == "read" {
				cfg.DropSchema = false
			}

			if err := config.Validate(&cfg); err != nil {
				return fmt.Errorf("gemini: %w", err)
			}

			return runEngine(cfg, nonInteractive)
		},
	}

	rootCmd.Flags().StringVarP(&configFile, "config", "", "", "path to a YAML config file")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version information and exit")

	rootCmd.Flags().StringVar(&mode, "mode", "write", "query generator mix: write, read, or mixed")
	rootCmd.Flags().StringVarP(&testCluster, "test-cluster", "t", "", "comma-separated SUT contact points")
	rootCmd.Flags().StringVarP(&oracleCluster, "oracle-cluster", "o", "", "comma-separated oracle contact points (optional)")
	rootCmd.Flags().BoolVar(&dropSchema, "drop-schema", false, "drop keyspace before creating (ignored in read mode)")
	rootCmd.Flags().DurationVar(&duration, "duration", 3*time.Second, "stop after elapsed time")
	rootCmd.Flags().IntVar(&tokenRangeSlices, "token-range-slices", 10000, "total partition budget, divided across concurrency")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "worker count")
	rootCmd.Flags().Int64VarP(&seed, "seed", "s", 0, "deterministic schema/value seed")
	rootCmd.Flags().IntVar(&maxTables, "max-tables", 1, "maximum generated tables")
	rootCmd.Flags().IntVar(&minPartitionKeys, "min-partition-keys", 2, "minimum partition key columns per table")
	rootCmd.Flags().IntVar(&maxPartitionKeys, "max-partition-keys", 6, "maximum partition key columns per table")
	rootCmd.Flags().IntVar(&minClusteringKeys, "min-clustering-keys", 2, "minimum clustering key columns per table")
	rootCmd.Flags().IntVar(&maxClusteringKeys, "max-clustering-keys", 4, "maximum clustering key columns per table")
	rootCmd.Flags().IntVar(&minColumns, "min-columns", 8, "minimum regular columns per table")
	rootCmd.Flags().IntVar(&maxColumns, "max-columns", 16, "maximum regular columns per table")
	rootCmd.Flags().BoolVarP(&failFast, "fail-fast", "f", false, "first validation failure sets termination")
	rootCmd.Flags().IntVar(&maxMutationRetries, "max-mutation-retries", 2, "attempts before counting a mutation as an error")
	rootCmd.Flags().DurationVar(&maxMutationRetriesBackoff, "max-mutation-retries-backoff", 500*time.Millisecond, "delay between mutation retry attempts")
	rootCmd.Flags().StringVar(&outfile, "outfile", "", "JSON result file (stdout if absent)")
	rootCmd.Flags().StringVar(&historyDir, "history-dir", ".", "directory holding per-worker history store files")
	rootCmd.Flags().StringVar(&schemaFile, "schema-file", "", "load the schema from a JSON file instead of generating one")
	rootCmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "print periodic summaries instead of a spinner")
	rootCmd.Flags().StringVar(&warehouseDSN, "warehouse-dsn", "", "PostgreSQL connection string for the optional results warehouse (disabled if absent)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("gemini %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCodeFromLastRun
}

// exitCodeFromLastRun is set by runEngine before RunE returns, since cobra's
// RunE only distinguishes error/no-error, not the three-way 0/1/130 contract.
var exitCodeFromLastRun = 0

type flagOverrides struct {
	mode, testCluster, oracleCluster, outfile, historyDir, schemaFile string
	warehouseDSN                                                     string
	dropSchema, failFast                                             bool
	duration, maxMutationRetriesBackoff                               time.Duration
	tokenRangeSlices, concurrency                                     int
	seed                                                              int64
	maxTables, minPartitionKeys, maxPartitionKeys                     int
	minClusteringKeys, maxClusteringKeys, minColumns, maxColumns      int
	maxMutationRetries                                                int
}

// applyFlagOverrides copies only explicitly-set flags onto cfg, so a
// --config file's values survive when the caller doesn't also pass the
// corresponding flag (cobra flag vars always hold their default, set or
// not, so a bare presence check would otherwise clobber the file).
func applyFlagOverrides(cfg *config.Config, f flagOverrides, changed func(string) bool) {
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("test-cluster") {
		cfg.TestCluster = splitHosts(f.testCluster)
	}
	if changed("oracle-cluster") {
		cfg.OracleCluster = splitHosts(f.oracleCluster)
	}
	if changed("drop-schema") {
		cfg.DropSchema = f.dropSchema
	}
	if changed("duration") {
		cfg.Duration = f.duration
	}
	if changed("token-range-slices") {
		cfg.TokenRangeSlices = f.tokenRangeSlices
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if changed("max-tables") {
		cfg.MaxTables = f.maxTables
	}
	if changed("min-partition-keys") {
		cfg.MinPartitionKeys = f.minPartitionKeys
	}
	if changed("max-partition-keys") {
		cfg.MaxPartitionKeys = f.maxPartitionKeys
	}
	if changed("min-clustering-keys") {
		cfg.MinClusteringKeys = f.minClusteringKeys
	}
	if changed("max-clustering-keys") {
		cfg.MaxClusteringKeys = f.maxClusteringKeys
	}
	if changed("min-columns") {
		cfg.MinColumns = f.minColumns
	}
	if changed("max-columns") {
		cfg.MaxColumns = f.maxColumns
	}
	if changed("fail-fast") {
		cfg.FailFast = f.failFast
	}
	if changed("max-mutation-retries") {
		cfg.MaxMutationRetries = f.maxMutationRetries
	}
	if changed("max-mutation-retries-backoff") {
		cfg.MaxMutationRetriesBackoff = f.maxMutationRetriesBackoff
	}
	if changed("outfile") {
		cfg.Outfile = f.outfile
	}
	if changed("history-dir") {
		cfg.HistoryDir = f.historyDir
	}
	if changed("schema-file") {
		cfg.SchemaFile = f.schemaFile
	}
	if changed("warehouse-dsn") {
		cfg.WarehouseDSN = f.warehouseDSN
	}
}

func splitHosts(csv string) []string {
	parts := strings.Split(csv, ",")
	hosts := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			hosts = append(hosts, p)
		}
	}
	return hosts
}

func runEngine(cfg config.Config, nonInteractive bool) error {
	logger, err := logging.New(logging.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		return fmt.Errorf("gemini: build logger: %w", err)
	}
	defer logger.Sync()

	done := make(chan struct{})
	defer close(done)

	var spin *spinner.Spinner
	if !nonInteractive {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		spin.Suffix = " running gemini..."
		spin.Start()
		defer spin.Stop()
	} else {
		orchestrator.StartSummaryTicker(logger, 10*time.Second, done)
	}

	orch := orchestrator.New(cfg, logger)
	startTime := time.Now()
	outcome, err := orch.Run(context.Background())
	if err != nil {
		exitCodeFromLastRun = 1
		return err
	}

	if cfg.WarehouseDSN != "" {
		if err := recordToWarehouse(cfg, outcome, startTime); err != nil {
			logger.Error("gemini: record run to warehouse", err)
		}
	}

	report := results.NewReport(outcome.Result)
	data, err := report.Marshal()
	if err != nil {
		exitCodeFromLastRun = 1
		return fmt.Errorf("gemini: marshal report: %w", err)
	}

	if cfg.Outfile != "" {
		if err := os.WriteFile(cfg.Outfile, data, 0644); err != nil {
			exitCodeFromLastRun = 1
			return fmt.Errorf("gemini: write outfile: %w", err)
		}
	} else {
		fmt.Println(string(data))
	}

	switch {
	case outcome.Interrupted:
		exitCodeFromLastRun = 130
	case outcome.Result.HasErrors():
		exitCodeFromLastRun = 1
	default:
		exitCodeFromLastRun = 0
	}
	return nil
}

// recordToWarehouse persists one run's outcome to the operator-supplied
// PostgreSQL warehouse, independent of the JSON report written to
// cfg.Outfile/stdout.
func recordToWarehouse(cfg config.Config, outcome orchestrator.Outcome, startTime time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	warehouse, err := results.NewWarehouse(ctx, results.WarehouseConfig{Enabled: true, DSN: cfg.WarehouseDSN})
	if err != nil {
		return fmt.Errorf("gemini: open warehouse: %w", err)
	}
	defer warehouse.Close()

	return warehouse.RecordRun(ctx, results.Run{
		Seed:          cfg.Seed,
		Mode:          cfg.Mode,
		Concurrency:   cfg.Concurrency,
		StartTime:     startTime,
		EndTime:       time.Now(),
		GeminiVersion: Version,
		Result:        outcome.Result,
		Interrupted:   outcome.Interrupted,
	})
}
