// Package config loads and validates the engine's run configuration,
// following the teacher's viper-unmarshal-then-validate pattern.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of knobs a run needs, matching spec.md's CLI flag
// table plus the schema-shape bounds.
type Config struct {
	Mode          string   `mapstructure:"mode"`
	TestCluster   []string `mapstructure:"test_cluster"`
	OracleCluster []string `mapstructure:"oracle_cluster"`
	DropSchema    bool     `mapstructure:"drop_schema"`

	Duration                  time.Duration `mapstructure:"duration"`
	TokenRangeSlices          int           `mapstructure:"token_range_slices"`
	Concurrency               int           `mapstructure:"concurrency"`
	Seed                      int64         `mapstructure:"seed"`
	MaxTables                 int           `mapstructure:"max_tables"`
	MinPartitionKeys          int           `mapstructure:"min_partition_keys"`
	MaxPartitionKeys          int           `mapstructure:"max_partition_keys"`
	MinClusteringKeys         int           `mapstructure:"min_clustering_keys"`
	MaxClusteringKeys         int           `mapstructure:"max_clustering_keys"`
	MinColumns                int           `mapstructure:"min_columns"`
	MaxColumns                int           `mapstructure:"max_columns"`
	FailFast                  bool          `mapstructure:"fail_fast"`
	MaxMutationRetries        int           `mapstructure:"max_mutation_retries"`
	MaxMutationRetriesBackoff time.Duration `mapstructure:"max_mutation_retries_backoff"`
	Outfile                   string        `mapstructure:"outfile"`
	HistoryDir                string        `mapstructure:"history_dir"`
	SchemaFile                string        `mapstructure:"schema_file"`
	NonInteractive            bool          `mapstructure:"non_interactive"`
	OracleIsolation           string        `mapstructure:"oracle_isolation"`

	// WarehouseDSN, when set, enables the optional PostgreSQL results
	// warehouse: each run's ProcessResult is recorded there in addition to
	// the JSON report.
	WarehouseDSN string `mapstructure:"warehouse_dsn"`
}

// Default returns the configuration defaults named in spec.md's CLI flag
// table and design notes.
func Default() Config {
	return Config{
		Mode:                      "write",
		DropSchema:                false,
		Duration:                  3 * time.Second,
		TokenRangeSlices:          10000,
		Concurrency:               4,
		Seed:                      0,
		MaxTables:                 1,
		MinPartitionKeys:          2,
		MaxPartitionKeys:          6,
		MinClusteringKeys:         2,
		MaxClusteringKeys:         4,
		MinColumns:                8,
		MaxColumns:                16,
		FailFast:                  false,
		MaxMutationRetries:        2,
		MaxMutationRetriesBackoff: 500 * time.Millisecond,
		HistoryDir:                ".",
	}
}

// Load reads configFile via viper on top of Default and validates the
// result.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
		if err := viper.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal: %w", err)
		}
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the invariants the rest of the engine relies on.
func Validate(cfg *Config) error {
	switch cfg.Mode {
	case "write", "read", "mixed":
	default:
		return fmt.Errorf("mode must be one of write/read/mixed, got: %s", cfg.Mode)
	}

	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got: %s", cfg.Duration)
	}
	if cfg.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got: %d", cfg.Concurrency)
	}
	if cfg.TokenRangeSlices <= 0 {
		return fmt.Errorf("token_range_slices must be positive, got: %d", cfg.TokenRangeSlices)
	}
	if len(cfg.TestCluster) == 0 {
		return fmt.Errorf("test_cluster must name at least one contact point")
	}

	if cfg.MaxTables < 1 {
		return fmt.Errorf("max_tables must be >= 1, got: %d", cfg.MaxTables)
	}
	if err := validateRange("partition_keys", cfg.MinPartitionKeys, cfg.MaxPartitionKeys, 1); err != nil {
		return err
	}
	if err := validateRange("clustering_keys", cfg.MinClusteringKeys, cfg.MaxClusteringKeys, 0); err != nil {
		return err
	}
	if err := validateRange("columns", cfg.MinColumns, cfg.MaxColumns, 1); err != nil {
		return err
	}

	if cfg.MaxMutationRetries < 0 {
		return fmt.Errorf("max_mutation_retries must be non-negative, got: %d", cfg.MaxMutationRetries)
	}
	if cfg.MaxMutationRetriesBackoff <= 0 {
		return fmt.Errorf("max_mutation_retries_backoff must be positive, got: %s", cfg.MaxMutationRetriesBackoff)
	}

	return nil
}

func validateRange(name string, min, max, floor int) error {
	if min < floor {
		return fmt.Errorf("min_%s must be >= %d, got: %d", name, floor, min)
	}
	if max < min {
		return fmt.Errorf("max_%s (%d) must be >= min_%s (%d)", name, max, name, min)
	}
	return nil
}
