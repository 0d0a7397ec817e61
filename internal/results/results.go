// Package results implements the ProcessResult counters monoid, the result
// JSON report, and an optional Postgres-backed warehouse for historical
// runs.
package results

import "encoding/json"

// Version is the engine's version string, reported in every result JSON.
// The teacher's cmd/stormdb/main.go injects Version/GitCommit/BuildTime via
// ldflags; this follows the same convention.
var Version = "dev"

// ProcessResult is the four-counter monoid every worker publishes at
// termination and the orchestrator combines via componentwise addition.
type ProcessResult struct {
	WriteOps     int64 `json:"write_ops"`
	WriteErrors  int64 `json:"write_errors"`
	ReadOps      int64 `json:"read_ops"`
	ReadErrors   int64 `json:"read_errors"`
}

// Add returns the componentwise sum of r and other. Addition is
// associative and commutative with the all-zero value as identity.
func (r ProcessResult) Add(other ProcessResult) ProcessResult {
	return ProcessResult{
		WriteOps:    r.WriteOps + other.WriteOps,
		WriteErrors: r.WriteErrors + other.WriteErrors,
		ReadOps:     r.ReadOps + other.ReadOps,
		ReadErrors:  r.ReadErrors + other.ReadErrors,
	}
}

// HasErrors reports whether either error counter is positive, the
// condition under which the process must exit nonzero.
func (r ProcessResult) HasErrors() bool {
	return r.WriteErrors+r.ReadErrors > 0
}

// Report is the top-level JSON document written to --outfile or stdout.
type Report struct {
	GeminiVersion string        `json:"gemini_version"`
	Result        ProcessResult `json:"result"`
}

// NewReport builds the report document for a finished run.
func NewReport(result ProcessResult) Report {
	return Report{GeminiVersion: Version, Result: result}
}

// Marshal renders the report the way it is written to disk or stdout.
func (r Report) Marshal() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
