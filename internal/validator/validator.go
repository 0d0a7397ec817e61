// Package validator implements the pairwise response comparison between an
// oracle cluster and the system under test.
package validator

import (
	"fmt"
	"reflect"

	"github.com/elchinoo/gemini/internal/querydriver"
)

// ValidationError reports a single row mismatch (or a row-count mismatch,
// where one side is nil) between the oracle and SUT.
type ValidationError struct {
	Index    int
	Expected *querydriver.Row
	Actual   *querydriver.Row
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator: row %d mismatch: expected=%v actual=%v", e.Index, e.Expected, e.Actual)
}

// Validate pair-aligns oracleRows and sutRows using longest-zip semantics
// (the short side is padded with nil). Row equality is structural: ordered
// values must be deeply equal with strict type equality — a numerically
// equivalent int and float are treated as distinct. Rows are consumed in
// driver-returned order; generators are responsible for binding enough key
// predicates that each query result is unambiguous.
func Validate(oracleRows, sutRows []querydriver.Row) error {
	n := len(oracleRows)
	if len(sutRows) > n {
		n = len(sutRows)
	}
	for i := 0; i < n; i++ {
		var expected, actual *querydriver.Row
		if i < len(oracleRows) {
			expected = &oracleRows[i]
		}
		if i < len(sutRows) {
			actual = &sutRows[i]
		}
		if !rowsEqual(expected, actual) {
			return &ValidationError{Index: i, Expected: expected, Actual: actual}
		}
	}
	return nil
}

func rowsEqual(a, b *querydriver.Row) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Values {
		if !valuesEqual(a.Values[i], b.Values[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}
