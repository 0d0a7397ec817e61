package results

import (
	"encoding/json"
	"testing"
)

func TestAddIsAssociativeAndCommutative(t *testing.T) {
	a := ProcessResult{WriteOps: 1, ReadOps: 2}
	b := ProcessResult{WriteErrors: 3, ReadErrors: 4}
	c := ProcessResult{WriteOps: 5}

	left := a.Add(b).Add(c)
	right := a.Add(b.Add(c))
	if left != right {
		t.Fatalf("addition not associative: %+v != %+v", left, right)
	}

	if a.Add(b) != b.Add(a) {
		t.Fatalf("addition not commutative")
	}
}

func TestZeroIsIdentity(t *testing.T) {
	a := ProcessResult{WriteOps: 7, ReadErrors: 2}
	var zero ProcessResult
	if a.Add(zero) != a {
		t.Fatalf("zero value is not an additive identity")
	}
}

func TestHasErrors(t *testing.T) {
	if (ProcessResult{}).HasErrors() {
		t.Fatalf("zero-value result must report no errors")
	}
	if !(ProcessResult{WriteErrors: 1}).HasErrors() {
		t.Fatalf("positive write_errors must report HasErrors")
	}
}

func TestReportJSONSchema(t *testing.T) {
	report := NewReport(ProcessResult{WriteOps: 10})
	data, err := report.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["gemini_version"]; !ok {
		t.Fatalf("missing gemini_version key")
	}
	if _, ok := decoded["result"]; !ok {
		t.Fatalf("missing result key")
	}
}
