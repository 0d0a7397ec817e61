package retry

import (
	"testing"
	"time"

	"github.com/elchinoo/gemini/internal/query"
	"github.com/elchinoo/gemini/internal/querydriver"
)

func TestBackoffFromEnqueueTime(t *testing.T) {
	c := New(5 * time.Millisecond)
	dto := querydriver.QueryDTO{Statement: "SELECT 1"}

	c.AddRetry(query.Read, dto, 1)
	if c.RetryAvailable() {
		t.Fatalf("expected retry not yet available immediately after enqueue")
	}

	time.Sleep(6 * time.Millisecond)

	if !c.RetryAvailable() {
		t.Fatalf("expected retry available after backoff elapsed")
	}
	op, gotDTO, attempt, err := c.GetRetry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op != query.Read || gotDTO.Statement != dto.Statement || attempt != 1 {
		t.Fatalf("unexpected retry entry: op=%v dto=%v attempt=%d", op, gotDTO, attempt)
	}
}

func TestFIFOOrdering(t *testing.T) {
	c := New(3 * time.Millisecond)
	for i := 1; i <= 3; i++ {
		c.AddRetry(query.Write, querydriver.QueryDTO{Statement: "q", Values: []any{i}}, 0)
		time.Sleep(time.Millisecond)
	}

	time.Sleep(10 * time.Millisecond)

	var order []int
	for c.RetryAvailable() {
		_, dto, _, err := c.GetRetry()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		order = append(order, dto.Values[0].(int))
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected FIFO order [1 2 3], got %v", order)
	}
}

func TestGetRetryWithoutAvailableEntry(t *testing.T) {
	c := New(time.Millisecond)
	if _, _, _, err := c.GetRetry(); err != ErrNotAvailable {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
}
