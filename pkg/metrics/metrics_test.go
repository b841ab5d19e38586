package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestToolCallsCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(ToolCalls.WithLabelValues("inventory", "inventory.restock", StatusOK))
	ToolCalls.WithLabelValues("inventory", "inventory.restock", StatusOK).Inc()
	after := testutil.ToFloat64(ToolCalls.WithLabelValues("inventory", "inventory.restock", StatusOK))

	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestObserveRequestRecordsSample(t *testing.T) {
	ObserveRequest(time.Now().Add(-time.Second), "test")

	if n := testutil.CollectAndCount(RequestDuration, "paper_request_duration_seconds"); n == 0 {
		t.Fatal("expected request duration samples to be collected")
	}
}
