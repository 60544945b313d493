package metrics

import (
	"testing"
	"time"
)

func TestRecordRequestIncrementsCounter(t *testing.T) {
	ms := NewMetricsService()

	before, err := counterValue(RequestsServed, "type1", "ok")
	if err != nil {
		t.Fatalf("counterValue: %v", err)
	}

	ms.RecordRequest("type1", "ok", 5*time.Millisecond)

	after, err := counterValue(RequestsServed, "type1", "ok")
	if err != nil {
		t.Fatalf("counterValue: %v", err)
	}

	if after != before+1 {
		t.Fatalf("expected counter to increment by 1, got before=%v after=%v", before, after)
	}
}

func TestPlannerDecisionsLabelsAreIndependent(t *testing.T) {
	before, err := counterValue(PlannerDecisions, "route_found")
	if err != nil {
		t.Fatalf("counterValue: %v", err)
	}
	otherBefore, err := counterValue(PlannerDecisions, "direct_walk")
	if err != nil {
		t.Fatalf("counterValue: %v", err)
	}

	PlannerDecisions.WithLabelValues("route_found").Inc()

	otherAfter, err := counterValue(PlannerDecisions, "direct_walk")
	if err != nil {
		t.Fatalf("counterValue: %v", err)
	}
	if otherAfter != otherBefore {
		t.Fatalf("expected direct_walk counter unchanged, got before=%v after=%v", otherBefore, otherAfter)
	}

	after, err := counterValue(PlannerDecisions, "route_found")
	if err != nil {
		t.Fatalf("counterValue: %v", err)
	}
	if after != before+1 {
		t.Fatalf("expected route_found counter to increment, got before=%v after=%v", before, after)
	}
}
