package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersWithoutPanic(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.WorkerFetches.WithLabelValues("kalshi", "ok").Inc()
	m.OpportunitiesActive.Set(3)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected at least one registered metric family")
	}
}
