package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	rec.Observe(context.Background(), "create_lot", true, 5*time.Millisecond)
	rec.Observe(context.Background(), "create_lot", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "create_lot", false, time.Millisecond)

	success := testutil.ToFloat64(rec.results.WithLabelValues("create_lot", "success"))
	if success != 2 {
		t.Fatalf("success counter = %v, want 2", success)
	}
	failure := testutil.ToFloat64(rec.results.WithLabelValues("create_lot", "error"))
	if failure != 1 {
		t.Fatalf("error counter = %v, want 1", failure)
	}

	// Double registration must surface the registry error.
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
