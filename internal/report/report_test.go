package report

import (
	"testing"
	"time"

	"github.com/nai-labs/nai/internal/metrics"
)

func TestBuildSummary(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Second)

	snap := metrics.Snapshot{
		Successes:       4,
		Failures:        2,
		LatenciesMs:     []float64{40, 10, 30, 20},
		Codes:           map[int]int64{500: 1, 200: 3, 404: 1},
		TransportErrors: map[string]int64{metrics.KindTimeout: 1},
	}

	r := Build(snap, start, end, start.Add(3*time.Second))

	if r.Total != 6 || r.Successes != 4 || r.Failures != 2 {
		t.Fatalf("unexpected counts %+v", r)
	}
	if r.RequestsPerSec == nil || *r.RequestsPerSec != 2 {
		t.Fatalf("expected 2 rps over 3s, got %v", r.RequestsPerSec)
	}
	if *r.MeanLatencyMs != 25 {
		t.Errorf("expected mean 25, got %v", *r.MeanLatencyMs)
	}
	if *r.MinLatencyMs != 10 || *r.MaxLatencyMs != 40 {
		t.Errorf("unexpected min/max %v/%v", *r.MinLatencyMs, *r.MaxLatencyMs)
	}
	if *r.P50LatencyMs != 25 {
		t.Errorf("expected interpolated p50 25, got %v", *r.P50LatencyMs)
	}
	if len(r.StatusCodes) != 3 || r.StatusCodes[0].Code != 200 || r.StatusCodes[2].Code != 500 {
		t.Errorf("expected codes sorted ascending, got %v", r.StatusCodes)
	}
	if len(r.TransportErrors) != 1 || r.TransportErrors[0].Kind != metrics.KindTimeout {
		t.Errorf("unexpected transport errors %v", r.TransportErrors)
	}
}

func TestBuildClampsActualEnd(t *testing.T) {
	start := time.Now()
	end := start.Add(2 * time.Second)

	r := Build(metrics.Snapshot{Successes: 4, LatenciesMs: []float64{1, 1, 1, 1}}, start, end, end.Add(5*time.Second))
	if !r.ActualEnd.Equal(end) {
		t.Fatalf("expected actual end clamped to window end")
	}
	if *r.RequestsPerSec != 2 {
		t.Fatalf("expected 2 rps, got %v", *r.RequestsPerSec)
	}
}

func TestBuildUndefinedWithoutData(t *testing.T) {
	start := time.Now()
	r := Build(metrics.Snapshot{Failures: 3, TransportErrors: map[string]int64{metrics.KindDNS: 3}}, start, start.Add(time.Second), start)

	if r.RequestsPerSec != nil {
		t.Errorf("expected undefined rps with zero elapsed, got %v", *r.RequestsPerSec)
	}
	if r.MeanLatencyMs != nil || r.P50LatencyMs != nil || r.P95LatencyMs != nil || r.P99LatencyMs != nil {
		t.Errorf("expected undefined latency stats without successes")
	}
	if r.StatusCodes != nil {
		t.Errorf("expected no status codes, got %v", r.StatusCodes)
	}
}
