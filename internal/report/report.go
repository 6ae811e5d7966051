package report

import (
	"sort"
	"time"

	"github.com/nai-labs/nai/internal/metrics"
)

// Report is the rendered-ready summary of one run. Optional values are nil when
// undefined (no successful samples, or no elapsed time).
type Report struct {
	RunID           string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Target          string             `json:"target,omitempty" yaml:"target,omitempty"`
	Method          string             `json:"method,omitempty" yaml:"method,omitempty"`
	Threads         int                `json:"threads,omitempty" yaml:"threads,omitempty"`
	TargetRPS       float64            `json:"target_rps" yaml:"target_rps"`
	Start           time.Time          `json:"start" yaml:"start"`
	End             time.Time          `json:"end" yaml:"end"`
	ActualEnd       time.Time          `json:"actual_end" yaml:"actual_end"`
	Interrupted     bool               `json:"interrupted" yaml:"interrupted"`
	Total           int64              `json:"total" yaml:"total"`
	Successes       int64              `json:"successes" yaml:"successes"`
	Failures        int64              `json:"failures" yaml:"failures"`
	Elapsed         time.Duration      `json:"-" yaml:"-"`
	ElapsedSec      float64            `json:"elapsed_sec" yaml:"elapsed_sec"`
	RequestsPerSec  *float64           `json:"requests_per_sec" yaml:"requests_per_sec"`
	MeanLatencyMs   *float64           `json:"mean_latency_ms" yaml:"mean_latency_ms"`
	MinLatencyMs    *float64           `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxLatencyMs    *float64           `json:"max_latency_ms" yaml:"max_latency_ms"`
	P50LatencyMs    *float64           `json:"p50_latency_ms" yaml:"p50_latency_ms"`
	P95LatencyMs    *float64           `json:"p95_latency_ms" yaml:"p95_latency_ms"`
	P99LatencyMs    *float64           `json:"p99_latency_ms" yaml:"p99_latency_ms"`
	StatusCodes     []metrics.CodeRow  `json:"status_codes" yaml:"status_codes"`
	TransportErrors []metrics.ErrorRow `json:"transport_errors,omitempty" yaml:"transport_errors,omitempty"`
	Abandoned       int                `json:"abandoned_workers,omitempty" yaml:"abandoned_workers,omitempty"`
}

// Build computes a report from the final snapshot, the requested window
// [start, end) and the observed end time. actualEnd is clamped to end.
func Build(snap metrics.Snapshot, start, end, actualEnd time.Time) Report {
	if actualEnd.After(end) {
		actualEnd = end
	}

	r := Report{
		Start:       start,
		End:         end,
		ActualEnd:   actualEnd,
		Total:       snap.Total(),
		Successes:   snap.Successes,
		Failures:    snap.Failures,
		StatusCodes: metrics.SortedCodes(snap.Codes),
	}
	r.TransportErrors = metrics.SortedErrors(snap.TransportErrors)

	elapsed := actualEnd.Sub(start)
	if elapsed > 0 {
		r.Elapsed = elapsed
		r.ElapsedSec = elapsed.Seconds()
		r.RequestsPerSec = float64Ptr(float64(r.Total) / elapsed.Seconds())
	}

	if len(snap.LatenciesMs) > 0 {
		sorted := append([]float64(nil), snap.LatenciesMs...)
		sort.Float64s(sorted)

		var sum float64
		for _, v := range sorted {
			sum += v
		}
		r.MeanLatencyMs = float64Ptr(sum / float64(len(sorted)))
		r.MinLatencyMs = float64Ptr(sorted[0])
		r.MaxLatencyMs = float64Ptr(sorted[len(sorted)-1])
		r.P50LatencyMs = float64Ptr(percentileSorted(sorted, 50))
		r.P95LatencyMs = float64Ptr(percentileSorted(sorted, 95))
		r.P99LatencyMs = float64Ptr(percentileSorted(sorted, 99))
	}

	return r
}

func float64Ptr(v float64) *float64 {
	return &v
}
