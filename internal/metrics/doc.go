// Package metrics aggregates per-request outcomes produced by load workers.
//
// The central [Aggregator] is shared by every worker. Each call to
// [Aggregator.Record] updates the success/failure counters, the status-code
// histogram and the latency samples as one unit under a single mutex, so a
// [Snapshot] never observes a partially applied outcome:
//
//	agg := metrics.NewAggregator()
//	agg.Record(metrics.Outcome{Success: true, Latency: 12 * time.Millisecond, StatusCode: 200})
//	snap := agg.Snapshot()
//
// # Invariants
//
// For every snapshot:
//   - Successes + Failures == Total()
//   - Total() == sum(Codes) + NoStatus()
//   - len(LatenciesMs) == Successes
//
// Latency samples are kept for successful outcomes only and are never evicted;
// memory grows with the number of successful requests in a run.
//
// # Live view
//
// [Aggregator.Live] returns cheap running counters plus HDR-histogram quantiles
// for progress display without copying the sample list.
package metrics
