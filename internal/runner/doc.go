// Package runner provides the load generation engine for nai.
//
// A run is a fixed pool of closed-loop workers sharing one job source, one
// recorder and one measurement window:
//   - The window opens after a short warmup so every worker is alive before
//     measurement starts
//   - Each worker fetches a job, issues it, classifies and records the outcome,
//     then sleeps for its share of the target rate
//   - The controller polls the clock until the window closes or the context is
//     cancelled, then joins the workers with a bounded timeout
//
// # Basic Usage
//
//	agg := metrics.NewAggregator()
//	r := runner.New(runner.Options{
//		Threads:        10,
//		RPS:            100,
//		Duration:       30 * time.Second,
//		Warmup:         time.Second,
//		RequestTimeout: 10 * time.Second,
//		Source:         job.NewSource(desc, 10),
//		Requester:      httpclient.NewClient(httpclient.Options{Timeout: 10 * time.Second}),
//		Aggregator:     agg,
//	})
//	result, err := r.Run(ctx)
//
// # Pacing
//
// With a target rate R and T workers each worker sleeps T/R seconds between
// requests (see [PacingDelay]), scaled by a random factor in [0.8, 1.2] so the
// workers do not fire in lockstep. R == 0 runs unthrottled.
//
// # Classification
//
// [Classify] turns a request result into a [metrics.Outcome]: a transport
// error is a failure without a status code, a status in [200, 500) is a
// success, anything else is a failure that keeps its status code.
//
// # Shutdown
//
// Cancelling the context passed to [Runner.Run] stops the run. Requests that
// are already in flight are not aborted: they finish within the request
// timeout and their outcome is still recorded. Workers that do not finish
// within the join timeout are abandoned and counted in [Result.Abandoned].
//
// # Middleware
//
// [WithFailureLogging] wraps a [Requester] to log failed requests at a
// throttled rate.
package runner
