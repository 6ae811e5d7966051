package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nai-labs/nai/internal/metrics"
)

// Result captures the outcome of a run.
type Result struct {
	Snapshot    metrics.Snapshot
	Window      Window
	ActualEnd   time.Time // min(observed end, Window.End)
	Interrupted bool      // the context was cancelled before the window closed
	Abandoned   int       // workers still running when the join timeout expired
}

// Runner coordinates a fixed pool of workers over one measurement window.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run executes the load test and blocks until the window closes or ctx is
// cancelled and the workers have been joined.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if err := r.opt.validate(); err != nil {
		return Result{}, err
	}

	window := NewWindow(time.Now(), r.opt.Warmup, r.opt.Duration)
	r.opt.Aggregator.Start(window.Start)
	delay := PacingDelay(r.opt.RPS, r.opt.Threads)

	r.opt.Logger.Info("starting workers",
		zap.Int("threads", r.opt.Threads),
		zap.Float64("rps", r.opt.RPS),
		zap.Duration("pacing_delay", delay),
		zap.Time("window_start", window.Start),
		zap.Time("window_end", window.End),
	)

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make([]chan struct{}, r.opt.Threads)
	for i := range done {
		done[i] = make(chan struct{})
		w := &worker{
			opt:    &r.opt,
			window: window,
			delay:  delay,
			logger: r.opt.Logger.With(zap.Int("worker", i)),
		}
		go func(ch chan struct{}) {
			defer close(ch)
			if r.opt.Workers != nil {
				r.opt.Workers.Inc()
				defer r.opt.Workers.Dec()
			}
			w.run(workCtx)
		}(done[i])
	}

	interrupted := r.wait(ctx, window)
	if interrupted {
		r.opt.Logger.Info("interrupted, finishing in-flight requests")
	}
	cancel()

	abandoned := r.join(done)
	if abandoned > 0 {
		r.opt.Logger.Warn("abandoned workers after join timeout",
			zap.Int("abandoned", abandoned),
			zap.Duration("join_timeout", r.opt.JoinTimeout),
		)
	}

	return Result{
		Snapshot:    r.opt.Aggregator.Snapshot(),
		Window:      window,
		ActualEnd:   window.Clamp(time.Now()),
		Interrupted: interrupted,
		Abandoned:   abandoned,
	}, nil
}

// wait blocks until the window closes or ctx is done, and reports whether it
// was the latter.
func (r *Runner) wait(ctx context.Context, window Window) bool {
	ticker := time.NewTicker(r.opt.PollInterval)
	defer ticker.Stop()

	for {
		if window.Closed(time.Now()) {
			return false
		}
		select {
		case <-ctx.Done():
			return !window.Closed(time.Now())
		case <-ticker.C:
		}
	}
}

// join waits for every worker, giving each at most JoinTimeout from the
// moment joining starts. It returns how many were abandoned.
func (r *Runner) join(done []chan struct{}) int {
	timer := time.NewTimer(r.opt.JoinTimeout)
	defer timer.Stop()

	for i, ch := range done {
		select {
		case <-ch:
		case <-timer.C:
			return countRunning(done[i:])
		}
	}
	return 0
}

func countRunning(done []chan struct{}) int {
	n := 0
	for _, ch := range done {
		select {
		case <-ch:
		default:
			n++
		}
	}
	return n
}
