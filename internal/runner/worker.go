package runner

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nai-labs/nai/internal/job"
	"github.com/nai-labs/nai/internal/metrics"
)

// maxWarmupSleep caps each pre-window sleep so cancellation is seen promptly.
const maxWarmupSleep = 10 * time.Millisecond

// Classify converts a request result into an outcome. Statuses in [200, 500)
// are successes; a transport error or any other status is a failure.
func Classify(status int, err error, latency time.Duration) metrics.Outcome {
	if err != nil {
		return metrics.Outcome{Latency: latency, ErrorKind: metrics.CategorizeError(err)}
	}
	if status <= 0 {
		return metrics.Outcome{Latency: latency, ErrorKind: metrics.KindOther}
	}
	return metrics.Outcome{
		Success:    status >= http.StatusOK && status < http.StatusInternalServerError,
		Latency:    latency,
		StatusCode: status,
	}
}

type worker struct {
	opt    *Options
	window Window
	delay  time.Duration
	logger *zap.Logger
}

func (w *worker) run(ctx context.Context) {
	w.logger.Debug("worker started")
	defer w.logger.Debug("worker stopped")

	for {
		if ctx.Err() != nil {
			return
		}
		now := time.Now()
		if w.window.Closed(now) {
			return
		}
		if !w.window.Opened(now) {
			sleepCtx(ctx, min(maxWarmupSleep, w.window.Start.Sub(now)))
			continue
		}

		d := w.opt.Source.Next()
		w.opt.Recorder.Record(w.issue(ctx, d))

		if w.delay > 0 {
			sleepCtx(ctx, ApplyJitter(w.delay, w.opt.Jitter()))
		}
	}
}

// issue runs one request. Cancellation of ctx does not abort it; only the
// request timeout does.
func (w *worker) issue(ctx context.Context, d job.Descriptor) metrics.Outcome {
	reqCtx := context.WithoutCancel(ctx)
	if w.opt.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, w.opt.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	status, err := w.opt.Requester.Do(reqCtx, d)
	return Classify(status, err, time.Since(start))
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
