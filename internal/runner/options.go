package runner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nai-labs/nai/internal/job"
	"github.com/nai-labs/nai/internal/metrics"
)

// DefaultPollInterval is how often the controller checks the window and context.
const DefaultPollInterval = 200 * time.Millisecond

// Requester issues one job and returns its status code. A non-nil error means
// no response was received.
type Requester interface {
	Do(ctx context.Context, d job.Descriptor) (int, error)
}

// Source hands out jobs. Next must not block.
type Source interface {
	Next() job.Descriptor
}

// Gauge tracks the number of running workers. prometheus.Gauge satisfies it.
type Gauge interface {
	Inc()
	Dec()
}

// Options configure the Runner.
type Options struct {
	Threads        int           // number of worker goroutines
	RPS            float64       // target aggregate requests per second (0 means unthrottled)
	Duration       time.Duration // length of the measurement window (required)
	Warmup         time.Duration // delay between worker start and window open
	RequestTimeout time.Duration // bound on each request (0 means none)
	// JoinTimeout bounds the whole join, not each worker: one deadline starts
	// when joining begins and is shared by all workers. 0 means
	// RequestTimeout + 1s.
	JoinTimeout    time.Duration
	PollInterval   time.Duration // controller clock check (0 means DefaultPollInterval)

	Source     Source              // job source (required)
	Requester  Requester           // request executor (required)
	Aggregator *metrics.Aggregator // final state for the result (required)
	Recorder   metrics.Recorder    // optional decorator chain ending at Aggregator
	Workers    Gauge               // optional running-worker gauge
	Logger     *zap.Logger

	// Jitter returns the pacing factor; defaults to a uniform draw in [0.8, 1.2].
	Jitter func() float64
}

func (o *Options) normalize() {
	if o.Threads <= 0 {
		o.Threads = 1
	}
	if o.RPS < 0 {
		o.RPS = 0
	}
	if o.Warmup < 0 {
		o.Warmup = 0
	}
	if o.RequestTimeout < 0 {
		o.RequestTimeout = 0
	}
	if o.JoinTimeout <= 0 {
		o.JoinTimeout = o.RequestTimeout + time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Recorder == nil && o.Aggregator != nil {
		o.Recorder = o.Aggregator
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Jitter == nil {
		o.Jitter = newJitterSource(time.Now().UnixNano()).Factor
	}
}

func (o *Options) validate() error {
	var errs []error
	if o.Duration <= 0 {
		errs = append(errs, errors.New("runner: duration must be > 0"))
	}
	if o.Source == nil {
		errs = append(errs, errors.New("runner: source is required"))
	}
	if o.Requester == nil {
		errs = append(errs, errors.New("runner: requester is required"))
	}
	if o.Aggregator == nil {
		errs = append(errs, errors.New("runner: aggregator is required"))
	}
	return errors.Join(errs...)
}
