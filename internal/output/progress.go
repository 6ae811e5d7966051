package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/nai-labs/nai/internal/metrics"
)

// LiveSource exposes running counters. *metrics.Aggregator satisfies it.
type LiveSource interface {
	Live() metrics.LiveStats
}

// ProgressReporter displays real-time progress updates on a single line.
type ProgressReporter struct {
	source   LiveSource
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	wrote    atomic.Bool
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(source LiveSource, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		source:   source,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and ends the progress line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		if p.wrote.Load() {
			fmt.Fprintln(p.writer)
		}
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, FormatProgress(p.source.Live()))
			p.wrote.Store(true)
		case <-p.done:
			return
		}
	}
}

// FormatProgress renders one carriage-return-prefixed progress line.
func FormatProgress(live metrics.LiveStats) string {
	if live.Elapsed < 0 {
		return fmt.Sprintf("\rWarming up, window opens in %.1fs", (-live.Elapsed).Seconds())
	}
	line := fmt.Sprintf("\rRequests: %d | Successes: %d | Failures: %d | RPS: %.1f",
		live.Total, live.Successes, live.Failures, live.RequestsPerSec())
	if live.Successes > 0 {
		line += fmt.Sprintf(" | P50: %.1fms | P99: %.1fms", live.P50Ms, live.P99Ms)
	}
	return line
}
