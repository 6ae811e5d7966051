package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Outcome is the classified result of one request attempt.
type Outcome struct {
	Success bool
	Latency time.Duration
	// StatusCode is 0 when no response was received.
	StatusCode int
	// ErrorKind labels transport failures (see CategorizeError); empty otherwise.
	ErrorKind string
}

// LatencyMs returns the latency in float milliseconds.
func (o Outcome) LatencyMs() float64 {
	return float64(o.Latency) / float64(time.Millisecond)
}

// HasStatus reports whether a response status was received.
func (o Outcome) HasStatus() bool {
	return o.StatusCode != 0
}

// Recorder accepts outcomes from workers. Implementations must be safe for concurrent use.
type Recorder interface {
	Record(o Outcome)
}

// Aggregator accumulates outcomes in a thread-safe manner.
type Aggregator struct {
	mu              sync.Mutex
	hist            *hdrhistogram.Histogram
	successes       int64
	failures        int64
	latencies       []float64
	codes           map[int]int64
	transportErrors map[string]int64
	start           time.Time
}

// Snapshot is a consistent copy of the aggregator state.
type Snapshot struct {
	Successes       int64
	Failures        int64
	LatenciesMs     []float64
	Codes           map[int]int64
	TransportErrors map[string]int64
}

// Total returns the number of recorded outcomes.
func (s Snapshot) Total() int64 {
	return s.Successes + s.Failures
}

// NoStatus returns the number of failures recorded without a status code.
func (s Snapshot) NoStatus() int64 {
	var coded int64
	for _, n := range s.Codes {
		coded += n
	}
	return s.Total() - coded
}

// LiveStats is a cheap view of the running state for progress display.
type LiveStats struct {
	Total     int64
	Successes int64
	Failures  int64
	P50Ms     float64
	P99Ms     float64
	Elapsed   time.Duration
}

// RequestsPerSec returns throughput since the aggregator was started.
func (l LiveStats) RequestsPerSec() float64 {
	if l.Elapsed <= 0 {
		return 0
	}
	return float64(l.Total) / l.Elapsed.Seconds()
}

func NewAggregator() *Aggregator {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Aggregator{
		hist:            h,
		codes:           make(map[int]int64),
		transportErrors: make(map[string]int64),
		start:           time.Now(),
	}
}

// Start sets the reference time used by Live, normally the window start.
func (a *Aggregator) Start(t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.start = t
}

// Record applies a single outcome.
func (a *Aggregator) Record(o Outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if o.Success {
		a.successes++
		a.latencies = append(a.latencies, o.LatencyMs())
		us := o.Latency.Microseconds()
		if us < a.hist.LowestTrackableValue() {
			us = a.hist.LowestTrackableValue()
		}
		if us > a.hist.HighestTrackableValue() {
			us = a.hist.HighestTrackableValue()
		}
		_ = a.hist.RecordValue(us)
	} else {
		a.failures++
	}

	if o.HasStatus() {
		a.codes[o.StatusCode]++
	} else if !o.Success {
		kind := o.ErrorKind
		if kind == "" {
			kind = KindOther
		}
		a.transportErrors[kind]++
	}
}

// Snapshot returns a deep copy of the accumulated state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		Successes:       a.successes,
		Failures:        a.failures,
		LatenciesMs:     append([]float64(nil), a.latencies...),
		Codes:           make(map[int]int64, len(a.codes)),
		TransportErrors: make(map[string]int64, len(a.transportErrors)),
	}
	for code, n := range a.codes {
		snap.Codes[code] = n
	}
	for kind, n := range a.transportErrors {
		snap.TransportErrors[kind] = n
	}
	return snap
}

// Live returns running counters and histogram quantiles without copying samples.
func (a *Aggregator) Live() LiveStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	live := LiveStats{
		Total:     a.successes + a.failures,
		Successes: a.successes,
		Failures:  a.failures,
		Elapsed:   time.Since(a.start),
	}
	if a.hist.TotalCount() > 0 {
		live.P50Ms = float64(a.hist.ValueAtQuantile(50)) / 1000
		live.P99Ms = float64(a.hist.ValueAtQuantile(99)) / 1000
	}
	return live
}
