package runner

import "time"

// Window is the measurement interval [Start, End). It is fixed before any
// worker starts.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow opens warmup after now and lasts duration.
func NewWindow(now time.Time, warmup, duration time.Duration) Window {
	start := now.Add(warmup)
	return Window{Start: start, End: start.Add(duration)}
}

// Opened reports whether t is at or after the window start.
func (w Window) Opened(t time.Time) bool {
	return !t.Before(w.Start)
}

// Closed reports whether t is at or after the window end.
func (w Window) Closed(t time.Time) bool {
	return !t.Before(w.End)
}

// Clamp returns min(t, End).
func (w Window) Clamp(t time.Time) time.Time {
	if t.After(w.End) {
		return w.End
	}
	return t
}

// Duration returns the requested window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
