package runner

import (
	"testing"
	"time"
)

func TestWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	w := NewWindow(now, time.Second, 30*time.Second)

	if !w.Start.Equal(now.Add(time.Second)) {
		t.Errorf("Start = %v, want now+1s", w.Start)
	}
	if w.Duration() != 30*time.Second {
		t.Errorf("Duration() = %s, want 30s", w.Duration())
	}

	tests := []struct {
		name       string
		at         time.Time
		wantOpened bool
		wantClosed bool
	}{
		{"during warmup", now, false, false},
		{"at start", w.Start, true, false},
		{"inside", w.Start.Add(10 * time.Second), true, false},
		{"at end", w.End, true, true},
		{"after end", w.End.Add(time.Second), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Opened(tt.at); got != tt.wantOpened {
				t.Errorf("Opened() = %v, want %v", got, tt.wantOpened)
			}
			if got := w.Closed(tt.at); got != tt.wantClosed {
				t.Errorf("Closed() = %v, want %v", got, tt.wantClosed)
			}
		})
	}
}

func TestWindowClamp(t *testing.T) {
	now := time.Now()
	w := NewWindow(now, 0, time.Second)

	if got := w.Clamp(w.End.Add(time.Minute)); !got.Equal(w.End) {
		t.Errorf("Clamp(after end) = %v, want %v", got, w.End)
	}
	mid := now.Add(500 * time.Millisecond)
	if got := w.Clamp(mid); !got.Equal(mid) {
		t.Errorf("Clamp(mid) = %v, want %v", got, mid)
	}
}
