package job

import (
	"math"
	"sync"
	"testing"
)

func TestCapacityBounds(t *testing.T) {
	tests := []struct {
		threads int
		want    int
	}{
		{threads: 0, want: 10},
		{threads: 1, want: 10},
		{threads: 5, want: 50},
		{threads: 100, want: 1000},
		{threads: 5000, want: 1000},
		{threads: math.MaxInt, want: 1000},
		{threads: math.MaxInt/10 + 1, want: 1000},
	}
	for _, tt := range tests {
		if got := Capacity(tt.threads); got != tt.want {
			t.Errorf("Capacity(%d) = %d, want %d", tt.threads, got, tt.want)
		}
	}
}

func TestSourcePrepopulated(t *testing.T) {
	fallback := Descriptor{Method: "GET", URL: "http://example.com"}
	s := NewSource(fallback, 3)

	if s.Len() != 30 || s.Cap() != 30 {
		t.Fatalf("expected 30 queued of 30, got %d of %d", s.Len(), s.Cap())
	}
	for i := 0; i < 30; i++ {
		if got := s.Next(); got.URL != fallback.URL {
			t.Fatalf("pop %d: unexpected descriptor %+v", i, got)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", s.Len())
	}
}

func TestSourceFallsBackWhenEmpty(t *testing.T) {
	fallback := Descriptor{Method: "POST", URL: "http://example.com/fallback", Body: []byte("x")}
	s := NewSource(fallback, 1)
	for s.Len() > 0 {
		s.Next()
	}

	got := s.Next()
	if got.Method != "POST" || got.URL != fallback.URL || string(got.Body) != "x" {
		t.Fatalf("expected fallback descriptor, got %+v", got)
	}
}

func TestSourceOffer(t *testing.T) {
	s := NewSource(Descriptor{URL: "http://default"}, 1)
	if s.Offer(Descriptor{URL: "http://other"}) {
		t.Fatal("expected offer to be rejected on a full queue")
	}

	for s.Len() > 0 {
		s.Next()
	}
	if !s.Offer(Descriptor{URL: "http://other"}) {
		t.Fatal("expected offer to be accepted")
	}
	if got := s.Next(); got.URL != "http://other" {
		t.Fatalf("expected offered descriptor, got %q", got.URL)
	}
	if got := s.Next(); got.URL != "http://default" {
		t.Fatalf("expected fallback after drain, got %q", got.URL)
	}
}

func TestSourceConcurrentConsumers(t *testing.T) {
	s := NewSource(Descriptor{URL: "http://example.com"}, 10)

	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 20; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if d := s.Next(); d.URL == "" {
					t.Error("received empty descriptor")
				}
			}
		}()
	}
	wg.Wait()

	if s.Len() != 0 {
		t.Fatalf("expected drained queue, got %d", s.Len())
	}
}
