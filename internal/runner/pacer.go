package runner

import (
	"math/rand/v2"
	"sync"
	"time"
)

const (
	JitterMin = 0.8
	JitterMax = 1.2
)

// PacingDelay is the per-worker pause that makes threads workers add up to
// rps requests per second. It is 0 when rps is not positive or is NaN.
func PacingDelay(rps float64, threads int) time.Duration {
	if !(rps > 0) || threads <= 0 {
		return 0
	}
	return time.Duration(float64(threads) / rps * float64(time.Second))
}

// ApplyJitter scales d by factor.
func ApplyJitter(d time.Duration, factor float64) time.Duration {
	if d <= 0 || factor <= 0 {
		return 0
	}
	return time.Duration(float64(d) * factor)
}

// jitterSource draws factors uniformly from [JitterMin, JitterMax].
type jitterSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newJitterSource(seed int64) *jitterSource {
	return &jitterSource{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

func (j *jitterSource) Factor() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JitterMin + j.rng.Float64()*(JitterMax-JitterMin)
}
