package metrics_test

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/nai-labs/nai/internal/metrics"
)

func TestAggregatorCounts(t *testing.T) {
	a := metrics.NewAggregator()

	a.Record(metrics.Outcome{Success: true, Latency: 10 * time.Millisecond, StatusCode: 200})
	a.Record(metrics.Outcome{Success: true, Latency: 20 * time.Millisecond, StatusCode: 404})
	a.Record(metrics.Outcome{Success: false, Latency: 5 * time.Millisecond, StatusCode: 503})
	a.Record(metrics.Outcome{Success: false, Latency: time.Second, ErrorKind: metrics.KindTimeout})

	snap := a.Snapshot()
	if snap.Successes != 2 {
		t.Errorf("expected 2 successes, got %d", snap.Successes)
	}
	if snap.Failures != 2 {
		t.Errorf("expected 2 failures, got %d", snap.Failures)
	}
	if snap.Total() != 4 {
		t.Errorf("expected total 4, got %d", snap.Total())
	}
	if len(snap.LatenciesMs) != 2 {
		t.Fatalf("expected 2 latency samples, got %d", len(snap.LatenciesMs))
	}
	if snap.LatenciesMs[0] != 10 || snap.LatenciesMs[1] != 20 {
		t.Errorf("unexpected samples %v", snap.LatenciesMs)
	}
	if snap.Codes[200] != 1 || snap.Codes[404] != 1 || snap.Codes[503] != 1 {
		t.Errorf("unexpected code histogram %v", snap.Codes)
	}
	if snap.NoStatus() != 1 {
		t.Errorf("expected 1 failure without status, got %d", snap.NoStatus())
	}
	if snap.TransportErrors[metrics.KindTimeout] != 1 {
		t.Errorf("expected timeout to be counted, got %v", snap.TransportErrors)
	}
}

func TestAggregatorUnlabelledTransportFailure(t *testing.T) {
	a := metrics.NewAggregator()
	a.Record(metrics.Outcome{Success: false})

	snap := a.Snapshot()
	if snap.TransportErrors[metrics.KindOther] != 1 {
		t.Fatalf("expected unlabelled failure under %q, got %v", metrics.KindOther, snap.TransportErrors)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	a := metrics.NewAggregator()
	a.Record(metrics.Outcome{Success: true, Latency: time.Millisecond, StatusCode: 200})

	snap := a.Snapshot()
	snap.LatenciesMs[0] = 999
	snap.Codes[200] = 999

	again := a.Snapshot()
	if again.LatenciesMs[0] != 1 {
		t.Errorf("snapshot samples alias aggregator state: %v", again.LatenciesMs)
	}
	if again.Codes[200] != 1 {
		t.Errorf("snapshot codes alias aggregator state: %v", again.Codes)
	}
}

func TestConcurrentRecordingInvariants(t *testing.T) {
	a := metrics.NewAggregator()

	var wg sync.WaitGroup
	workers := 16
	perWorker := 500

	// Probe snapshots while workers record, mimicking a live display.
	stop := make(chan struct{})
	probeDone := make(chan struct{})
	go func() {
		defer close(probeDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			checkInvariants(t, a.Snapshot())
			_ = a.Live()
		}
	}()

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for j := 0; j < perWorker; j++ {
				switch rnd.Intn(3) {
				case 0:
					a.Record(metrics.Outcome{Success: true, Latency: time.Duration(rnd.Intn(50)+1) * time.Millisecond, StatusCode: 200})
				case 1:
					a.Record(metrics.Outcome{Success: false, Latency: time.Millisecond, StatusCode: 500})
				default:
					a.Record(metrics.Outcome{Success: false, Latency: time.Millisecond, ErrorKind: metrics.KindConnectionRefused})
				}
			}
		}(int64(i))
	}
	wg.Wait()
	close(stop)
	<-probeDone

	snap := a.Snapshot()
	if snap.Total() != int64(workers*perWorker) {
		t.Fatalf("expected total %d, got %d", workers*perWorker, snap.Total())
	}
	checkInvariants(t, snap)
}

func checkInvariants(t *testing.T, snap metrics.Snapshot) {
	t.Helper()
	if int64(len(snap.LatenciesMs)) != snap.Successes {
		t.Errorf("len(samples)=%d != successes=%d", len(snap.LatenciesMs), snap.Successes)
	}
	var coded, transport int64
	for _, n := range snap.Codes {
		coded += n
	}
	for _, n := range snap.TransportErrors {
		transport += n
	}
	if coded+transport != snap.Total() {
		t.Errorf("codes(%d)+transport(%d) != total(%d)", coded, transport, snap.Total())
	}
}

func TestLiveStats(t *testing.T) {
	a := metrics.NewAggregator()
	a.Start(time.Now().Add(-time.Second))
	for i := 1; i <= 100; i++ {
		a.Record(metrics.Outcome{Success: true, Latency: time.Duration(i) * time.Millisecond, StatusCode: 200})
	}
	a.Record(metrics.Outcome{Success: false, StatusCode: 502})

	live := a.Live()
	if live.Total != 101 || live.Successes != 100 || live.Failures != 1 {
		t.Fatalf("unexpected counters %+v", live)
	}
	if live.P50Ms < 49 || live.P50Ms > 51 {
		t.Errorf("expected live p50 ~50ms, got %.2f", live.P50Ms)
	}
	if live.P99Ms < 98 || live.P99Ms > 100.5 {
		t.Errorf("expected live p99 ~99ms, got %.2f", live.P99Ms)
	}
	if live.Elapsed < time.Second {
		t.Errorf("expected elapsed >= 1s, got %s", live.Elapsed)
	}
	if rps := live.RequestsPerSec(); rps <= 0 || rps > 101 {
		t.Errorf("expected rps in (0, 101], got %.2f", rps)
	}
}
