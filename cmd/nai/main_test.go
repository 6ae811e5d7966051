package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nai-labs/nai/internal/config"
	"github.com/nai-labs/nai/internal/report"
)

func newTarget(t *testing.T, status int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func baseArgs(url string) []string {
	return []string{
		"--url", url,
		"--threads", "2",
		"--duration", "0.5",
		"--warmup", "0",
		"--timeout", "2",
		"--progress=false",
		"--log-level", "error",
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), nil, &stdout, &stderr); err != nil {
		t.Fatalf("run() with no args error = %v, want nil", err)
	}
}

func TestRunValidationError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--url", "ftp://example.com", "--threads", "0"}, &stdout, &stderr)
	var verr config.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("run() error = %v, want ValidationError", err)
	}
	if len(verr.Issues()) < 2 {
		t.Errorf("expected every issue reported, got %v", verr.Issues())
	}
	if stdout.Len() != 0 {
		t.Errorf("no report expected on config error, got %q", stdout.String())
	}
}

func TestRunInvalidLogLevel(t *testing.T) {
	srv, hits := newTarget(t, http.StatusOK)
	args := append(baseArgs(srv.URL), "--log-level", "loud")
	if err := run(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for invalid log level")
	}
	if hits.Load() != 0 {
		t.Errorf("no requests expected before config is valid, got %d", hits.Load())
	}
}

func TestRunJSONReport(t *testing.T) {
	srv, hits := newTarget(t, http.StatusOK)
	args := append(baseArgs(srv.URL), "--format", "json")

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v\nstderr: %s", err, stderr.String())
	}

	var rep report.Report
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, stdout.String())
	}
	if rep.Total == 0 || rep.Total != rep.Successes {
		t.Errorf("total = %d successes = %d, want all successful", rep.Total, rep.Successes)
	}
	if rep.Total > hits.Load() {
		t.Errorf("recorded %d requests but server saw %d", rep.Total, hits.Load())
	}
	if rep.RunID == "" || rep.Target != srv.URL || rep.Method != http.MethodGet || rep.Threads != 2 {
		t.Errorf("unexpected run metadata: %+v", rep)
	}
	if rep.Interrupted {
		t.Error("completed run reported as interrupted")
	}
	if rep.P50LatencyMs == nil || rep.RequestsPerSec == nil {
		t.Error("expected latency and rate to be defined")
	}
}

func TestRunTextReportWithFailures(t *testing.T) {
	srv, _ := newTarget(t, http.StatusServiceUnavailable)
	args := append(baseArgs(srv.URL), "--log-errors")

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), args, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v, want nil (failures do not change the exit status)", err)
	}
	out := stdout.String()
	for _, want := range []string{"--- Load Test Results ---", "503", "n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRunInterrupted(t *testing.T) {
	srv, _ := newTarget(t, http.StatusOK)
	args := baseArgs(srv.URL)
	args = append(args, "--duration", "30", "--format", "json")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(300*time.Millisecond, cancel)

	var stdout, stderr bytes.Buffer
	start := time.Now()
	if err := run(ctx, args, &stdout, &stderr); err != nil {
		t.Fatalf("run() error = %v, want nil on interrupt", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("interrupt took %v to take effect", elapsed)
	}

	var rep report.Report
	if err := json.Unmarshal(stdout.Bytes(), &rep); err != nil {
		t.Fatalf("partial report is not JSON: %v", err)
	}
	if !rep.Interrupted {
		t.Error("expected interrupted report")
	}
	if rep.ElapsedSec >= 30 {
		t.Errorf("elapsed = %v, want the truncated window", rep.ElapsedSec)
	}
}

func TestRunThresholds(t *testing.T) {
	srv, _ := newTarget(t, http.StatusOK)

	tests := []struct {
		name      string
		threshold string
		wantErr   bool
	}{
		{"passing", "failures:rate < 0.01", false},
		{"failing", "requests:count < 1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(baseArgs(srv.URL), "--threshold", tt.threshold)
			var stdout bytes.Buffer
			err := run(context.Background(), args, &stdout, &bytes.Buffer{})
			if tt.wantErr != errors.Is(err, errThresholdsFailed) {
				t.Fatalf("run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(stdout.String(), "Thresholds:") {
				t.Errorf("expected threshold summary:\n%s", stdout.String())
			}
		})
	}
}

func TestRunOutputFile(t *testing.T) {
	srv, _ := newTarget(t, http.StatusOK)
	path := filepath.Join(t.TempDir(), "report.yaml")
	args := append(baseArgs(srv.URL), "--format", "yaml", "--output", path)

	var stdout bytes.Buffer
	if err := run(context.Background(), args, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(data, stdout.Bytes()) {
		t.Errorf("file report differs from stdout:\nfile:\n%s\nstdout:\n%s", data, stdout.String())
	}
	if !strings.Contains(string(data), "run_id:") {
		t.Errorf("expected YAML report, got:\n%s", data)
	}
}

func TestRunMetricsServer(t *testing.T) {
	srv, _ := newTarget(t, http.StatusOK)
	args := append(baseArgs(srv.URL), "--metrics-addr", "127.0.0.1:0", "--format", "json")
	if err := run(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

func TestRunMetricsServerBadAddress(t *testing.T) {
	srv, hits := newTarget(t, http.StatusOK)
	args := append(baseArgs(srv.URL), "--metrics-addr", "not-an-address")
	if err := run(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected metrics server error")
	}
	if hits.Load() != 0 {
		t.Errorf("no requests expected when the metrics server fails, got %d", hits.Load())
	}
}
