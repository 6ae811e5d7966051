package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nai-labs/nai/internal/config"
	"github.com/nai-labs/nai/internal/report"
	"github.com/nai-labs/nai/internal/threshold"
)

// Print renders r in the requested format.
func Print(w io.Writer, format config.Format, r report.Report) error {
	switch format {
	case config.FormatJSON:
		return PrintJSONReport(w, r)
	case config.FormatYAML:
		return PrintYAMLReport(w, r)
	case config.FormatText, "":
		PrintReport(w, r)
		return nil
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// PrintReport outputs a human-readable summary report. Undefined values are
// shown as n/a.
func PrintReport(w io.Writer, r report.Report) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", r.RunID)
	}
	if r.Target != "" {
		fmt.Fprintf(w, "Target:            %s %s\n", r.Method, r.Target)
	}
	if r.Threads > 0 {
		fmt.Fprintf(w, "Threads:           %d\n", r.Threads)
	}
	if r.TargetRPS > 0 {
		fmt.Fprintf(w, "Target RPS:        %.2f\n", r.TargetRPS)
	}
	fmt.Fprintf(w, "Total Requests:    %d\n", r.Total)
	fmt.Fprintf(w, "Successful:        %d\n", r.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", r.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Requests/sec:      %s\n", formatValue(r.RequestsPerSec, ""))
	if r.Interrupted {
		fmt.Fprintln(w, "Status:            interrupted (partial results)")
	}
	if r.Abandoned > 0 {
		fmt.Fprintf(w, "Abandoned Workers: %d\n", r.Abandoned)
	}

	fmt.Fprintln(w, "\nLatency (successful requests):")
	fmt.Fprintf(w, "  Min:             %s\n", formatValue(r.MinLatencyMs, "ms"))
	fmt.Fprintf(w, "  Max:             %s\n", formatValue(r.MaxLatencyMs, "ms"))
	fmt.Fprintf(w, "  Mean:            %s\n", formatValue(r.MeanLatencyMs, "ms"))
	fmt.Fprintf(w, "  P50:             %s\n", formatValue(r.P50LatencyMs, "ms"))
	fmt.Fprintf(w, "  P95:             %s\n", formatValue(r.P95LatencyMs, "ms"))
	fmt.Fprintf(w, "  P99:             %s\n", formatValue(r.P99LatencyMs, "ms"))

	fmt.Fprintln(w, "\nStatus Codes:")
	if len(r.StatusCodes) == 0 {
		fmt.Fprintln(w, "  None")
	}
	for _, row := range r.StatusCodes {
		fmt.Fprintf(w, "  %d: %d\n", row.Code, row.Count)
	}

	if len(r.TransportErrors) > 0 {
		fmt.Fprintln(w, "\nTransport Errors:")
		for _, row := range r.TransportErrors {
			fmt.Fprintf(w, "  %s: %d\n", row.Kind, row.Count)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, r report.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, r report.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// PrintThresholdResults outputs one line per evaluated threshold.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	passed := 0
	for _, res := range results {
		if res.Pass {
			passed++
		}
	}
	fmt.Fprintf(w, "\nThresholds: %d/%d passed\n", passed, len(results))
	for _, res := range results {
		fmt.Fprintf(w, "  %s\n", res.Message)
	}
}

func formatValue(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", *v, unit))
}
