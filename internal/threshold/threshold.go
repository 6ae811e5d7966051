// Package threshold evaluates pass/fail assertions against a run report.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/nai-labs/nai/internal/report"
)

// Threshold is a single assertion such as "latency:p95 < 500".
type Threshold struct {
	Metric    string  // latency, failures or requests
	Aggregate string  // p50, p95, p99, avg, min, max, rate, count
	Operator  string  // <, <=, >, >=, ==
	Value     float64 // compared against the observed value
	Raw       string  // original text, for display
}

// Result is the outcome of evaluating one threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Defined   bool
	Pass      bool
	Message   string
}

var (
	pattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

	aggregates = map[string][]string{
		"latency":  {"p50", "p95", "p99", "avg", "min", "max"},
		"failures": {"rate", "count"},
		"requests": {"rate", "count"},
	}
	operators = []string{"<", "<=", ">", ">=", "=="}
)

// Evaluator evaluates thresholds against a report.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against r.
func (e *Evaluator) Evaluate(r report.Report) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, r))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, r report.Report) Result {
	actual, ok := extractValue(t, r)
	if !ok {
		// An undefined value (no samples, zero elapsed) cannot satisfy an assertion.
		return Result{
			Threshold: t,
			Message:   fmt.Sprintf("✗ %s: n/a", t.Raw),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Defined:   true,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

// Parse parses a threshold string. Supported forms:
//
//	latency:p95 < 500     latency percentile in ms (p50, p95, p99)
//	latency:avg < 200     mean, min or max latency in ms
//	failures:rate < 0.01  failure fraction of all requests
//	failures:count < 10   failure count
//	requests:rate > 100   achieved requests per second
//	requests:count >= 1000
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g. 'latency:p95 < 500')", s)
	}
	metric, aggregate, operator := matches[1], matches[2], matches[3]

	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", matches[4], err)
	}

	allowed, ok := aggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: latency, failures, requests)", metric)
	}
	if !slices.Contains(allowed, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(allowed, ", "))
	}
	if !slices.Contains(operators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings, reporting every bad entry.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return result, nil
}

func extractValue(t Threshold, r report.Report) (float64, bool) {
	switch t.Metric {
	case "latency":
		return latencyValue(t.Aggregate, r)
	case "failures":
		switch t.Aggregate {
		case "count":
			return float64(r.Failures), true
		case "rate":
			if r.Total == 0 {
				return 0, false
			}
			return float64(r.Failures) / float64(r.Total), true
		}
	case "requests":
		switch t.Aggregate {
		case "count":
			return float64(r.Total), true
		case "rate":
			return deref(r.RequestsPerSec)
		}
	}
	return 0, false
}

func latencyValue(aggregate string, r report.Report) (float64, bool) {
	switch aggregate {
	case "p50":
		return deref(r.P50LatencyMs)
	case "p95":
		return deref(r.P95LatencyMs)
	case "p99":
		return deref(r.P99LatencyMs)
	case "avg":
		return deref(r.MeanLatencyMs)
	case "min":
		return deref(r.MinLatencyMs)
	case "max":
		return deref(r.MaxLatencyMs)
	}
	return 0, false
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func compareValues(actual float64, operator string, expected float64) bool {
	const epsilon = 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
