package config

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nai-labs/nai/internal/threshold"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	DefaultThreads  = 100
	DefaultDuration = 30 * time.Second
	DefaultTimeout  = 10 * time.Second
	DefaultWarmup   = time.Second
)

type Config struct {
	TargetURL   string            `mapstructure:"url"`
	Method      string            `mapstructure:"method"`
	Headers     map[string]string `mapstructure:"headers"`
	Payload     string            `mapstructure:"payload"`
	Form        bool              `mapstructure:"form"`
	Threads     int               `mapstructure:"threads"`
	RPS         float64           `mapstructure:"rps"`
	Duration    time.Duration     `mapstructure:"duration"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Warmup      time.Duration     `mapstructure:"warmup"`
	JoinTimeout time.Duration     `mapstructure:"join_timeout"` // 0 means Timeout + 1s
	NoKeepAlive bool              `mapstructure:"no_keepalive"`
	Insecure    bool              `mapstructure:"insecure"`
	Format      Format            `mapstructure:"format"`
	OutputFile  string            `mapstructure:"output"`
	Progress    bool              `mapstructure:"progress"`
	LogErrors   bool              `mapstructure:"log_errors"`
	LogLevel    string            `mapstructure:"log_level"`
	MetricsAddr string            `mapstructure:"metrics_addr"`
	Thresholds  []string          `mapstructure:"thresholds"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	ConfigFile  string            `mapstructure:"-"`
}

// TracingConfig controls OpenTelemetry export of per-request client spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP collector endpoint (host:port)
	Protocol    string  `mapstructure:"protocol"`     // "grpc" (default) or "http"
	Insecure    bool    `mapstructure:"insecure"`     // plaintext connection to the collector
	SampleRate  float64 `mapstructure:"sample_rate"`  // 0.0 - 1.0
	ServiceName string  `mapstructure:"service_name"` // defaults to OTEL_SERVICE_NAME or "nai"
	Propagate   bool    `mapstructure:"propagate"`    // inject W3C traceparent headers
}

// Enabled reports whether spans should be created at all.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || t.Propagate
}

// ShouldPropagate reports whether trace context headers are injected into requests.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

// EffectiveJoinTimeout returns the per-worker join bound.
func (c Config) EffectiveJoinTimeout() time.Duration {
	if c.JoinTimeout > 0 {
		return c.JoinTimeout
	}
	return c.Timeout + time.Second
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// methodToken matches an RFC 9110 token.
var methodToken = regexp.MustCompile("^[!#$%&'*+\\-.^_`|~0-9A-Za-z]+$")

func (c Config) Validate() error {
	var issues []string

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "url is required (use --help for usage information)")
	} else if err := validateTarget(target); err != nil {
		issues = append(issues, err.Error())
	}

	if !methodToken.MatchString(c.Method) {
		issues = append(issues, fmt.Sprintf("method %q is not a valid HTTP method", c.Method))
	}
	if c.Threads < 1 {
		issues = append(issues, "threads must be >= 1")
	}
	if c.RPS < 0 || math.IsNaN(c.RPS) || math.IsInf(c.RPS, 0) {
		issues = append(issues, "rps must be a finite number >= 0")
	}
	if c.Duration <= 0 {
		issues = append(issues, "duration must be > 0")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.Warmup < 0 {
		issues = append(issues, "warmup must be >= 0")
	}
	if c.JoinTimeout < 0 {
		issues = append(issues, "join-timeout must be >= 0")
	}
	if c.Form && c.Payload == "" {
		issues = append(issues, "form requires a payload")
	}

	for key, value := range c.Headers {
		if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "\r\n: ") {
			issues = append(issues, fmt.Sprintf("invalid header key %q", key))
		}
		if strings.ContainsAny(value, "\r\n") {
			issues = append(issues, fmt.Sprintf("invalid header value for %s", key))
		}
	}

	switch c.Format {
	case "", FormatText, FormatJSON, FormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("format %q is not supported (text, json, yaml)", c.Format))
	}

	if _, err := threshold.ParseMultiple(c.Thresholds); err != nil {
		issues = append(issues, err.Error())
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings returns non-fatal notices about risky settings.
func (c Config) Warnings() []string {
	var warnings []string
	if c.RPS > 1000 {
		warnings = append(warnings, fmt.Sprintf("high request rate configured (%.0f RPS); ensure you have authorization to test the target system", c.RPS))
	}
	if c.Threads > 500 {
		warnings = append(warnings, fmt.Sprintf("high thread count configured (%d workers); ensure you have authorization to test the target system", c.Threads))
	}
	if c.Insecure {
		warnings = append(warnings, "TLS certificate verification is disabled")
	}
	return warnings
}

func validateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("url %q is invalid: %v", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", target)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", target)
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	if !(t.SampleRate >= 0 && t.SampleRate <= 1) {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	return issues
}
