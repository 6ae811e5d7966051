package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nai",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// secondsValue is a duration flag that accepts plain seconds ("30", "1.5") or
// Go duration strings ("30s", "500ms").
type secondsValue time.Duration

func newSecondsValue(def time.Duration) *secondsValue {
	v := secondsValue(def)
	return &v
}

func (s *secondsValue) String() string {
	return strconv.FormatFloat(time.Duration(*s).Seconds(), 'f', -1, 64)
}

func (s *secondsValue) Set(raw string) error {
	d, err := parseSeconds(raw)
	if err != nil {
		return err
	}
	*s = secondsValue(d)
	return nil
}

func (s *secondsValue) Type() string {
	return "seconds"
}

func parseSeconds(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use seconds (e.g. 30) or a duration (e.g. 30s)", raw)
	}
	return d, nil
}

func getSeconds(fs *pflag.FlagSet, name string) (time.Duration, error) {
	f := fs.Lookup(name)
	if f == nil {
		return 0, fmt.Errorf("flag accessed but not defined: %s", name)
	}
	v, ok := f.Value.(*secondsValue)
	if !ok {
		return 0, fmt.Errorf("flag %s is not a seconds flag", name)
	}
	return time.Duration(*v), nil
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Request flags
	flags.StringP("url", "u", "", "Target URL to load test")
	flags.StringP("method", "X", "GET", "HTTP method to use")
	flags.StringArrayP("header", "H", nil, "Request header in 'Key: Value' form (repeatable)")
	flags.String("payload", "", "Request body: JSON document or raw string")
	flags.Bool("form", false, "Send the payload form-encoded instead of JSON")

	// Load control flags
	flags.IntP("threads", "t", DefaultThreads, "Number of concurrent workers")
	flags.Float64P("rps", "r", 0, "Target aggregate requests per second (0 means unthrottled)")
	flags.VarP(newSecondsValue(DefaultDuration), "duration", "d", "Test duration in seconds")
	flags.Var(newSecondsValue(DefaultTimeout), "timeout", "Per-request timeout in seconds")
	flags.Var(newSecondsValue(DefaultWarmup), "warmup", "Delay in seconds between worker start and the measurement window")
	flags.Var(newSecondsValue(0), "join-timeout", "Max seconds to wait for each worker after the window closes (0 = timeout + 1s)")
	flags.Bool("no-keepalive", false, "Disable HTTP keep-alive")
	flags.BoolP("insecure", "k", false, "Skip TLS certificate verification")

	// Output flags
	flags.String("format", string(FormatText), "Report format: text, json or yaml")
	flags.StringP("output", "o", "", "Also write the report to this file")
	flags.Bool("progress", true, "Show a live progress line on stderr (text format only)")
	flags.Bool("log-errors", false, "Log failed requests to stderr (rate limited)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	flags.StringArray("threshold", nil, "Pass/fail threshold (repeatable, e.g. 'latency:p95 < 500')")
	flags.String("config", "", "Path to configuration file (JSON, YAML or TOML)")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint for request spans")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.Bool("tracing-insecure", false, "Use a plaintext connection to the OTLP collector")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of requests to trace (0.0 - 1.0)")
	flags.Bool("tracing-propagate", false, "Inject W3C trace context headers into requests")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// parseHeader splits a "Key: Value" header argument.
func parseHeader(entry string) (string, string, error) {
	parts := strings.SplitN(entry, ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("header must be in 'Key: Value' format: %s", entry)
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return "", "", fmt.Errorf("header key cannot be empty")
	}
	return key, strings.TrimSpace(parts[1]), nil
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("url") {
		val, err := fs.GetString("url")
		if err != nil {
			return err
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if fs.Changed("method") {
		val, err := fs.GetString("method")
		if err != nil {
			return err
		}
		cfg.Method = val
	}
	if fs.Changed("payload") {
		val, err := fs.GetString("payload")
		if err != nil {
			return err
		}
		cfg.Payload = val
	}
	if fs.Changed("form") {
		val, err := fs.GetBool("form")
		if err != nil {
			return err
		}
		cfg.Form = val
	}
	if fs.Changed("threads") {
		val, err := fs.GetInt("threads")
		if err != nil {
			return err
		}
		cfg.Threads = val
	}
	if fs.Changed("rps") {
		val, err := fs.GetFloat64("rps")
		if err != nil {
			return err
		}
		cfg.RPS = val
	}

	durations := []struct {
		name   string
		target *time.Duration
	}{
		{"duration", &cfg.Duration},
		{"timeout", &cfg.Timeout},
		{"warmup", &cfg.Warmup},
		{"join-timeout", &cfg.JoinTimeout},
	}
	for _, d := range durations {
		if !fs.Changed(d.name) {
			continue
		}
		val, err := getSeconds(fs, d.name)
		if err != nil {
			return err
		}
		*d.target = val
	}

	if fs.Changed("no-keepalive") {
		val, err := fs.GetBool("no-keepalive")
		if err != nil {
			return err
		}
		cfg.NoKeepAlive = val
	}
	if fs.Changed("insecure") {
		val, err := fs.GetBool("insecure")
		if err != nil {
			return err
		}
		cfg.Insecure = val
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = Format(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.OutputFile = strings.TrimSpace(val)
	}
	if fs.Changed("progress") {
		val, err := fs.GetBool("progress")
		if err != nil {
			return err
		}
		cfg.Progress = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.TrimSpace(val)
	}
	if fs.Changed("metrics-addr") {
		val, err := fs.GetString("metrics-addr")
		if err != nil {
			return err
		}
		cfg.MetricsAddr = strings.TrimSpace(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringArray("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	vals, err := fs.GetStringArray("header")
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, entry := range vals {
			key, value, err := parseHeader(entry)
			if err != nil {
				return err
			}
			cfg.Headers[key] = value
		}
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		cfg.Tracing.Propagate = val
	}

	return nil
}
