package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/nai-labs/nai/internal/config"
	"github.com/nai-labs/nai/internal/httpclient"
	"github.com/nai-labs/nai/internal/job"
	"github.com/nai-labs/nai/internal/logging"
	"github.com/nai-labs/nai/internal/metrics"
	"github.com/nai-labs/nai/internal/output"
	"github.com/nai-labs/nai/internal/promexport"
	"github.com/nai-labs/nai/internal/report"
	"github.com/nai-labs/nai/internal/runner"
	"github.com/nai-labs/nai/internal/threshold"
	"github.com/nai-labs/nai/internal/tracing"
)

const (
	progressInterval = time.Second
	failureLogBurst  = 10
	failureLogEvery  = time.Second
	shutdownTimeout  = 5 * time.Second
)

var errThresholdsFailed = errors.New("one or more thresholds failed")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runID := ulid.Make().String()
	base, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = base.Sync() }()
	logger := base.With(zap.String("run_id", runID))

	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	desc, err := httpclient.DefaultDescriptor(cfg)
	if err != nil {
		return err
	}

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(sctx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	clientOpts := httpclient.Options{
		Timeout:     cfg.Timeout,
		NoKeepAlive: cfg.NoKeepAlive,
		Insecure:    cfg.Insecure,
		MaxConns:    cfg.Threads,
		Propagate:   provider.ShouldPropagate(),
	}
	if provider.Enabled() {
		clientOpts.Tracer = provider.Tracer()
	}
	var requester runner.Requester = httpclient.NewClient(clientOpts)
	if cfg.LogErrors {
		requester = runner.WithFailureLogging(requester, logger.With(zap.String("component", "requester")), failureLogBurst, failureLogEvery)
	}

	agg := metrics.NewAggregator()
	opts := runner.Options{
		Threads:        cfg.Threads,
		RPS:            cfg.RPS,
		Duration:       cfg.Duration,
		Warmup:         cfg.Warmup,
		RequestTimeout: cfg.Timeout,
		JoinTimeout:    cfg.EffectiveJoinTimeout(),
		Source:         job.NewSource(desc, cfg.Threads),
		Requester:      requester,
		Aggregator:     agg,
		Logger:         logger.With(zap.String("component", "runner")),
	}

	if cfg.MetricsAddr != "" {
		exporter := promexport.New(agg, logger.With(zap.String("component", "metrics")))
		if err := exporter.Serve(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			_ = exporter.Shutdown(sctx)
		}()
		opts.Recorder = exporter
		opts.Workers = exporter.Workers()
	}

	var progress *output.ProgressReporter
	if cfg.Format == config.FormatText && cfg.Progress {
		progress = output.NewProgressReporter(agg, progressInterval, stderr)
		progress.Start()
	}

	result, err := runner.New(opts).Run(ctx)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	rep := report.Build(result.Snapshot, result.Window.Start, result.Window.End, result.ActualEnd)
	rep.RunID = runID
	rep.Target = desc.URL
	rep.Method = desc.Method
	rep.Threads = cfg.Threads
	rep.TargetRPS = cfg.RPS
	rep.Interrupted = result.Interrupted
	rep.Abandoned = result.Abandoned

	if err := output.Print(stdout, cfg.Format, rep); err != nil {
		return err
	}
	if cfg.OutputFile != "" {
		render := func(w io.Writer) error { return output.Print(w, cfg.Format, rep) }
		if err := output.WriteFile(context.WithoutCancel(ctx), cfg.OutputFile, render); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if len(thresholds) == 0 {
		return nil
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(rep)
	thresholdOut := stdout
	if cfg.Format != config.FormatText {
		thresholdOut = stderr
	}
	output.PrintThresholdResults(thresholdOut, results)
	if !threshold.AllPassed(results) {
		return errThresholdsFailed
	}
	return nil
}
