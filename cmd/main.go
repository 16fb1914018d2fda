package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	reporter "github.com/testwire/trx-reporter"
	"github.com/testwire/trx-reporter/capture"
	"github.com/testwire/trx-reporter/exitcodes"
	"github.com/testwire/trx-reporter/flags"
	"github.com/testwire/trx-reporter/output"
	"github.com/testwire/trx-reporter/replay"
	"github.com/testwire/trx-reporter/service"
	"github.com/testwire/trx-reporter/ui"
)

var (
	Version   = "v0.2.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Check for typed runtime errors
			if reporter.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if reporter.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				// For other unspecified errors, default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "trx-reporter"
	app.Usage = "TRX report generator for section-based test runs"
	app.Description = "trx-reporter replays an engine event log into a VSTest-compatible TRX document"
	app.Flags = flags.Flags
	app.Action = run
	return app
}

func run(ctx *cli.Context) error {
	logger, err := setupLogging(ctx)
	if err != nil {
		return reporter.NewRuntimeError(err)
	}

	cfg, err := reporter.NewConfig(ctx, logger)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return reporter.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	if ctx.Bool(flags.TracingEnabled.Name) {
		shutdown, err := otelconfig.ConfigureOpenTelemetry(
			otelconfig.WithServiceName(ctx.App.Name),
			otelconfig.WithServiceVersion(ctx.App.Version),
		)
		if err != nil {
			return reporter.NewRuntimeError(fmt.Errorf("failed to setup open telemetry: %w", err))
		}
		defer shutdown()
	}

	target, err := buildTarget(cfg)
	if err != nil {
		return reporter.NewRuntimeError(err)
	}

	stdOut := capture.NewBuffer()
	stdErr := capture.NewBuffer()
	clock := &replay.Clock{}

	rep := reporter.New(cfg.RunName, target).
		WithLogger(cfg.Log).
		WithCapture(stdOut, stdErr).
		WithSourcePrefix(cfg.SourcePrefix).
		WithAttachments(cfg.Attachments...).
		WithIncremental(cfg.Incremental).
		WithClock(clock.Now)

	if cfg.ServeEnabled {
		svc := service.New()
		svc.Start(ctx.Context, service.Config{
			HealthzAddr:  cfg.HealthzAddr,
			MetricsAddr:  cfg.MetricsAddr,
			ProgressAddr: cfg.ServeAddr,
			Progress:     rep,
		})
		defer svc.Shutdown()
	}

	events, err := openEvents(cfg.EventsPath)
	if err != nil {
		return reporter.NewRuntimeError(err)
	}
	defer events.Close()

	replayer := replay.NewReplayer(rep, stdOut, stdErr, clock, cfg.Log)
	if err := replayer.Run(ctx.Context, events); err != nil {
		return reporter.NewRuntimeError(fmt.Errorf("replay failed: %w", err))
	}

	if cfg.Summary {
		printSummary(summaryWriter(cfg), rep, clock.Now())
	}

	if rep.Failed() {
		status := rep.Status()
		return reporter.NewTestFailureError(fmt.Sprintf("%d of %d tests failed", status.Failed, status.Tests))
	}
	return nil
}

// setupLogging installs the global logger. Logs always go to stderr: stdout
// carries the document when --output is '-'.
func setupLogging(ctx *cli.Context) (log.Logger, error) {
	level, err := levelFromString(ctx.String(flags.LogLevel.Name))
	if err != nil {
		return nil, err
	}

	var handler slog.Handler
	switch format := ctx.String(flags.LogFormat.Name); format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	default:
		return nil, fmt.Errorf("unrecognized log format: %s", format)
	}

	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger, nil
}

func levelFromString(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "trace", "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unrecognized log level: %s", s)
	}
}

// buildTarget picks the document destination: stdout for '-', otherwise a
// file target with parent directories created up front.
func buildTarget(cfg *reporter.Config) (output.Target, error) {
	if cfg.OutputPath == "-" {
		return output.NewWriterTarget(os.Stdout), nil
	}
	if dir := filepath.Dir(cfg.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory '%s': %w", dir, err)
		}
	}
	target := output.NewFileTarget(cfg.OutputPath)
	target.Atomic = cfg.AtomicWrites
	return target, nil
}

func openEvents(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log '%s': %w", path, err)
	}
	return f, nil
}

// summaryWriter keeps the console summary off stdout whenever the document
// owns it.
func summaryWriter(cfg *reporter.Config) io.Writer {
	if cfg.OutputPath == "-" {
		return os.Stderr
	}
	return os.Stdout
}

// printSummary renders the result table, then a section tree for every
// failed test so the failing branch is visible without opening the document.
func printSummary(w io.Writer, rep *reporter.TrxReporter, now time.Time) {
	groups := rep.Groups()
	fmt.Fprint(w, ui.SummaryTable(groups, now))
	for _, g := range groups {
		if !g.IsOk() {
			fmt.Fprint(w, ui.SectionTree(g))
		}
	}
}
