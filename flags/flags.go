package flags

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "TRX_REPORTER"

// prefixEnvVar expands a suffix into the single environment variable backing
// a flag, e.g. "SERVE_ADDR" -> TRX_REPORTER_SERVE_ADDR.
func prefixEnvVar(suffix string) []string {
	return []string{EnvVarPrefix + "_" + suffix}
}

var (
	EventsFile = &cli.StringFlag{
		Name:     "events",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("EVENTS"),
		Usage:    "Path to the engine event log (JSON Lines). Use '-' to read from stdin.",
	}
	OutputFile = &cli.StringFlag{
		Name:     "output",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("OUTPUT"),
		Usage:    "Path of the TRX document to write. Use '-' to write to stdout.",
	}
	RunName = &cli.StringFlag{
		Name:    "run-name",
		Value:   "Unnamed test run",
		EnvVars: prefixEnvVar("RUN_NAME"),
		Usage:   "TestRun name used when the event log does not carry one",
	}
	SourcePrefix = &cli.StringFlag{
		Name:    "source-prefix",
		Value:   "",
		EnvVars: prefixEnvVar("SOURCE_PREFIX"),
		Usage:   "Path prefix stripped from source locations in stack traces",
	}
	Attachments = &cli.StringSliceFlag{
		Name:    "attachment",
		EnvVars: prefixEnvVar("ATTACHMENT"),
		Usage:   "File to list as a run attachment in the result summary (repeatable)",
	}
	Incremental = &cli.BoolFlag{
		Name:    "incremental",
		Value:   false,
		EnvVars: prefixEnvVar("INCREMENTAL"),
		Usage:   "Rewrite the document at every section boundary instead of only at run end",
	}
	AtomicWrites = &cli.BoolFlag{
		Name:    "atomic-writes",
		Value:   false,
		EnvVars: prefixEnvVar("ATOMIC_WRITES"),
		Usage:   "Stage each document in a temp file and rename it into place",
	}
	Manifest = &cli.StringFlag{
		Name:    "manifest",
		Value:   "",
		EnvVars: prefixEnvVar("MANIFEST"),
		Usage:   "Path to a YAML run manifest (eg. 'trx-run.yaml'); flags win over manifest values",
	}
	ServeEnabled = &cli.BoolFlag{
		Name:    "serve.enabled",
		Value:   false,
		EnvVars: prefixEnvVar("SERVE_ENABLED"),
		Usage:   "Serve the latest document and run status over HTTP while replaying",
	}
	ServeAddr = &cli.StringFlag{
		Name:    "serve.addr",
		Value:   "0.0.0.0:7400",
		EnvVars: prefixEnvVar("SERVE_ADDR"),
		Usage:   "Listen address for the progress server",
	}
	MetricsAddr = &cli.StringFlag{
		Name:    "metrics.addr",
		Value:   "0.0.0.0:7300",
		EnvVars: prefixEnvVar("METRICS_ADDR"),
		Usage:   "Listen address for the Prometheus metrics server",
	}
	HealthzAddr = &cli.StringFlag{
		Name:    "healthz.addr",
		Value:   "0.0.0.0:8080",
		EnvVars: prefixEnvVar("HEALTHZ_ADDR"),
		Usage:   "Listen address for the health check server",
	}
	Summary = &cli.BoolFlag{
		Name:    "summary",
		Value:   true,
		EnvVars: prefixEnvVar("SUMMARY"),
		Usage:   "Print a result table (and section trees for failures) after the run",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log.level",
		Value:   "info",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output (debug, info, warn, error)",
	}
	LogFormat = &cli.StringFlag{
		Name:    "log.format",
		Value:   "text",
		EnvVars: prefixEnvVar("LOG_FORMAT"),
		Usage:   "Format the log output. Supported formats: 'text', 'json'",
	}
	TracingEnabled = &cli.BoolFlag{
		Name:    "tracing.enabled",
		Value:   false,
		EnvVars: prefixEnvVar("TRACING_ENABLED"),
		Usage:   "Export OpenTelemetry traces for the replay",
	}
)

var requiredFlags = []cli.Flag{
	EventsFile,
	OutputFile,
}

var optionalFlags = []cli.Flag{
	RunName,
	SourcePrefix,
	Attachments,
	Incremental,
	AtomicWrites,
	Manifest,
	ServeEnabled,
	ServeAddr,
	MetricsAddr,
	HealthzAddr,
	Summary,
	LogLevel,
	LogFormat,
	TracingEnabled,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

// FlagNameToEnvVarName mirrors the derivation prefixEnvVar uses, for tests
// that assert every flag follows it.
func FlagNameToEnvVarName(name string) string {
	upper := strings.ToUpper(name)
	upper = strings.ReplaceAll(upper, ".", "_")
	upper = strings.ReplaceAll(upper, "-", "_")
	return EnvVarPrefix + "_" + upper
}
