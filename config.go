package reporter

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/testwire/trx-reporter/flags"
)

// Manifest mirrors the optional YAML run manifest. Manifest values act as
// defaults; any flag set explicitly on the command line wins.
type Manifest struct {
	RunName      string   `yaml:"run_name"`
	SourcePrefix string   `yaml:"source_prefix"`
	Attachments  []string `yaml:"attachments"`
	Incremental  bool     `yaml:"incremental"`
	AtomicWrites bool     `yaml:"atomic_writes"`
}

// LoadManifest reads a YAML manifest. Unknown keys are rejected so a typo in
// CI configuration fails loudly instead of being ignored.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest '%s': %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest '%s': %w", path, err)
	}
	return &m, nil
}

// Config holds the application configuration
type Config struct {
	EventsPath   string   // Event log to replay; "-" reads stdin
	OutputPath   string   // TRX document destination; "-" writes stdout
	RunName      string   // TestRun name when the event log carries none
	SourcePrefix string   // Prefix stripped from source locations in stack traces
	Attachments  []string // Files listed as run attachments in the result summary
	Incremental  bool     // Rewrite the document at every section boundary
	AtomicWrites bool     // Stage documents in a temp file and rename into place
	ServeEnabled bool     // Serve the latest document and status over HTTP
	ServeAddr    string
	MetricsAddr  string
	HealthzAddr  string
	Summary      bool // Print a result table after the run
	Log          log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	// Parse flags
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	cfg := &Config{
		EventsPath:   ctx.String(flags.EventsFile.Name),
		OutputPath:   ctx.String(flags.OutputFile.Name),
		RunName:      ctx.String(flags.RunName.Name),
		SourcePrefix: ctx.String(flags.SourcePrefix.Name),
		Attachments:  ctx.StringSlice(flags.Attachments.Name),
		Incremental:  ctx.Bool(flags.Incremental.Name),
		AtomicWrites: ctx.Bool(flags.AtomicWrites.Name),
		ServeEnabled: ctx.Bool(flags.ServeEnabled.Name),
		ServeAddr:    ctx.String(flags.ServeAddr.Name),
		MetricsAddr:  ctx.String(flags.MetricsAddr.Name),
		HealthzAddr:  ctx.String(flags.HealthzAddr.Name),
		Summary:      ctx.Bool(flags.Summary.Name),
		Log:          log,
	}

	if path := ctx.String(flags.Manifest.Name); path != "" {
		m, err := LoadManifest(path)
		if err != nil {
			return nil, err
		}
		cfg.applyManifest(ctx, m)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyManifest fills in manifest values for every option the command line
// left untouched.
func (c *Config) applyManifest(ctx *cli.Context, m *Manifest) {
	if m.RunName != "" && !ctx.IsSet(flags.RunName.Name) {
		c.RunName = m.RunName
	}
	if m.SourcePrefix != "" && !ctx.IsSet(flags.SourcePrefix.Name) {
		c.SourcePrefix = m.SourcePrefix
	}
	if len(m.Attachments) > 0 && !ctx.IsSet(flags.Attachments.Name) {
		c.Attachments = m.Attachments
	}
	if m.Incremental && !ctx.IsSet(flags.Incremental.Name) {
		c.Incremental = true
	}
	if m.AtomicWrites && !ctx.IsSet(flags.AtomicWrites.Name) {
		c.AtomicWrites = true
	}
}

func (c *Config) validate() error {
	if c.EventsPath == "" {
		return errors.New("events path is required")
	}
	if c.OutputPath == "" {
		return errors.New("output path is required")
	}
	if c.OutputPath == "-" && c.Incremental {
		return errors.New("incremental mode cannot write to stdout; give --output a file path")
	}
	if c.OutputPath == "-" && c.AtomicWrites {
		return errors.New("atomic writes require a file output path")
	}
	for _, a := range c.Attachments {
		if a == "" {
			return errors.New("attachment paths must not be empty")
		}
	}
	return nil
}
