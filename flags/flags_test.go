package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestOptionalFlagsDontSetRequired asserts that all flags deemed optional set
// the Required field to false.
func TestOptionalFlagsDontSetRequired(t *testing.T) {
	for _, flag := range optionalFlags {
		reqFlag, ok := flag.(cli.RequiredFlag)
		require.True(t, ok)
		require.False(t, reqFlag.IsRequired())
	}
}

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range Flags {
		name := flag.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestHasEnvVar(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
		})
	}
}

func TestEnvVarFormat(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
			require.Equal(t, FlagNameToEnvVarName(flagName), envFlags[0])
		})
	}
}

func TestCheckRequired(t *testing.T) {
	app := &cli.App{
		// Required is deliberately not set on these stand-ins so the
		// explicit check is what trips.
		Flags: []cli.Flag{
			&cli.StringFlag{Name: EventsFile.Name},
			&cli.StringFlag{Name: OutputFile.Name},
		},
		Action: func(ctx *cli.Context) error {
			return CheckRequired(ctx)
		},
	}

	err := app.Run([]string{"app", "--events", "run.jsonl", "--output", "out.trx"})
	assert.NoError(t, err)

	err = app.Run([]string{"app", "--events", "run.jsonl"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output is required")

	err = app.Run([]string{"app"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events is required")
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, "Unnamed test run", RunName.Value)
	assert.True(t, Summary.Value)
	assert.False(t, Incremental.Value)
	assert.Equal(t, "info", LogLevel.Value)
	assert.Equal(t, "text", LogFormat.Value)
	assert.Equal(t, "0.0.0.0:7400", ServeAddr.Value)
}
