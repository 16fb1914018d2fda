// Package replay reads recorded engine event logs (JSON Lines) and drives an
// EngineListener with them, reproducing the run the log captured.
package replay

import (
	"fmt"
	"time"

	"golang.org/x/mod/semver"
)

// Event kinds, one per line of the log. The schema event must come first.
const (
	EventSchema         = "schema"
	EventRunStarted     = "run-started"
	EventGroupStarted   = "group-started"
	EventCaseStarted    = "case-started"
	EventSectionStarted = "section-started"
	EventAssertion      = "assertion"
	EventSectionEnded   = "section-ended"
	EventStdOut         = "stdout"
	EventStdErr         = "stderr"
	EventFatal          = "fatal"
	EventRunEnded       = "run-ended"
)

// SchemaMajor is the event log major version this replayer understands.
// Minor and patch bumps are additive; unknown fields and kinds are skipped.
const SchemaMajor = "v1"

// Event is one decoded log line. The field set is the union across kinds;
// each kind reads the fields it cares about and ignores the rest.
type Event struct {
	Kind string    `json:"event"`
	Time time.Time `json:"time,omitempty"`

	// schema
	Version string `json:"version,omitempty"`

	// run-started, group-started, section-started, section-ended
	Name string `json:"name,omitempty"`

	// section-started, assertion
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`

	// case-started
	Tags []string `json:"tags,omitempty"`

	// assertion
	Result     string   `json:"kind,omitempty"`
	Macro      string   `json:"macro,omitempty"`
	Expression string   `json:"expression,omitempty"`
	Expanded   string   `json:"expanded,omitempty"`
	Message    string   `json:"message,omitempty"`
	Info       []string `json:"info,omitempty"`

	// section-ended
	Passed int `json:"passed,omitempty"`
	Failed int `json:"failed,omitempty"`

	// stdout, stderr
	Text string `json:"text,omitempty"`

	// fatal
	Signal string `json:"signal,omitempty"`
}

// checkSchema gates on the log's declared version: anything outside the
// supported major is rejected rather than misread.
func checkSchema(version string) error {
	if !semver.IsValid(version) {
		return fmt.Errorf("invalid event log schema version %q", version)
	}
	if semver.Major(version) != SchemaMajor {
		return fmt.Errorf("unsupported event log schema %s (want %s.x.x)", version, SchemaMajor)
	}
	return nil
}
