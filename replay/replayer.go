package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/testwire/trx-reporter/capture"
	"github.com/testwire/trx-reporter/types"
)

// Event logs can carry whole stdout chunks on one line, so the scanner
// buffer is generous.
const maxEventBytes = 4 * 1024 * 1024

// Replayer decodes an event log line by line and drives a listener with it.
// Output events are routed into the capture buffers the listener drains, and
// every other event maps to one listener call.
type Replayer struct {
	listener types.EngineListener
	stdOut   *capture.Buffer
	stdErr   *capture.Buffer
	clock    *Clock
	log      log.Logger
	tracer   trace.Tracer

	depth    int
	testSpan trace.Span
}

// NewReplayer wires a replayer to its listener. stdOut and stdErr may be nil
// when the log carries no output events; clock may be nil when recorded
// timings should be ignored.
func NewReplayer(listener types.EngineListener, stdOut, stdErr *capture.Buffer, clock *Clock, logger log.Logger) *Replayer {
	return &Replayer{
		listener: listener,
		stdOut:   stdOut,
		stdErr:   stdErr,
		clock:    clock,
		log:      logger,
		tracer:   otel.Tracer("trx replay"),
	}
}

// Run replays the whole log from src. The first line must be a schema event
// with a supported version. A log that ends without a run-ended event (the
// producer crashed) is finalized on its behalf so the aborted state still
// reaches the document.
func (r *Replayer) Run(ctx context.Context, src io.Reader) error {
	ctx, span := r.tracer.Start(ctx, "replay run")
	defer span.End()

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventBytes)

	sawSchema := false
	sawRunEnded := false
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("decoding event log line %d: %w", lineNo, err)
		}

		if !sawSchema {
			if ev.Kind != EventSchema {
				return fmt.Errorf("event log must open with a schema event, got %q on line %d", ev.Kind, lineNo)
			}
			if err := checkSchema(ev.Version); err != nil {
				return err
			}
			sawSchema = true
			continue
		}

		if r.clock != nil {
			r.clock.Advance(ev.Time)
		}
		ended, err := r.apply(ctx, ev, lineNo)
		if err != nil {
			return err
		}
		if ended {
			sawRunEnded = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event log: %w", err)
	}
	if !sawSchema {
		return errors.New("event log is empty")
	}
	if !sawRunEnded {
		r.log.Warn("Event log ended without a run-ended event; finalizing the aborted run")
		r.endTestSpan()
		return r.listener.TestRunEnded()
	}
	return nil
}

// apply dispatches one event. It reports whether the event ended the run.
func (r *Replayer) apply(ctx context.Context, ev Event, lineNo int) (bool, error) {
	switch ev.Kind {
	case EventRunStarted:
		r.listener.TestRunStarting(types.RunInfo{Name: ev.Name})
	case EventGroupStarted:
		r.listener.TestGroupStarting(types.GroupInfo{Name: ev.Name})
	case EventCaseStarted:
		r.listener.TestCaseStarting(ev.Tags)
	case EventSectionStarted:
		if r.depth == 0 {
			_, r.testSpan = r.tracer.Start(ctx, fmt.Sprintf("test %s", ev.Name))
		}
		r.depth++
		r.listener.SectionStarting(types.SectionDescriptor{Name: ev.Name, File: ev.File, Line: ev.Line})
	case EventAssertion:
		r.listener.AssertionEnded(types.Assertion{
			Kind:       assertionKind(ev.Result),
			Macro:      ev.Macro,
			Expression: ev.Expression,
			Expanded:   ev.Expanded,
			Message:    ev.Message,
			File:       ev.File,
			Line:       ev.Line,
			Info:       ev.Info,
		})
	case EventSectionEnded:
		r.listener.SectionEnded(types.SectionStats{
			Section: types.SectionDescriptor{Name: ev.Name, File: ev.File, Line: ev.Line},
			Passed:  ev.Passed,
			Failed:  ev.Failed,
		})
		if r.depth > 0 {
			r.depth--
			if r.depth == 0 {
				r.endTestSpan()
			}
		}
	case EventStdOut:
		if r.stdOut != nil {
			r.stdOut.WriteString(ev.Text)
		}
	case EventStdErr:
		if r.stdErr != nil {
			r.stdErr.WriteString(ev.Text)
		}
	case EventFatal:
		r.listener.FatalErrorEncountered(ev.Signal)
	case EventRunEnded:
		r.endTestSpan()
		r.depth = 0
		return true, r.listener.TestRunEnded()
	default:
		// Minor schema bumps may add kinds; skipping them keeps old
		// replayers usable.
		r.log.Warn("Skipping unknown event kind", "kind", ev.Kind, "line", lineNo)
	}
	return false, nil
}

func (r *Replayer) endTestSpan() {
	if r.testSpan != nil {
		r.testSpan.End()
		r.testSpan = nil
	}
}

// assertionKind maps a recorded outcome onto the known kinds, treating
// anything unrecognized as a plain failure rather than dropping it.
func assertionKind(s string) types.AssertionKind {
	switch kind := types.AssertionKind(s); kind {
	case types.AssertionPassed, types.ExpressionFailed, types.ThrewException, types.OtherFailed:
		return kind
	default:
		return types.OtherFailed
	}
}
