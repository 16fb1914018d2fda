// Package traversal accumulates the state of one depth-first walk through a
// test's section tree. A traversal opens sections on the way down, records
// failing assertions as they happen, and closes sections on the way back up;
// it is complete once every opened section has closed.
//
// The accumulator is also the state a crash handler reads, so the post-fatal
// methods are written to be callable from a signal handler: no allocation,
// no container growth, no locks.
package traversal

import (
	"fmt"
	"strings"
	"time"

	"github.com/testwire/trx-reporter/format"
	"github.com/testwire/trx-reporter/types"
)

// IncompleteNote is the error message emitted for a traversal that never
// finished, typically because the process died mid-test.
const IncompleteNote = "Test execution terminated unexpectedly before this test completed. " +
	"Please see redirected output, if available, for more details.\n"

// stackFramePrefix is the synthetic frame name used in stack traces. TRX
// consumers expect managed-looking frames, so native source locations are
// wrapped in one.
const stackFramePrefix = "at Testwire.Test.Method() in "

// Traversal is one root-to-leaf path through a test's sections, together
// with everything observed along it: failing assertions, timing, redirected
// output and any fatal signal.
//
// Traversals are not safe for concurrent use and must not be copied once
// written to.
type Traversal struct {
	// RunName, GroupName and Tags are stamped by the event adapter when the
	// traversal's first section opens.
	RunName   string
	GroupName string
	Tags      []string

	sections   []types.SectionDescriptor
	stats      []types.SectionStats
	assertions []types.Assertion

	stdOut strings.Builder
	stdErr strings.Builder

	start  time.Time
	finish time.Time

	fatal       bool
	fatalSignal string
	// Fatal origin, updated by fixed-size writes only. When no assertion
	// arrives after the signal the last opened section's location is used
	// instead.
	fatalFile string
	fatalLine int
}

// BeginSection records a section opening. The first section of a traversal
// starts its clock.
func (t *Traversal) BeginSection(desc types.SectionDescriptor, now time.Time) {
	if len(t.sections) == 0 {
		t.start = now
	}
	t.sections = append(t.sections, desc)
}

// RecordAssertion stores a failing assertion and turns its attached info
// messages into stdout lines. After a fatal signal it degrades to fixed-size
// writes: only the assertion's source location is kept, as the fatal origin.
func (t *Traversal) RecordAssertion(a types.Assertion) {
	if t.fatal {
		t.fatalFile = a.File
		t.fatalLine = a.Line
		return
	}
	t.assertions = append(t.assertions, a)
	for _, msg := range a.Info {
		t.stdOut.WriteString("INFO: ")
		t.stdOut.WriteString(msg)
		t.stdOut.WriteByte('\n')
	}
}

// EndSection records a section closing and refreshes the traversal's finish
// time.
func (t *Traversal) EndSection(stats types.SectionStats, now time.Time) {
	t.stats = append(t.stats, stats)
	t.finish = now
}

// OnFatalError marks the traversal as fatally interrupted. Safe to call from
// a signal handler.
func (t *Traversal) OnFatalError(signalName string) {
	t.fatal = true
	t.fatalSignal = signalName
}

// IsComplete reports whether every opened section has closed. A traversal
// that never opened a section is not complete.
func (t *Traversal) IsComplete() bool {
	return len(t.sections) > 0 && len(t.stats) == len(t.sections)
}

// IsOk reports whether the traversal finished cleanly: complete, no fatal
// signal, and no recorded failing assertion.
func (t *Traversal) IsOk() bool {
	if !t.IsComplete() || t.fatal {
		return false
	}
	for _, a := range t.assertions {
		if !a.OK() {
			return false
		}
	}
	return true
}

// HasFatal reports whether a fatal signal was observed.
func (t *Traversal) HasFatal() bool { return t.fatal }

// FatalSignal returns the recorded signal name, empty when none or unknown.
func (t *Traversal) FatalSignal() string { return t.fatalSignal }

// Sections returns the opened sections, root first.
func (t *Traversal) Sections() []types.SectionDescriptor { return t.sections }

// Stats returns the closed-section stats in closing order.
func (t *Traversal) Stats() []types.SectionStats { return t.stats }

// Assertions returns the recorded assertions in arrival order.
func (t *Traversal) Assertions() []types.Assertion { return t.assertions }

// StartTime is when the first section opened; zero before that.
func (t *Traversal) StartTime() time.Time { return t.start }

// FinishTime is when the most recent section closed; zero before that.
func (t *Traversal) FinishTime() time.Time { return t.finish }

// StdOut returns the accumulated standard output text.
func (t *Traversal) StdOut() string { return t.stdOut.String() }

// StdErr returns the accumulated standard error text.
func (t *Traversal) StdErr() string { return t.stdErr.String() }

// FullName joins the sanitized section names with " / ", root first. It
// fails if any section name carries an unterminated tag.
func (t *Traversal) FullName() (string, error) {
	var b strings.Builder
	for i, s := range t.sections {
		name, err := format.SanitizeName(s.Name)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString(" / ")
		}
		b.WriteString(name)
	}
	return b.String(), nil
}

// ErrorMessage builds the ErrorInfo message text: an incomplete-execution
// note when the traversal never finished, one line per recorded failing
// assertion, and a trailing fatal-signal line when one was observed. Empty
// when there is nothing to report.
func (t *Traversal) ErrorMessage() string {
	var b strings.Builder
	if !t.IsComplete() {
		b.WriteString(IncompleteNote)
	}
	for _, a := range t.assertions {
		switch a.Kind {
		case types.ExpressionFailed:
			b.WriteString(a.ExpressionInMacro())
			if a.Expanded != "" && a.Expanded != a.Expression {
				b.WriteString(" as ")
				b.WriteString(a.Macro)
				b.WriteString(" ( ")
				b.WriteString(a.Expanded)
				b.WriteString(" ) ")
			}
			b.WriteByte('\n')
		case types.ThrewException:
			b.WriteString("Exception: ")
			b.WriteString(a.Message)
			b.WriteByte('\n')
		case types.OtherFailed:
			b.WriteString("Failed: ")
			b.WriteString(a.Message)
			b.WriteByte('\n')
		}
	}
	if t.fatal {
		b.WriteString("Fatal error")
		if t.fatalSignal != "" {
			b.WriteString(": ")
			b.WriteString(t.fatalSignal)
		}
		if file, line := t.fatalOrigin(); file != "" {
			fmt.Fprintf(&b, " at %s:%d", file, line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (t *Traversal) fatalOrigin() (string, int) {
	if t.fatalFile != "" {
		return t.fatalFile, t.fatalLine
	}
	if n := len(t.sections); n > 0 {
		return t.sections[n-1].File, t.sections[n-1].Line
	}
	return "", 0
}

// StackMessage builds the ErrorInfo stack text: one synthetic frame per
// recorded assertion, plus a frame for the last opened section when the
// traversal is incomplete. sourcePrefix is stripped from the front of paths
// that carry it; the comparison ignores case and separator style but the
// emitted path keeps the original characters, with backslashes flipped to
// forward slashes.
func (t *Traversal) StackMessage(sourcePrefix string) string {
	var b strings.Builder
	prefix := format.NormalizePath(sourcePrefix)
	for _, a := range t.assertions {
		writeStackFrame(&b, prefix, a.File, a.Line)
	}
	if !t.IsComplete() && len(t.sections) > 0 {
		last := t.sections[len(t.sections)-1]
		writeStackFrame(&b, prefix, last.File, last.Line)
	}
	return b.String()
}

func writeStackFrame(b *strings.Builder, normalizedPrefix, file string, line int) {
	trimmed := file
	if normalizedPrefix != "" && strings.HasPrefix(format.NormalizePath(file), normalizedPrefix) {
		trimmed = file[len(normalizedPrefix):]
	}
	b.WriteString(stackFramePrefix)
	b.WriteString(strings.ReplaceAll(trimmed, `\`, "/"))
	fmt.Fprintf(b, ":line %d\n", line)
}

// DurationString renders the elapsed time between the first section opening
// and the latest section closing.
func (t *Traversal) DurationString() string {
	if t.start.IsZero() || t.finish.IsZero() {
		return format.Duration(0)
	}
	return format.Duration(t.finish.Sub(t.start))
}

// AppendStdOut merges captured standard output into the traversal, writing
// separator between two non-empty chunks.
func (t *Traversal) AppendStdOut(text, separator string) {
	if text == "" {
		return
	}
	if t.stdOut.Len() > 0 {
		t.stdOut.WriteString(separator)
	}
	t.stdOut.WriteString(text)
}

// AppendStdErr merges captured standard error into the traversal, writing
// separator between two non-empty chunks.
func (t *Traversal) AppendStdErr(text, separator string) {
	if text == "" {
		return
	}
	if t.stdErr.Len() > 0 {
		t.stdErr.WriteString(separator)
	}
	t.stdErr.WriteString(text)
}

// Clear resets the traversal to its zero state for reuse.
func (t *Traversal) Clear() {
	*t = Traversal{}
}
