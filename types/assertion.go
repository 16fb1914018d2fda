package types

// AssertionKind classifies an assertion outcome
type AssertionKind string

const (
	AssertionPassed  AssertionKind = "passed"
	ExpressionFailed AssertionKind = "expression-failed"
	ThrewException   AssertionKind = "threw-exception"
	OtherFailed      AssertionKind = "other-failed"
)

// Assertion captures the reportable slice of one assertion outcome. The
// engine owns the full result; the reporter stores only what the document
// needs: classification, expression text (original and expanded), message,
// and source location. Info carries informational messages the engine
// attached to the assertion.
type Assertion struct {
	Kind       AssertionKind
	Macro      string // e.g. REQUIRE, CHECK
	Expression string // original expression text
	Expanded   string // expanded expression text, may equal Expression
	Message    string // exception or failure message
	File       string
	Line       int
	Info       []string
}

// OK reports whether the assertion outcome counts as a success.
func (a Assertion) OK() bool {
	return a.Kind == AssertionPassed
}

// ExpressionInMacro renders the assertion the way it appeared in source,
// e.g. "REQUIRE( x == 1 )". Falls back to the bare expression when the
// engine did not report a macro name.
func (a Assertion) ExpressionInMacro() string {
	if a.Macro == "" {
		return a.Expression
	}
	return a.Macro + "( " + a.Expression + " )"
}
