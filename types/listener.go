package types

// EngineListener is the lifecycle contract a test-execution engine drives.
// Calls arrive synchronously and in program order on a single goroutine;
// FatalErrorEncountered is the one re-entrant exception and implementations
// must treat it as callable from a restricted context (no allocation, no
// container growth).
//
// A reporter implements this interface; the engine (or an event-log
// replayer) calls it.
type EngineListener interface {
	TestRunStarting(run RunInfo)
	TestGroupStarting(group GroupInfo)
	TestCaseStarting(tags []string)
	SectionStarting(desc SectionDescriptor)
	AssertionEnded(a Assertion)
	SectionEnded(stats SectionStats)
	FatalErrorEncountered(signalName string)
	TestRunEnded() error
}
