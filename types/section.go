package types

// SectionDescriptor identifies one section of a test case at the point the
// engine opens it: a display name plus the source location of the section
// block. Descriptors are immutable once created; traversals reference the
// values the engine handed over.
type SectionDescriptor struct {
	Name string
	File string
	Line int
}

// SectionStats carries the per-section counters the engine reports when a
// section closes. The accumulator only needs the counts and the descriptor
// identity; anything else the engine tracks stays with the engine.
type SectionStats struct {
	Section SectionDescriptor
	Passed  int
	Failed  int
}

// RunInfo names a test run. The engine supplies it once per run; the
// reporter stamps it onto every traversal started under that run.
type RunInfo struct {
	Name string
}

// GroupInfo names a test group (a binary, a source file, or whatever unit
// the engine batches test cases under).
type GroupInfo struct {
	Name string
}
