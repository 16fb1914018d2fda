// Package reporter adapts engine listener events into section traversals and
// TRX documents. It is the binding layer between an execution engine (live
// or replayed from an event log) and the accumulation, grouping and
// serialization packages underneath.
package reporter

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testwire/trx-reporter/capture"
	"github.com/testwire/trx-reporter/metrics"
	"github.com/testwire/trx-reporter/output"
	"github.com/testwire/trx-reporter/traversal"
	"github.com/testwire/trx-reporter/trx"
	"github.com/testwire/trx-reporter/types"
)

// AbortedMarker is appended to a traversal's stderr when the run ends while
// the traversal is still open.
const AbortedMarker = "<Test aborted unexpectedly; output may be incomplete>\n"

// Status is the progress snapshot served over HTTP while a run is being
// reported.
type Status struct {
	Tests      int  `json:"tests"`
	Traversals int  `json:"traversals"`
	Failed     int  `json:"failed"`
	Complete   bool `json:"complete"`
}

// TrxReporter implements types.EngineListener. Events arrive on a single
// goroutine; the mutex only guards the emitted snapshot, which HTTP handlers
// read concurrently.
type TrxReporter struct {
	log log.Logger

	recorder   *traversal.Recorder
	serializer *trx.Serializer
	target     output.Target

	stdOut capture.Source
	stdErr capture.Source

	incremental bool
	now         func() time.Time

	runName      string
	pendingGroup string
	pendingTags  []string

	mu       sync.Mutex
	snapshot []byte
	groups   []*trx.ResultGroup
	status   Status
	failed   bool
}

var _ types.EngineListener = (*TrxReporter)(nil)

// New creates a reporter that serializes into target. runName is the
// fallback TestRun name; a run-started event carrying a name overrides it.
func New(runName string, target output.Target) *TrxReporter {
	return &TrxReporter{
		log:        log.New("module", "reporter"),
		recorder:   traversal.NewRecorder(),
		serializer: trx.NewSerializer(runName, "", nil),
		target:     target,
		stdOut:     capture.Nop{},
		stdErr:     capture.Nop{},
		now:        time.Now,
		runName:    runName,
	}
}

// WithLogger sets the logger used for lifecycle events.
func (r *TrxReporter) WithLogger(l log.Logger) *TrxReporter {
	r.log = l
	return r
}

// WithCapture installs the redirected-output sources drained at every
// traversal completion.
func (r *TrxReporter) WithCapture(stdOut, stdErr capture.Source) *TrxReporter {
	if stdOut != nil {
		r.stdOut = stdOut
	}
	if stdErr != nil {
		r.stdErr = stdErr
	}
	return r
}

// WithSourcePrefix sets the path prefix stripped from stack trace locations.
func (r *TrxReporter) WithSourcePrefix(prefix string) *TrxReporter {
	r.serializer.SourcePrefix = prefix
	return r
}

// WithAttachments registers files to list in the document's result summary.
func (r *TrxReporter) WithAttachments(paths ...string) *TrxReporter {
	r.serializer.AttachmentPaths = append(r.serializer.AttachmentPaths, paths...)
	return r
}

// WithIncremental enables document re-emission at every section boundary
// instead of only at run end.
func (r *TrxReporter) WithIncremental(enabled bool) *TrxReporter {
	r.incremental = enabled
	return r
}

// WithClock injects the time source. Replays use the event log's recorded
// timestamps so documents keep the original run's timings.
func (r *TrxReporter) WithClock(now func() time.Time) *TrxReporter {
	if now != nil {
		r.now = now
		r.serializer.Now = now
	}
	return r
}

func (r *TrxReporter) TestRunStarting(run types.RunInfo) {
	if run.Name != "" {
		r.runName = run.Name
		r.serializer.RunName = run.Name
	}
	r.recorder.Reset()
	r.stdOut.Reset()
	r.stdErr.Reset()
	metrics.SetRunInProgress(true)
	r.log.Info("Test run starting", "run", r.runName)
}

func (r *TrxReporter) TestGroupStarting(group types.GroupInfo) {
	r.pendingGroup = group.Name
	r.log.Debug("Test group starting", "group", group.Name)
}

func (r *TrxReporter) TestCaseStarting(tags []string) {
	r.pendingTags = tags
}

func (r *TrxReporter) SectionStarting(desc types.SectionDescriptor) {
	cur := r.recorder.Current()
	if len(cur.Sections()) == 0 {
		cur.RunName = r.runName
		cur.GroupName = r.pendingGroup
		cur.Tags = r.pendingTags
	}
	cur.BeginSection(desc, r.now())
	if r.incremental {
		r.emitProvisional()
	}
}

func (r *TrxReporter) AssertionEnded(a types.Assertion) {
	cur := r.recorder.Current()
	if cur.HasFatal() {
		// Restricted context: only the fixed-size fatal origin may change.
		if !a.OK() {
			cur.RecordAssertion(a)
		}
		return
	}
	metrics.RecordAssertion(a.Kind)
	if !a.OK() {
		cur.RecordAssertion(a)
	}
}

func (r *TrxReporter) SectionEnded(stats types.SectionStats) {
	cur := r.recorder.Current()
	cur.EndSection(stats, r.now())
	if cur.IsComplete() {
		r.finishTraversal(false)
	}
	if r.incremental {
		r.emitProvisional()
	}
}

// FatalErrorEncountered is callable from a signal handler: it performs
// fixed-size writes and a label-free counter increment, nothing else.
func (r *TrxReporter) FatalErrorEncountered(signalName string) {
	r.recorder.Current().OnFatalError(signalName)
	metrics.RecordFatalSignal()
}

func (r *TrxReporter) TestRunEnded() error {
	if len(r.recorder.Current().Sections()) > 0 {
		// The run died mid-traversal; flush what we have as an aborted
		// result.
		r.finishTraversal(true)
	}
	err := r.emit(true)
	metrics.SetRunInProgress(false)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.status.Complete = true
	failed := r.failed
	groups := r.groups
	r.mu.Unlock()
	for _, g := range groups {
		if g.IsOk() {
			metrics.RecordTestResult(trx.OutcomePassed)
		} else {
			metrics.RecordTestResult(trx.OutcomeFailed)
		}
	}
	r.log.Info("Test run ended", "run", r.runName, "tests", len(groups), "failed", failed)
	return r.target.Close()
}

// finishTraversal drains redirected output into the current traversal and
// moves it to the completed set. aborted marks traversals cut off by the run
// ending underneath them.
func (r *TrxReporter) finishTraversal(aborted bool) {
	cur := r.recorder.Current()
	if aborted {
		cur.AppendStdErr(AbortedMarker, "")
	}
	cur.AppendStdOut(r.stdOut.Contents(), trx.StdOutSeparator)
	r.stdOut.Reset()
	cur.AppendStdErr(r.stdErr.Contents(), trx.StdErrSeparator)
	r.stdErr.Reset()

	done := r.recorder.FinishCurrent()
	status := metrics.TraversalCompleted
	if !done.IsComplete() {
		status = metrics.TraversalIncomplete
	}
	metrics.RecordTraversal(status)
	r.log.Debug("Traversal finished", "sections", len(done.Sections()), "ok", done.IsOk())
}

// emitProvisional re-emits mid-run and downgrades failures to log lines; the
// listener contract has nowhere to return them from section events, and the
// final emission will surface a persistent problem anyway.
func (r *TrxReporter) emitProvisional() {
	if err := r.emit(false); err != nil {
		r.log.Error("Incremental emission failed", "err", err)
	}
}

func (r *TrxReporter) emit(final bool) error {
	groups, err := trx.GroupTraversals(r.recorder.All())
	if err != nil {
		metrics.RecordErrorDetails("group_traversals", err)
		return err
	}
	if len(groups) == 0 {
		if final {
			r.log.Warn("No traversals recorded; skipping document emission")
		}
		return nil
	}
	doc, err := r.serializer.Bytes(groups)
	if err != nil {
		metrics.RecordErrorDetails("serialize", err)
		return err
	}
	if err := r.target.Emit(doc); err != nil {
		metrics.RecordErrorDetails("emit", err)
		return err
	}
	mode := metrics.EmissionIncremental
	if final {
		mode = metrics.EmissionFinal
	}
	metrics.RecordDocumentEmitted(mode)

	traversals, failed := 0, 0
	for _, g := range groups {
		traversals += len(g.Traversals)
		if !g.IsOk() {
			failed++
		}
	}
	r.mu.Lock()
	r.snapshot = doc
	r.groups = groups
	r.failed = failed > 0
	r.status.Tests = len(groups)
	r.status.Traversals = traversals
	r.status.Failed = failed
	r.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the most recently emitted document, or nil
// before the first emission. Safe for concurrent use.
func (r *TrxReporter) Snapshot() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot == nil {
		return nil
	}
	out := make([]byte, len(r.snapshot))
	copy(out, r.snapshot)
	return out
}

// Status returns the progress counters as of the last emission. Safe for
// concurrent use.
func (r *TrxReporter) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Groups returns the result groups from the most recent emission, for
// console rendering after the run.
func (r *TrxReporter) Groups() []*trx.ResultGroup {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.groups
}

// Failed reports whether the last emitted document carried any failed
// result.
func (r *TrxReporter) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}
