package trx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/testwire/trx-reporter/format"
	"github.com/testwire/trx-reporter/traversal"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Output merge separators. A traversal's own text (INFO lines) comes first;
// redirected output follows behind a marker so readers can tell the two
// apart.
const (
	StdOutSeparator = "--- full standard output follows ---\n"
	StdErrSeparator = "--- full standard error output follows ---\n"
)

// Serializer renders grouped traversals as a TRX document. A Serializer is
// reusable across emissions of the same run: the default test list keeps its
// id between documents while each emitted TestRun gets a fresh one.
type Serializer struct {
	// RunName is the fallback TestRun name when the traversals carry none.
	RunName string
	// SourcePrefix is stripped from source paths in stack traces.
	SourcePrefix string
	// AttachmentPaths are emitted as ResultFile entries in the summary.
	AttachmentPaths []string
	// Now supplies the clock for in-progress fallbacks. Tests and replays
	// inject their own.
	Now func() time.Time

	listID string
}

func NewSerializer(runName, sourcePrefix string, attachments []string) *Serializer {
	return &Serializer{
		RunName:         runName,
		SourcePrefix:    sourcePrefix,
		AttachmentPaths: attachments,
		Now:             time.Now,
		listID:          format.NewGUID(),
	}
}

// Serialize builds the document for groups and writes it to w, XML
// declaration included. Groups must be non-empty and every group must hold
// at least one traversal; anything else is a UsageError.
func (s *Serializer) Serialize(w io.Writer, groups []*ResultGroup) error {
	doc, err := s.Bytes(groups)
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}

// Bytes is Serialize into a fresh buffer.
func (s *Serializer) Bytes(groups []*ResultGroup) ([]byte, error) {
	doc, err := s.BuildDocument(groups)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding trx document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// BuildDocument assembles the document tree without encoding it.
func (s *Serializer) BuildDocument(groups []*ResultGroup) (*Document, error) {
	if len(groups) == 0 {
		return nil, &UsageError{Message: "refusing to serialize an empty result collection"}
	}
	for _, g := range groups {
		if len(g.Traversals) == 0 {
			return nil, &UsageError{Message: fmt.Sprintf("result group %q has no traversals", g.Name)}
		}
	}

	now := s.now()
	start := groups[0].StartTime(now)
	finish := groups[len(groups)-1].FinishTime(now)

	doc := &Document{
		ID:      format.NewGUID(),
		Name:    s.runNameFor(groups[0]),
		RunUser: RunUser,
		XMLNS:   Namespace,
		Times: Times{
			Creation: format.Timestamp(start),
			Queuing:  format.Timestamp(start),
			Start:    format.Timestamp(start),
			Finish:   format.Timestamp(finish),
		},
		TestLists: TestLists{
			Lists: []TestList{{Name: DefaultListName, ID: s.defaultListID()}},
		},
	}

	allOk := true
	for _, g := range groups {
		result, err := s.buildResult(g, now)
		if err != nil {
			return nil, err
		}
		doc.Results.UnitTestResults = append(doc.Results.UnitTestResults, result)
		doc.TestDefinitions.UnitTests = append(doc.TestDefinitions.UnitTests, s.buildDefinition(g))
		doc.TestEntries.Entries = append(doc.TestEntries.Entries, TestEntry{
			TestID:      g.TestID,
			ExecutionID: g.ExecutionID,
			TestListID:  s.listID,
		})
		if !g.IsOk() {
			allOk = false
		}
	}

	doc.ResultSummary.Outcome = outcome(allOk)
	for _, path := range s.AttachmentPaths {
		if doc.ResultSummary.ResultFiles == nil {
			doc.ResultSummary.ResultFiles = &ResultFiles{}
		}
		doc.ResultSummary.ResultFiles.Files = append(doc.ResultSummary.ResultFiles.Files, ResultFile{Path: path})
	}
	return doc, nil
}

func (s *Serializer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Serializer) runNameFor(g *ResultGroup) string {
	if name := g.RunName(); name != "" {
		return name
	}
	return s.RunName
}

// defaultListID returns the TestList id shared by every result, creating it
// on first use so zero-value Serializers still work.
func (s *Serializer) defaultListID() string {
	if s.listID == "" {
		s.listID = format.NewGUID()
	}
	return s.listID
}

func (s *Serializer) buildResult(g *ResultGroup, now time.Time) (UnitTestResult, error) {
	start := g.StartTime(now)
	finish := g.FinishTime(now)
	r := UnitTestResult{
		ExecutionID:  g.ExecutionID,
		TestID:       g.TestID,
		TestName:     g.DisplayName(),
		ComputerName: ComputerName,
		TestType:     TestTypeID,
		TestListID:   s.defaultListID(),
		StartTime:    format.Timestamp(start),
		EndTime:      format.Timestamp(finish),
		Duration:     format.Duration(finish.Sub(start)),
		Outcome:      outcome(g.IsOk()),
	}

	if len(g.Traversals) == 1 {
		r.Output = s.buildOutput(g.Traversals[0])
		return r, nil
	}

	r.ResultType = resultTypeDataDriven
	r.InnerResults = &InnerResults{}
	for _, t := range g.Traversals {
		row, err := s.buildInnerResult(g, t, now)
		if err != nil {
			return UnitTestResult{}, err
		}
		r.InnerResults.UnitTestResults = append(r.InnerResults.UnitTestResults, row)
	}
	return r, nil
}

func (s *Serializer) buildInnerResult(g *ResultGroup, t *traversal.Traversal, now time.Time) (InnerUnitTestResult, error) {
	name, err := t.FullName()
	if err != nil {
		return InnerUnitTestResult{}, err
	}
	start, finish := traversalWindow(t, now)
	return InnerUnitTestResult{
		ExecutionID:       format.NewGUID(),
		TestID:            format.NewGUID(),
		TestName:          name,
		ComputerName:      ComputerName,
		TestType:          TestTypeID,
		TestListID:        s.defaultListID(),
		ParentExecutionID: g.ExecutionID,
		ResultType:        resultTypeDataRow,
		StartTime:         format.Timestamp(start),
		EndTime:           format.Timestamp(finish),
		Duration:          format.Duration(finish.Sub(start)),
		Outcome:           outcome(t.IsOk()),
		Output:            s.buildOutput(t),
	}, nil
}

// buildOutput renders one traversal's Output block, or nil when there is
// nothing to say. Incomplete traversals force StdOut and StdErr to be
// present even when empty, so consumers can tell "no output" from "output
// lost in a crash".
func (s *Serializer) buildOutput(t *traversal.Traversal) *Output {
	message := t.ErrorMessage()
	stack := t.StackMessage(s.SourcePrefix)
	stdOut := t.StdOut()
	stdErr := t.StdErr()
	incomplete := !t.IsComplete()

	if !incomplete && message == "" && stack == "" && stdOut == "" && stdErr == "" {
		return nil
	}

	out := &Output{}
	if stdOut != "" || incomplete {
		out.StdOut = &TextElement{Text: stdOut}
	}
	if stdErr != "" || incomplete {
		out.StdErr = &TextElement{Text: stdErr}
	}
	if message != "" || stack != "" {
		out.ErrorInfo = &ErrorInfo{}
		if message != "" {
			out.ErrorInfo.Message = &TextElement{Text: message}
		}
		if stack != "" {
			out.ErrorInfo.StackTrace = &TextElement{Text: stack}
		}
	}
	return out
}

func (s *Serializer) buildDefinition(g *ResultGroup) UnitTest {
	name := g.DisplayName()
	def := UnitTest{
		Name:    name,
		Storage: s.runNameFor(g),
		ID:      g.TestID,
		Execution: Execution{
			ID: g.ExecutionID,
		},
		TestMethod: TestMethod{
			CodeBase:        s.runNameFor(g),
			AdapterTypeName: AdapterTypeName,
			ClassName:       ClassName,
			Name:            name,
		},
	}
	for _, tag := range g.Tags {
		if def.TestCategory == nil {
			def.TestCategory = &TestCategory{}
		}
		def.TestCategory.Items = append(def.TestCategory.Items, TestCategoryItem{TestCategory: tag})
	}
	return def
}

func outcome(ok bool) string {
	if ok {
		return OutcomePassed
	}
	return OutcomeFailed
}

func traversalWindow(t *traversal.Traversal, now time.Time) (time.Time, time.Time) {
	start := t.StartTime()
	if start.IsZero() {
		start = now
	}
	finish := t.FinishTime()
	if finish.IsZero() || !t.IsComplete() {
		finish = now
	}
	return start, finish
}
