package trx

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testwire/trx-reporter/traversal"
	"github.com/testwire/trx-reporter/types"
)

var serializeClock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestSerializer() *Serializer {
	s := NewSerializer("Unit tests", "", nil)
	s.Now = func() time.Time { return serializeClock.Add(time.Minute) }
	return s
}

func mustGroup(t *testing.T, ts ...*traversal.Traversal) []*ResultGroup {
	t.Helper()
	groups, err := GroupTraversals(ts)
	require.NoError(t, err)
	return groups
}

func passingTraversal(t *testing.T, path ...string) *traversal.Traversal {
	t.Helper()
	tr := &traversal.Traversal{}
	now := serializeClock
	for _, name := range path {
		tr.BeginSection(types.SectionDescriptor{Name: name, File: "/src/case_test.cpp", Line: 1}, now)
		now = now.Add(time.Second)
	}
	for i := len(path) - 1; i >= 0; i-- {
		tr.EndSection(types.SectionStats{Section: types.SectionDescriptor{Name: path[i]}, Passed: 1}, now)
		now = now.Add(time.Second)
	}
	return tr
}

func TestSerializeRejectsEmptyInput(t *testing.T) {
	s := newTestSerializer()

	err := s.Serialize(&bytes.Buffer{}, nil)
	require.Error(t, err)
	var usageErr *UsageError
	assert.ErrorAs(t, err, &usageErr)

	err = s.Serialize(&bytes.Buffer{}, []*ResultGroup{{Name: "empty"}})
	require.Error(t, err)
	assert.ErrorAs(t, err, &usageErr)
	assert.Contains(t, err.Error(), `"empty"`)
}

func TestSerializeFlatPassingResult(t *testing.T) {
	s := newTestSerializer()
	groups := mustGroup(t, passingTraversal(t, "Simple case"))

	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, groups))
	raw := buf.String()

	assert.True(t, strings.HasPrefix(raw, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"))

	var doc Document
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "Unit tests", doc.Name)
	assert.Equal(t, RunUser, doc.RunUser)
	assert.Equal(t, Namespace, doc.XMLNS)
	assert.NotEmpty(t, doc.ID)

	require.Len(t, doc.Results.UnitTestResults, 1)
	r := doc.Results.UnitTestResults[0]
	assert.Equal(t, "Simple case", r.TestName)
	assert.Equal(t, ComputerName, r.ComputerName)
	assert.Equal(t, TestTypeID, r.TestType)
	assert.Equal(t, OutcomePassed, r.Outcome)
	assert.Empty(t, r.ResultType)
	assert.Nil(t, r.Output, "clean results carry no Output block")
	assert.Nil(t, r.InnerResults)
	assert.Equal(t, "2024-05-01T12:00:00Z", r.StartTime)
	assert.Equal(t, "2024-05-01T12:00:01Z", r.EndTime)
	assert.Equal(t, "00:00:01.0000000", r.Duration)

	require.Len(t, doc.TestDefinitions.UnitTests, 1)
	def := doc.TestDefinitions.UnitTests[0]
	assert.Equal(t, "Simple case", def.Name)
	assert.Equal(t, "Unit tests", def.Storage)
	assert.Equal(t, r.TestID, def.ID)
	assert.Equal(t, r.ExecutionID, def.Execution.ID)
	assert.Equal(t, AdapterTypeName, def.TestMethod.AdapterTypeName)
	assert.Equal(t, ClassName, def.TestMethod.ClassName)

	require.Len(t, doc.TestEntries.Entries, 1)
	assert.Equal(t, r.TestID, doc.TestEntries.Entries[0].TestID)
	assert.Equal(t, r.ExecutionID, doc.TestEntries.Entries[0].ExecutionID)

	require.Len(t, doc.TestLists.Lists, 1)
	list := doc.TestLists.Lists[0]
	assert.Equal(t, DefaultListName, list.Name)
	assert.Equal(t, list.ID, r.TestListID)

	assert.Equal(t, OutcomePassed, doc.ResultSummary.Outcome)
}

// TestSerializeElementOrder pins the schema's element sequence: consumers of
// this format parse positionally, so TestEntries must precede TestLists.
func TestSerializeElementOrder(t *testing.T) {
	s := newTestSerializer()
	groups := mustGroup(t, passingTraversal(t, "Ordered"))

	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, groups))
	raw := buf.String()

	order := []string{"<Times", "<Results", "<TestDefinitions", "<TestEntries", "<TestLists", "<ResultSummary"}
	last := -1
	for _, tag := range order {
		idx := strings.Index(raw, tag)
		require.GreaterOrEqual(t, idx, 0, "missing element %s", tag)
		assert.Greater(t, idx, last, "%s out of order", tag)
		last = idx
	}
}

func TestSerializeDataDrivenGroup(t *testing.T) {
	s := newTestSerializer()
	first := passingTraversal(t, "Generator", "row one")
	second := passingTraversal(t, "Generator", "row two")
	failed := types.Assertion{
		Kind:       types.ExpressionFailed,
		Macro:      "CHECK",
		Expression: "v < 10",
		Expanded:   "12 < 10",
		File:       "/src/case_test.cpp",
		Line:       8,
	}
	second.RecordAssertion(failed)

	groups := mustGroup(t, first, second)
	require.Len(t, groups, 1)

	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, groups))

	var doc Document
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Results.UnitTestResults, 1)
	parent := doc.Results.UnitTestResults[0]
	assert.Equal(t, "DataDrivenTest", parent.ResultType)
	assert.Equal(t, OutcomeFailed, parent.Outcome, "one failing row fails the group")
	assert.Nil(t, parent.Output)

	require.NotNil(t, parent.InnerResults)
	rows := parent.InnerResults.UnitTestResults
	require.Len(t, rows, 2)

	assert.Equal(t, "Generator / row one", rows[0].TestName)
	assert.Equal(t, "Generator / row two", rows[1].TestName)
	for _, row := range rows {
		assert.Equal(t, parent.ExecutionID, row.ParentExecutionID)
		assert.Equal(t, "DataDrivenDataRow", row.ResultType)
		assert.NotEqual(t, parent.ExecutionID, row.ExecutionID, "rows get fresh ids")
	}
	assert.NotEqual(t, rows[0].ExecutionID, rows[1].ExecutionID)

	assert.Equal(t, OutcomePassed, rows[0].Outcome)
	assert.Equal(t, OutcomeFailed, rows[1].Outcome)
	require.NotNil(t, rows[1].Output)
	require.NotNil(t, rows[1].Output.ErrorInfo)
	assert.Equal(t, "CHECK( v < 10 ) as CHECK ( 12 < 10 ) \n", rows[1].Output.ErrorInfo.Message.Text)
	assert.Equal(t, "at Testwire.Test.Method() in /src/case_test.cpp:line 8\n", rows[1].Output.ErrorInfo.StackTrace.Text)

	assert.Equal(t, OutcomeFailed, doc.ResultSummary.Outcome)
}

func TestSerializeInProgressGroup(t *testing.T) {
	s := newTestSerializer()
	open := &traversal.Traversal{}
	open.BeginSection(types.SectionDescriptor{Name: "Long case", File: "/src/slow_test.cpp", Line: 3}, serializeClock)

	groups := mustGroup(t, open)
	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, groups))
	raw := buf.String()

	var doc Document
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))

	require.Len(t, doc.Results.UnitTestResults, 1)
	r := doc.Results.UnitTestResults[0]
	assert.Equal(t, "Long case (in progress)", r.TestName)
	assert.Equal(t, OutcomeFailed, r.Outcome, "provisional outcome is Failed")

	// Incomplete results must carry explicitly empty output elements.
	assert.Contains(t, raw, "<StdOut></StdOut>")
	assert.Contains(t, raw, "<StdErr></StdErr>")
	require.NotNil(t, r.Output)
	require.NotNil(t, r.Output.ErrorInfo)
	assert.Contains(t, r.Output.ErrorInfo.Message.Text, "terminated unexpectedly")
	assert.Contains(t, r.Output.ErrorInfo.StackTrace.Text, "/src/slow_test.cpp:line 3")

	// The in-progress window falls back to the serializer clock.
	assert.Equal(t, "2024-05-01T12:01:00Z", r.StartTime)
	assert.Equal(t, "2024-05-01T12:01:00Z", r.EndTime)
}

func TestSerializeStripsSourcePrefix(t *testing.T) {
	s := NewSerializer("Unit tests", `C:\work\proj\`, nil)
	s.Now = func() time.Time { return serializeClock }

	tr := &traversal.Traversal{}
	desc := types.SectionDescriptor{Name: "Case", File: `C:\Work\Proj\tests\a_test.cpp`, Line: 4}
	tr.BeginSection(desc, serializeClock)
	tr.RecordAssertion(types.Assertion{Kind: types.OtherFailed, Message: "x", File: `C:\Work\Proj\tests\a_test.cpp`, Line: 9})
	tr.EndSection(types.SectionStats{Section: desc, Failed: 1}, serializeClock.Add(time.Second))

	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, mustGroup(t, tr)))

	var doc Document
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	stack := doc.Results.UnitTestResults[0].Output.ErrorInfo.StackTrace.Text
	assert.Equal(t, "at Testwire.Test.Method() in tests/a_test.cpp:line 9\n", stack)
}

func TestSerializeTagsBecomeCategories(t *testing.T) {
	s := newTestSerializer()
	tr := passingTraversal(t, "Tagged")
	tr.Tags = []string{"[fast]", "[io]"}

	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, mustGroup(t, tr)))

	var doc Document
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.TestDefinitions.UnitTests, 1)
	cat := doc.TestDefinitions.UnitTests[0].TestCategory
	require.NotNil(t, cat)
	require.Len(t, cat.Items, 2)
	assert.Equal(t, "[fast]", cat.Items[0].TestCategory)
	assert.Equal(t, "[io]", cat.Items[1].TestCategory)
}

func TestSerializeAttachments(t *testing.T) {
	s := NewSerializer("Unit tests", "", []string{"logs/engine.log", "artifacts/dump.bin"})
	s.Now = func() time.Time { return serializeClock }

	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, mustGroup(t, passingTraversal(t, "Case"))))

	var doc Document
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.NotNil(t, doc.ResultSummary.ResultFiles)
	require.Len(t, doc.ResultSummary.ResultFiles.Files, 2)
	assert.Equal(t, "logs/engine.log", doc.ResultSummary.ResultFiles.Files[0].Path)
}

func TestSerializeRunNameFromTraversal(t *testing.T) {
	s := newTestSerializer()
	tr := passingTraversal(t, "Case")
	tr.RunName = "nightly.exe"

	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, mustGroup(t, tr)))

	var doc Document
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "nightly.exe", doc.Name, "traversal-stamped run name wins over the fallback")
	assert.Equal(t, "nightly.exe", doc.TestDefinitions.UnitTests[0].Storage)
	assert.Equal(t, "nightly.exe", doc.TestDefinitions.UnitTests[0].TestMethod.CodeBase)
}

func TestSerializeFreshRunIDStableListID(t *testing.T) {
	s := newTestSerializer()
	groups := mustGroup(t, passingTraversal(t, "Case"))

	first, err := s.BuildDocument(groups)
	require.NoError(t, err)
	second, err := s.BuildDocument(groups)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "each emission is a distinct TestRun")
	assert.Equal(t, first.TestLists.Lists[0].ID, second.TestLists.Lists[0].ID,
		"the default test list id is stable across emissions")
}

func TestSerializeMergedOutputRoundTrips(t *testing.T) {
	s := newTestSerializer()
	tr := passingTraversal(t, "Output case")
	tr.AppendStdOut("line from test\n", StdOutSeparator)
	tr.AppendStdErr("warning: x\n", StdErrSeparator)

	var buf bytes.Buffer
	require.NoError(t, s.Serialize(&buf, mustGroup(t, tr)))

	var doc Document
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	out := doc.Results.UnitTestResults[0].Output
	require.NotNil(t, out)
	assert.Equal(t, "line from test\n", out.StdOut.Text)
	assert.Equal(t, "warning: x\n", out.StdErr.Text)
	assert.Nil(t, out.ErrorInfo)
	assert.Equal(t, OutcomePassed, doc.Results.UnitTestResults[0].Outcome,
		"output alone does not fail a result")
}
