package trx

import "encoding/xml"

// Schema constants. The namespace and test-type GUID identify the document
// to VSTest-compatible consumers and must not change.
const (
	Namespace  = "http://microsoft.com/schemas/VisualStudio/TeamTest/2010"
	TestTypeID = "13cdc9d9-ddb5-4fa4-a97d-d965ccfc6d4b"

	ComputerName    = "localhost"
	AdapterTypeName = "executor://mstestadapter/v2"
	RunUser         = "TestwireTrxReporter"
	ClassName       = "Testwire.Test"
	DefaultListName = "Default test list"

	OutcomePassed = "Passed"
	OutcomeFailed = "Failed"

	resultTypeDataDriven = "DataDrivenTest"
	resultTypeDataRow    = "DataDrivenDataRow"
)

// Document is the TRX report. Field order is load-bearing: encoding/xml
// emits attributes and child elements in declaration order, and consumers of
// this format are known to parse positionally.
type Document struct {
	XMLName xml.Name `xml:"TestRun"`
	ID      string   `xml:"id,attr"`
	Name    string   `xml:"name,attr"`
	RunUser string   `xml:"runUser,attr"`
	XMLNS   string   `xml:"xmlns,attr"`

	Times           Times           `xml:"Times"`
	Results         Results         `xml:"Results"`
	TestDefinitions TestDefinitions `xml:"TestDefinitions"`
	TestEntries     TestEntries     `xml:"TestEntries"`
	TestLists       TestLists       `xml:"TestLists"`
	ResultSummary   ResultSummary   `xml:"ResultSummary"`
}

type Times struct {
	Creation string `xml:"creation,attr"`
	Queuing  string `xml:"queuing,attr"`
	Start    string `xml:"start,attr"`
	Finish   string `xml:"finish,attr"`
}

type Results struct {
	UnitTestResults []UnitTestResult `xml:"UnitTestResult"`
}

// UnitTestResult is a top-level result row. Data-driven parents carry
// ResultType and InnerResults; flat results carry Output directly.
type UnitTestResult struct {
	ExecutionID  string `xml:"executionId,attr"`
	TestID       string `xml:"testId,attr"`
	TestName     string `xml:"testName,attr"`
	ComputerName string `xml:"computerName,attr"`
	TestType     string `xml:"testType,attr"`
	TestListID   string `xml:"testListId,attr"`
	StartTime    string `xml:"startTime,attr"`
	EndTime      string `xml:"endTime,attr"`
	Duration     string `xml:"duration,attr"`
	Outcome      string `xml:"outcome,attr"`
	ResultType   string `xml:"resultType,attr,omitempty"`

	Output       *Output       `xml:"Output,omitempty"`
	InnerResults *InnerResults `xml:"InnerResults,omitempty"`
}

type InnerResults struct {
	UnitTestResults []InnerUnitTestResult `xml:"UnitTestResult"`
}

// InnerUnitTestResult is one data row of a data-driven parent. It differs
// from the top-level row in attribute position: parentExecutionId and
// resultType come before the timing attributes.
type InnerUnitTestResult struct {
	ExecutionID       string `xml:"executionId,attr"`
	TestID            string `xml:"testId,attr"`
	TestName          string `xml:"testName,attr"`
	ComputerName      string `xml:"computerName,attr"`
	TestType          string `xml:"testType,attr"`
	TestListID        string `xml:"testListId,attr"`
	ParentExecutionID string `xml:"parentExecutionId,attr"`
	ResultType        string `xml:"resultType,attr"`
	StartTime         string `xml:"startTime,attr"`
	EndTime           string `xml:"endTime,attr"`
	Duration          string `xml:"duration,attr"`
	Outcome           string `xml:"outcome,attr"`

	Output *Output `xml:"Output,omitempty"`
}

// Output carries redirected output and failure details for one result. A
// nil pointer omits the child entirely; a pointer to an empty TextElement
// emits an empty element, which incomplete results use to signal "output
// unknown" explicitly.
type Output struct {
	StdOut    *TextElement `xml:"StdOut,omitempty"`
	StdErr    *TextElement `xml:"StdErr,omitempty"`
	ErrorInfo *ErrorInfo   `xml:"ErrorInfo,omitempty"`
}

type TextElement struct {
	Text string `xml:",chardata"`
}

type ErrorInfo struct {
	Message    *TextElement `xml:"Message,omitempty"`
	StackTrace *TextElement `xml:"StackTrace,omitempty"`
}

type TestDefinitions struct {
	UnitTests []UnitTest `xml:"UnitTest"`
}

type UnitTest struct {
	Name    string `xml:"name,attr"`
	Storage string `xml:"storage,attr"`
	ID      string `xml:"id,attr"`

	TestCategory *TestCategory `xml:"TestCategory,omitempty"`
	Execution    Execution     `xml:"Execution"`
	TestMethod   TestMethod    `xml:"TestMethod"`
}

type TestCategory struct {
	Items []TestCategoryItem `xml:"TestCategoryItem"`
}

type TestCategoryItem struct {
	TestCategory string `xml:"TestCategory,attr"`
}

type Execution struct {
	ID string `xml:"id,attr"`
}

type TestMethod struct {
	CodeBase        string `xml:"codeBase,attr"`
	AdapterTypeName string `xml:"adapterTypeName,attr"`
	ClassName       string `xml:"className,attr"`
	Name            string `xml:"name,attr"`
}

type TestEntries struct {
	Entries []TestEntry `xml:"TestEntry"`
}

type TestEntry struct {
	TestID      string `xml:"testId,attr"`
	ExecutionID string `xml:"executionId,attr"`
	TestListID  string `xml:"testListId,attr"`
}

type TestLists struct {
	Lists []TestList `xml:"TestList"`
}

type TestList struct {
	Name string `xml:"name,attr"`
	ID   string `xml:"id,attr"`
}

type ResultSummary struct {
	Outcome     string       `xml:"outcome,attr"`
	ResultFiles *ResultFiles `xml:"ResultFiles,omitempty"`
}

type ResultFiles struct {
	Files []ResultFile `xml:"ResultFile"`
}

type ResultFile struct {
	Path string `xml:"path,attr"`
}
