package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/testwire/trx-reporter/types"
)

const (
	MetricsNamespace = "trx_reporter"

	TraversalCompleted  = "completed"
	TraversalIncomplete = "incomplete"

	EmissionIncremental = "incremental"
	EmissionFinal       = "final"
)

var (
	Debug      bool = true
	validKinds      = []types.AssertionKind{
		types.AssertionPassed, types.ExpressionFailed, types.ThrewException, types.OtherFailed,
	}
	validOutcomes        = []string{"Passed", "Failed"}
	nonAlphanumericRegex = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	traversalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "traversals_total",
		Help:      "Count of finished section traversals",
	}, []string{
		"status",
	})

	assertionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "assertions_total",
		Help:      "Count of assertion outcomes seen",
	}, []string{
		"kind",
	})

	fatalSignalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "fatal_signals_total",
		Help:      "Count of fatal signals observed during runs",
	})

	documentsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "documents_emitted_total",
		Help:      "Count of TRX documents written",
	}, []string{
		"mode",
	})

	testResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_results_total",
		Help:      "Count of test results in final documents",
	}, []string{
		"outcome",
	})

	runInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_in_progress",
		Help:      "Whether a test run is currently being reported",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordTraversal(status string) {
	if status != TraversalCompleted && status != TraversalIncomplete {
		log.Error("RecordTraversal - invalid status", "status", status)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "traversals_total",
			"status", status,
		)
	}
	traversalsTotal.WithLabelValues(status).Inc()
}

func RecordAssertion(kind types.AssertionKind) {
	if !slices.Contains(validKinds, kind) {
		log.Error("RecordAssertion - invalid kind", "kind", kind)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "assertions_total",
			"kind", kind,
		)
	}
	assertionsTotal.WithLabelValues(string(kind)).Inc()
}

// RecordFatalSignal is callable from a signal handler: a label-free counter
// increment with no logging, so it neither allocates nor locks.
func RecordFatalSignal() {
	fatalSignalsTotal.Inc()
}

func RecordDocumentEmitted(mode string) {
	if mode != EmissionIncremental && mode != EmissionFinal {
		log.Error("RecordDocumentEmitted - invalid mode", "mode", mode)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "documents_emitted_total",
			"mode", mode,
		)
	}
	documentsEmittedTotal.WithLabelValues(mode).Inc()
}

func RecordTestResult(outcome string) {
	if !slices.Contains(validOutcomes, outcome) {
		log.Error("RecordTestResult - invalid outcome", "outcome", outcome)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "test_results_total",
			"outcome", outcome,
		)
	}
	testResultsTotal.WithLabelValues(outcome).Inc()
}

func SetRunInProgress(active bool) {
	if active {
		runInProgress.Set(1)
		return
	}
	runInProgress.Set(0)
}
