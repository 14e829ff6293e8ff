package metrics

import "time"

// Workflow names
const (
	WorkflowCreate  = "create"
	WorkflowDetach  = "detach"
	WorkflowDestroy = "destroy"
)

// Workflow outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// ObserveFetch records how long fetching one collection took.
func ObserveFetch(collection string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	fetchDuration.WithLabelValues(collection, result).Observe(d.Seconds())
}

// RecordNamespaceFallback counts a fallback to per-namespace queries.
func RecordNamespaceFallback(collection string) {
	namespaceFallbackTotal.WithLabelValues(collection).Inc()
}

// RecordWorkflow counts a finished lifecycle workflow.
// outcome is OutcomeSuccess, OutcomeFailure (reported errors) or OutcomeError (transport).
func RecordWorkflow(workflow, outcome string) {
	workflowTotal.WithLabelValues(workflow, outcome).Inc()
}

// RecordImportPoll counts one import secret read.
func RecordImportPoll(found bool) {
	result := "found"
	if !found {
		result = "notfound"
	}
	importPollAttemptsTotal.WithLabelValues(result).Inc()
}
