package monitoring

import (
	"fmt"
	"strings"

	"fitting-console/core/diagnostics"
	"fitting-console/core/session"
)

// SessionCounter reports live sessions per state
type SessionCounter interface {
	CountByState() map[session.State]int
}

// MetricsExporter exports console metrics in the Prometheus text format
type MetricsExporter struct {
	sessions SessionCounter
	outcomes *OutcomeTracker
}

// NewMetricsExporter creates a new metrics exporter
func NewMetricsExporter(sessions SessionCounter, outcomes *OutcomeTracker) *MetricsExporter {
	return &MetricsExporter{
		sessions: sessions,
		outcomes: outcomes,
	}
}

var exportedStates = []session.State{
	session.StateEmpty,
	session.StateDatasetChosen,
	session.StateColumnsChosen,
	session.StateAlgorithmChosen,
	session.StateReady,
	session.StateSubmitting,
	session.StateSucceeded,
	session.StateFailed,
}

var exportedBuckets = []diagnostics.Bucket{
	diagnostics.BucketExcellent,
	diagnostics.BucketGood,
	diagnostics.BucketFair,
	diagnostics.BucketPoor,
}

// GetPrometheusMetrics returns metrics in Prometheus format
func (me *MetricsExporter) GetPrometheusMetrics() string {
	var b strings.Builder

	counts := me.sessions.CountByState()
	total := 0
	for _, n := range counts {
		total += n
	}

	b.WriteString("# HELP fitting_sessions_total Live console sessions\n")
	b.WriteString("# TYPE fitting_sessions_total gauge\n")
	fmt.Fprintf(&b, "fitting_sessions_total %d\n", total)

	b.WriteString("# HELP fitting_sessions Live console sessions per state\n")
	b.WriteString("# TYPE fitting_sessions gauge\n")
	for _, state := range exportedStates {
		fmt.Fprintf(&b, "fitting_sessions{state=\"%s\"} %d\n", state, counts[state])
	}

	snap := me.outcomes.Snapshot()

	b.WriteString("# HELP fitting_training_requests_total Training requests submitted\n")
	b.WriteString("# TYPE fitting_training_requests_total counter\n")
	fmt.Fprintf(&b, "fitting_training_requests_total %d\n", snap.Submitted)

	b.WriteString("# HELP fitting_training_outcomes_total Finished training requests per outcome\n")
	b.WriteString("# TYPE fitting_training_outcomes_total counter\n")
	fmt.Fprintf(&b, "fitting_training_outcomes_total{outcome=\"succeeded\"} %d\n", snap.Succeeded)
	fmt.Fprintf(&b, "fitting_training_outcomes_total{outcome=\"failed\"} %d\n", snap.Failed)

	b.WriteString("# HELP fitting_training_in_flight Training requests awaiting a response\n")
	b.WriteString("# TYPE fitting_training_in_flight gauge\n")
	fmt.Fprintf(&b, "fitting_training_in_flight %d\n", snap.InFlight)

	b.WriteString("# HELP fitting_training_seconds_total Time spent waiting for training\n")
	b.WriteString("# TYPE fitting_training_seconds_total counter\n")
	fmt.Fprintf(&b, "fitting_training_seconds_total %.3f\n", snap.TrainingTime.Seconds())

	b.WriteString("# HELP fitting_model_quality_total Presented models per R2 tier\n")
	b.WriteString("# TYPE fitting_model_quality_total counter\n")
	for _, bucket := range exportedBuckets {
		fmt.Fprintf(&b, "fitting_model_quality_total{bucket=\"%s\"} %d\n", bucket, snap.Buckets[bucket])
	}

	return b.String()
}
