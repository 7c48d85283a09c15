// Package metrics holds the Prometheus collectors of the fundwatch process.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every fundwatch metric.
const Namespace = "fundwatch"

func NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Namespace: Namespace, Name: name, Help: help}, labels)
}

func NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(prometheus.GaugeOpts{Namespace: Namespace, Name: name, Help: help}, labels)
}

func NewHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(prometheus.HistogramOpts{Namespace: Namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

var (
	commentEdits = NewCounter("comment_edits_total",
		"Remote comment edits applied, by kind.", []string{"kind"})
	commentEditFailures = NewCounter("comment_edit_failures_total",
		"Comment edits that failed locally or remotely, by kind.", []string{"kind"})
	ledgerUnavailable = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "ledger_unavailable_total",
		Help:      "Addresses skipped because the wallet could not be read.",
	})
	unreconciledClaims = NewGauge("unreconciled_claims",
		"Recorded donations without a matching ledger transfer, per address.", []string{"address_id"})
	loopIterations = NewCounter("loop_iterations_total",
		"Scheduler loop iterations, by loop and result.", []string{"loop", "result"})
	loopDuration = NewHistogram("loop_duration_seconds",
		"Duration of scheduler loop iterations.", []string{"loop"}, prometheus.ExponentialBuckets(0.01, 2, 14))
)

func CommentEdit(kind string) {
	commentEdits.WithLabelValues(kind).Inc()
}

func CommentEditFailure(kind string) {
	commentEditFailures.WithLabelValues(kind).Inc()
}

func LedgerUnavailable() {
	ledgerUnavailable.Inc()
}

// UnreconciledClaims records the current number of unreconciled claims on
// an address.
func UnreconciledClaims(addressID int64, n int) {
	unreconciledClaims.WithLabelValues(strconv.FormatInt(addressID, 10)).Set(float64(n))
}

// LoopIteration records one scheduler run. result is "ok", "error" or "panic".
func LoopIteration(loop, result string, took time.Duration) {
	loopIterations.WithLabelValues(loop, result).Inc()
	loopDuration.WithLabelValues(loop).Observe(took.Seconds())
}
