// Package metrics wires the node's Prometheus metrics stream: block
// accept/reject counts by error kind, current Θ, mempool occupancy,
// nullifier window occupancy, and DA sampling success rate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"animica.dev/node/consensus"
)

// Registry bundles every metric the node exposes, registered against a
// single prometheus.Registerer so callers never juggle loose globals.
type Registry struct {
	BlocksAccepted   prometheus.Counter
	BlocksRejected   *prometheus.CounterVec // labeled by ErrorCode
	CurrentTheta     prometheus.Gauge
	MempoolEntries   prometheus.Gauge
	MempoolBytes     prometheus.Gauge
	NullifierWindow  prometheus.Gauge
	DASampleSuccess  prometheus.Counter
	DASampleFailure  prometheus.Counter
	BlockApplySecs   prometheus.Histogram
}

// New builds and registers every metric against reg.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		BlocksAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animica_blocks_accepted_total",
			Help: "Total blocks accepted into the canonical chain.",
		}),
		BlocksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "animica_blocks_rejected_total",
			Help: "Total blocks rejected, labeled by reason code.",
		}, []string{"code"}),
		CurrentTheta: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "animica_theta_micronats",
			Help: "Current PoIES acceptance threshold, in micro-nats.",
		}),
		MempoolEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "animica_mempool_entries",
			Help: "Current number of pending mempool entries.",
		}),
		MempoolBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "animica_mempool_bytes",
			Help: "Current total byte size of the mempool.",
		}),
		NullifierWindow: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "animica_nullifier_window_occupancy",
			Help: "Current number of live nullifiers in the sliding window.",
		}),
		DASampleSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animica_da_sample_success_total",
			Help: "Total light-client DA sampling rounds that succeeded.",
		}),
		DASampleFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "animica_da_sample_failure_total",
			Help: "Total light-client DA sampling rounds that detected unavailability.",
		}),
		BlockApplySecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "animica_block_apply_seconds",
			Help:    "Wall-clock time spent validating and applying one block.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.BlocksAccepted,
		m.BlocksRejected,
		m.CurrentTheta,
		m.MempoolEntries,
		m.MempoolBytes,
		m.NullifierWindow,
		m.DASampleSuccess,
		m.DASampleFailure,
		m.BlockApplySecs,
	)
	return m
}

// RecordRejection increments the rejected-blocks counter under err's
// ErrorCode, falling back to "UNKNOWN" for an error that never went
// through consensus.Reject/Wrap.
func (m *Registry) RecordRejection(err error) {
	code, ok := consensus.CodeOf(err)
	if !ok {
		code = "UNKNOWN"
	}
	m.BlocksRejected.WithLabelValues(string(code)).Inc()
}
