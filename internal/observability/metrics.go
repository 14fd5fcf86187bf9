package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Record kinds used as the "kind" label.
const (
	KindZendesk = "zendesk"
	KindJira    = "jira"
)

var (
	// snapshotsWritten counts snapshot rows persisted by the daily writer.
	snapshotsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_snapshots_written_total",
			Help: "Snapshot rows persisted by the daily writer.",
		},
		[]string{"kind"},
	)

	// differencesEmitted counts differences returned by the engine.
	differencesEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_differences_emitted_total",
			Help: "Differences produced by the difference engine.",
		},
		[]string{"kind", "change_type"},
	)

	// syncRecords counts records handled by a sync run, by outcome
	// (stored|failed).
	syncRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_sync_records_total",
			Help: "Records processed by tracker synchronization.",
		},
		[]string{"kind", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(snapshotsWritten, differencesEmitted, syncRecords)
}

// SnapshotsWritten adds n persisted snapshots of the given kind.
func SnapshotsWritten(kind string, n int) {
	snapshotsWritten.WithLabelValues(kind).Add(float64(n))
}

// DifferenceEmitted records one difference.
func DifferenceEmitted(kind, changeType string) {
	differencesEmitted.WithLabelValues(kind, changeType).Inc()
}

// SyncRecord records one synchronized record and whether it was stored.
func SyncRecord(kind string, stored bool) {
	outcome := "stored"
	if !stored {
		outcome = "failed"
	}
	syncRecords.WithLabelValues(kind, outcome).Inc()
}
