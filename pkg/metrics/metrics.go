package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fragment Engine metrics
	FragmentCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocore_fragment_commits_total",
			Help: "Total number of fragment tree commits by outcome",
		},
		[]string{"outcome"},
	)

	FragmentCommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photocore_fragment_commit_duration_seconds",
			Help:    "Time taken to commit a fragment transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Catalog metrics
	AlbumMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocore_album_mutations_total",
			Help: "Total number of album mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	FilesUploadedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photocore_files_uploaded_total",
			Help: "Total number of files accepted into the catalog",
		},
	)

	// Deletion journal metrics
	JournalDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocore_journal_depth",
			Help: "Number of delete commands currently pending in the journal",
		},
	)

	JournalReplayDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photocore_journal_replay_duration_seconds",
			Help:    "Time taken to replay the deletion journal at startup",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
	)

	JournalCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocore_journal_commands_total",
			Help: "Total number of delete commands finished, by trigger",
		},
		[]string{"trigger"},
	)

	// Upload orchestration metrics
	UploadCommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocore_upload_commits_total",
			Help: "Total number of upload commits by outcome",
		},
		[]string{"outcome"},
	)

	UploadOrphansSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photocore_upload_orphans_swept_total",
			Help: "Total number of orphaned derivative files removed at startup",
		},
	)
)

func init() {
	prometheus.MustRegister(FragmentCommitsTotal)
	prometheus.MustRegister(FragmentCommitDuration)
	prometheus.MustRegister(AlbumMutationsTotal)
	prometheus.MustRegister(FilesUploadedTotal)
	prometheus.MustRegister(JournalDepth)
	prometheus.MustRegister(JournalReplayDuration)
	prometheus.MustRegister(JournalCommandsTotal)
	prometheus.MustRegister(UploadCommitsTotal)
	prometheus.MustRegister(UploadOrphansSweptTotal)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
