package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Commit pipeline metrics
	CommitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_commits_total",
			Help: "Total number of commit attempts by result (success, conflict)",
		},
		[]string{"result"},
	)

	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_commit_duration_seconds",
			Help:    "Time taken for a commit attempt (check + apply + fsync) in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Relation / cache metrics
	RelationCacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "burrow_relation_cache_entries",
			Help: "Number of entries currently resident in a relation's global version cache",
		},
		[]string{"relation"},
	)

	DatabaseUsageBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_database_usage_bytes",
			Help: "Rough on-disk size of the burrow database",
		},
	)

	// World-state operation metrics
	ObjectsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "burrow_objects_total",
			Help: "Total number of valid objects in the world",
		},
	)

	PropertyResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_property_resolve_duration_seconds",
			Help:    "Time taken to resolve a property along the inheritance chain",
			Buckets: prometheus.DefBuckets,
		},
	)

	VerbResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_verb_resolve_duration_seconds",
			Help:    "Time taken to resolve a verb along the inheritance chain",
			Buckets: prometheus.DefBuckets,
		},
	)

	PermissionDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_permission_denials_total",
			Help: "Total number of permission-denied outcomes by kind (object, property, verb)",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(CommitsTotal)
	prometheus.MustRegister(CommitDuration)
	prometheus.MustRegister(RelationCacheEntries)
	prometheus.MustRegister(DatabaseUsageBytes)
	prometheus.MustRegister(ObjectsTotal)
	prometheus.MustRegister(PropertyResolveDuration)
	prometheus.MustRegister(VerbResolveDuration)
	prometheus.MustRegister(PermissionDenialsTotal)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a small helper for timing an operation and recording its
// duration to a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
