package metrics

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// ScansTotal counts match scans by result (ok, read_error).
	ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campuslink",
		Subsystem: "lostfound",
		Name:      "scans_total",
		Help:      "Total number of lost-item scans triggered by found reports, labeled by result.",
	}, []string{"result"})

	CandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "campuslink",
		Subsystem: "lostfound",
		Name:      "candidates_evaluated_total",
		Help:      "Total number of lost items evaluated against found reports.",
	})

	MatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "campuslink",
		Subsystem: "lostfound",
		Name:      "matches_total",
		Help:      "Total number of lost items judged to match a found report.",
	})

	// NotificationsTotal counts notification attempts by result (sent, failed, skipped).
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campuslink",
		Subsystem: "lostfound",
		Name:      "notifications_total",
		Help:      "Total number of match notifications, labeled by result.",
	}, []string{"result"})

	ScanDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "campuslink",
		Subsystem: "lostfound",
		Name:      "scan_duration_seconds",
		Help:      "Time to scan lost items and dispatch notifications for one found report.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
)

// Register registers the metrics with the default registry. Safe to call
// multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ScansTotal,
			CandidatesTotal,
			MatchesTotal,
			NotificationsTotal,
			ScanDurationSeconds,
		)
	})
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
