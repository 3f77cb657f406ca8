// Package metrics provides Prometheus instrumentation for the shoewatch
// service.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoewatch",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shoewatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// AnalysesTotal counts engine passes, stateless and session-backed alike.
	AnalysesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shoewatch",
		Name:      "analyses_total",
		Help:      "Total engine analysis passes.",
	})

	// AnalysisDuration observes one engine pass end to end.
	AnalysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shoewatch",
		Name:      "analysis_duration_seconds",
		Help:      "Engine analysis duration in seconds.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})

	// PatternsDetectedTotal counts detected patterns by kind.
	PatternsDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoewatch",
			Name:      "patterns_detected_total",
			Help:      "Total patterns detected by kind.",
		},
		[]string{"kind"},
	)

	// AnalysesByRiskLevel counts analyses by the risk level they landed on.
	AnalysesByRiskLevel = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoewatch",
			Name:      "analyses_by_risk_level_total",
			Help:      "Total analyses by resulting risk level.",
		},
		[]string{"level"},
	)

	// OutcomesRecordedTotal counts recorded outcomes by value.
	OutcomesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoewatch",
			Name:      "outcomes_recorded_total",
			Help:      "Total outcomes recorded into sessions by value.",
		},
		[]string{"outcome"},
	)

	// UndosTotal counts removed outcomes across all sessions.
	UndosTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shoewatch",
		Name:      "undos_total",
		Help:      "Total outcomes removed by undo.",
	})

	// ActiveSessions tracks sessions currently held in the store.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shoewatch",
		Name:      "active_sessions",
		Help:      "Number of sessions currently stored.",
	})

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shoewatch",
		Name:      "active_websocket_clients",
		Help:      "Number of currently connected WebSocket clients.",
	})

	// AlertDeliveriesTotal counts alert webhook delivery attempts by result.
	AlertDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoewatch",
			Name:      "alert_deliveries_total",
			Help:      "Total alert webhook deliveries by result.",
		},
		[]string{"result"},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shoewatch", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shoewatch", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shoewatch", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// DBWaitCount tracks the total number of connections waited for.
	DBWaitCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shoewatch", Name: "db_wait_count_total",
		Help: "Total number of connections waited for.",
	})
	// DBWaitDuration tracks total time waited for connections.
	DBWaitDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shoewatch", Name: "db_wait_duration_seconds_total",
		Help: "Total time waited for connections in seconds.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shoewatch", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AnalysesTotal,
		AnalysisDuration,
		PatternsDetectedTotal,
		AnalysesByRiskLevel,
		OutcomesRecordedTotal,
		UndosTotal,
		ActiveSessions,
		ActiveWebSocketClients,
		AlertDeliveriesTotal,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		DBWaitCount,
		DBWaitDuration,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			DBWaitCount.Set(float64(stats.WaitCount))
			DBWaitDuration.Set(stats.WaitDuration.Seconds())
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// ObserveAnalysis records one engine pass: duration, risk level, and every
// detected pattern kind.
func ObserveAnalysis(start time.Time, riskLevel string, kinds []string) {
	AnalysesTotal.Inc()
	AnalysisDuration.Observe(time.Since(start).Seconds())
	AnalysesByRiskLevel.WithLabelValues(riskLevel).Inc()
	for _, k := range kinds {
		PatternsDetectedTotal.WithLabelValues(k).Inc()
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
