package alerts

import (
	"context"
	"log/slog"
	"time"

	"github.com/mbd888/shoewatch/internal/analysis"
	"github.com/mbd888/shoewatch/internal/idgen"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	alertEmitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shoewatch",
		Subsystem: "alert",
		Name:      "emit_total",
		Help:      "Total alert emit attempts by event kind.",
	}, []string{"kind"})

	alertEmitErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shoewatch",
		Subsystem: "alert",
		Name:      "emit_errors_total",
		Help:      "Total alert emit failures by event kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(alertEmitTotal, alertEmitErrors)
}

// Default thresholds sit on the HIGH tier boundaries of the two scorers, so
// out of the box an alert fires exactly when an assessment turns HIGH.
const (
	DefaultRiskThreshold         = 55
	DefaultManipulationThreshold = 60
)

// Emitter turns analysis results into dispatched alert events. It satisfies
// the sessions service's notifier hook. All methods are fire-and-forget:
// errors are logged but never returned.
type Emitter struct {
	d              *Dispatcher
	logger         *slog.Logger
	riskThreshold  int
	manipThreshold int
}

// NewEmitter creates an emitter with the default thresholds.
func NewEmitter(d *Dispatcher, logger *slog.Logger) *Emitter {
	return &Emitter{
		d:              d,
		logger:         logger,
		riskThreshold:  DefaultRiskThreshold,
		manipThreshold: DefaultManipulationThreshold,
	}
}

// WithThresholds overrides the minimum scores that trigger elevation events.
// Values <= 0 keep the current threshold.
func (e *Emitter) WithThresholds(risk, manipulation int) *Emitter {
	if risk > 0 {
		e.riskThreshold = risk
	}
	if manipulation > 0 {
		e.manipThreshold = manipulation
	}
	return e
}

// NotifyAnalysis emits elevation events for any score at or above its
// threshold. One result can fire both kinds.
func (e *Emitter) NotifyAnalysis(sessionID string, rounds int, result *analysis.Result) {
	if e == nil || result == nil {
		return
	}

	if result.Risk.Score >= e.riskThreshold {
		e.emit(EventRiskElevated, sessionID, result.Risk.Score, map[string]interface{}{
			"rounds":   rounds,
			"level":    result.Risk.Level,
			"factors":  result.Risk.Factors,
			"strategy": result.Prediction.Strategy,
		})
	}

	if result.Manipulation.Score >= e.manipThreshold {
		e.emit(EventManipulationElevated, sessionID, result.Manipulation.Score, map[string]interface{}{
			"rounds": rounds,
			"level":  result.Manipulation.Level,
			"signs":  result.Manipulation.Signs,
		})
	}
}

// NotifySessionCleared emits a session.cleared event.
func (e *Emitter) NotifySessionCleared(sessionID string) {
	if e == nil {
		return
	}
	e.emit(EventSessionCleared, sessionID, 0, nil)
}

func (e *Emitter) emit(kind EventKind, sessionID string, score int, data map[string]interface{}) {
	if e.d == nil {
		return
	}
	alertEmitTotal.WithLabelValues(string(kind)).Inc()
	event := &Event{
		ID:        idgen.WithPrefix("evt_"),
		Kind:      kind,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Score:     score,
		Data:      data,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.d.Dispatch(ctx, event); err != nil {
		alertEmitErrors.WithLabelValues(string(kind)).Inc()
		e.logger.Warn("alert emit failed", "kind", kind, "session", sessionID, "error", err)
	}
}
