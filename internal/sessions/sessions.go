// Package sessions tracks live shoe histories, one session per table.
//
// The analyzer itself is stateless; a session is just the ordered outcome
// history of one shoe plus bookkeeping. Every mutation (record, undo, clear)
// re-analyzes the new history and returns session and result together, so a
// caller always sees a snapshot that matches what it just changed:
//
// - Record P → history grows by one, analysis reflects the grown history
// - Undo → last outcome removed, analysis reflects the shortened history
// - Reset → empty history, analysis is the zero-pattern baseline
package sessions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mbd888/shoewatch/internal/analysis"
	"github.com/mbd888/shoewatch/internal/idgen"
	"github.com/mbd888/shoewatch/internal/metrics"
	"github.com/mbd888/shoewatch/internal/outcome"
	"github.com/mbd888/shoewatch/internal/pagination"
	"github.com/mbd888/shoewatch/internal/traces"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyHistory    = errors.New("session history is empty")
	ErrHistoryFull     = errors.New("session history is full")
)

// DefaultMaxOutcomes caps a session history at the upper bound of an
// eight-deck shoe (416 cards / ~4 cards per round leaves headroom; the
// original tracker never saw a longer shoe).
const DefaultMaxOutcomes = 416

// Session is one tracked shoe.
type Session struct {
	ID        string            `json:"id"`
	Label     string            `json:"label,omitempty"`
	Outcomes  []outcome.Outcome `json:"outcomes"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Rounds returns the number of recorded outcomes.
func (s *Session) Rounds() int { return len(s.Outcomes) }

// ListOptions pages session listings, newest first.
type ListOptions struct {
	Limit  int
	Cursor *pagination.Cursor
}

// Store persists sessions. Append, RemoveLast and Clear are atomic per
// session: concurrent mutations are serialized and each returns the session
// as it stands after that mutation.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	List(ctx context.Context, opts ListOptions) ([]*Session, error)
	Append(ctx context.Context, id string, o outcome.Outcome) (*Session, error)
	RemoveLast(ctx context.Context, id string) (*Session, error)
	Clear(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// EventEmitter broadcasts session events to real-time subscribers.
type EventEmitter interface {
	EmitSessionStarted(s *Session)
	EmitSessionCleared(s *Session)
	EmitAnalysis(s *Session, result *analysis.Result)
}

// AlertNotifier is called after each re-analysis so elevated scores reach
// registered webhooks. Implementations must not block.
type AlertNotifier interface {
	NotifyAnalysis(sessionID string, rounds int, result *analysis.Result)
	NotifySessionCleared(sessionID string)
}

// Snapshot pairs a session with the analysis of its current history.
type Snapshot struct {
	Session  *Session         `json:"session"`
	Analysis *analysis.Result `json:"analysis"`
}

// Service coordinates session mutations with re-analysis and event fan-out.
type Service struct {
	store  Store
	events EventEmitter  // optional
	alerts AlertNotifier // optional
}

// NewService creates a session service over a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// WithEvents adds a real-time event emitter.
func (s *Service) WithEvents(events EventEmitter) *Service {
	s.events = events
	return s
}

// WithAlerts adds an alert notifier.
func (s *Service) WithAlerts(alerts AlertNotifier) *Service {
	s.alerts = alerts
	return s
}

// Store returns the underlying store (for stats aggregation etc.).
func (s *Service) Store() Store {
	return s.store
}

// Start creates a new empty session.
func (s *Service) Start(ctx context.Context, label string) (*Snapshot, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        idgen.WithPrefix("ses_"),
		Label:     strings.TrimSpace(label),
		Outcomes:  []outcome.Outcome{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	metrics.ActiveSessions.Inc()

	if s.events != nil {
		s.events.EmitSessionStarted(sess)
	}
	return s.snapshot(ctx, sess)
}

// Get returns a session without re-analyzing it.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Record appends one outcome and re-analyzes.
func (s *Service) Record(ctx context.Context, id string, o outcome.Outcome) (*Snapshot, error) {
	if !o.Valid() {
		return nil, &outcome.InvalidError{Position: -1, Value: string(o)}
	}
	sess, err := s.store.Append(ctx, id, o)
	if err != nil {
		return nil, err
	}
	metrics.OutcomesRecordedTotal.WithLabelValues(string(o)).Inc()

	snap, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.fanOut(sess, snap.Analysis)
	return snap, nil
}

// Undo removes the most recent outcome and re-analyzes. Undoing an empty
// history returns ErrEmptyHistory.
func (s *Service) Undo(ctx context.Context, id string) (*Snapshot, error) {
	sess, err := s.store.RemoveLast(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.UndosTotal.Inc()

	snap, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.fanOut(sess, snap.Analysis)
	return snap, nil
}

// Reset clears the history and re-analyzes, keeping the session itself.
func (s *Service) Reset(ctx context.Context, id string) (*Snapshot, error) {
	sess, err := s.store.Clear(ctx, id)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.EmitSessionCleared(sess)
	}
	if s.alerts != nil {
		s.alerts.NotifySessionCleared(sess.ID)
	}
	return snap, nil
}

// Analysis re-analyzes the current history without mutating it.
func (s *Service) Analysis(ctx context.Context, id string) (*Snapshot, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, sess)
}

// List returns sessions newest first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*Session, error) {
	return s.store.List(ctx, opts)
}

// Delete removes a session entirely.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.ActiveSessions.Dec()
	return nil
}

// snapshot runs the engine over the session's history. Store implementations
// return defensive copies, so the engine never sees a live slice.
func (s *Service) snapshot(ctx context.Context, sess *Session) (*Snapshot, error) {
	_, span := traces.StartSpan(ctx, "sessions.analyze",
		traces.SessionID(sess.ID), traces.Rounds(sess.Rounds()))
	defer span.End()

	start := time.Now()
	result, err := analysis.Analyze(sess.Outcomes)
	if err != nil {
		return nil, err
	}
	kinds := make([]string, len(result.Patterns))
	for i, p := range result.Patterns {
		kinds[i] = string(p.Kind())
	}
	metrics.ObserveAnalysis(start, string(result.Risk.Level), kinds)
	span.SetAttributes(traces.RiskLevel(string(result.Risk.Level)), traces.PatternCount(len(result.Patterns)))
	return &Snapshot{Session: sess, Analysis: result}, nil
}

func (s *Service) fanOut(sess *Session, result *analysis.Result) {
	if s.events != nil {
		s.events.EmitAnalysis(sess, result)
	}
	if s.alerts != nil {
		s.alerts.NotifyAnalysis(sess.ID, sess.Rounds(), result)
	}
}
