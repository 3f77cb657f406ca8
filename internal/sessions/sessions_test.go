package sessions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mbd888/shoewatch/internal/analysis"
	"github.com/mbd888/shoewatch/internal/outcome"
	"github.com/mbd888/shoewatch/internal/pagination"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockEmitter struct {
	mu       sync.Mutex
	started  []string
	cleared  []string
	analyses []string
}

func (m *mockEmitter) EmitSessionStarted(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, s.ID)
}

func (m *mockEmitter) EmitSessionCleared(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, s.ID)
}

func (m *mockEmitter) EmitAnalysis(s *Session, result *analysis.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses = append(m.analyses, s.ID)
}

type mockAlerter struct {
	mu       sync.Mutex
	analyses int
	cleared  int
}

func (m *mockAlerter) NotifyAnalysis(sessionID string, rounds int, result *analysis.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses++
}

func (m *mockAlerter) NotifySessionCleared(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
}

// ---------------------------------------------------------------------------
// Service flow
// ---------------------------------------------------------------------------

func TestService_StartRecordAnalyze(t *testing.T) {
	svc := NewService(NewMemoryStore(0))
	ctx := context.Background()

	snap, err := svc.Start(ctx, "table 7")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !strings.HasPrefix(snap.Session.ID, "ses_") {
		t.Errorf("Expected ses_ prefix, got %s", snap.Session.ID)
	}
	if snap.Session.Label != "table 7" {
		t.Errorf("Expected label, got %q", snap.Session.Label)
	}
	if snap.Session.Rounds() != 0 {
		t.Errorf("Expected empty history, got %d", snap.Session.Rounds())
	}
	if len(snap.Analysis.Patterns) != 0 {
		t.Errorf("Expected no patterns on empty history, got %d", len(snap.Analysis.Patterns))
	}
	if snap.Analysis.Risk.Score != 0 || snap.Analysis.Risk.Level != analysis.TierLow {
		t.Errorf("Expected zero low risk, got %d %s", snap.Analysis.Risk.Score, snap.Analysis.Risk.Level)
	}
	if snap.Analysis.Prediction.Strategy != analysis.StrategyHold {
		t.Errorf("Expected hold strategy, got %s", snap.Analysis.Prediction.Strategy)
	}

	id := snap.Session.ID
	for _, o := range []outcome.Outcome{outcome.Player, outcome.Player, outcome.Banker, outcome.Banker, outcome.Player} {
		snap, err = svc.Record(ctx, id, o)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if snap.Session.Rounds() != 5 {
		t.Errorf("Expected 5 rounds, got %d", snap.Session.Rounds())
	}

	// Sixth outcome completes P,P,B,B,P,P: three matching pairs.
	snap, err = svc.Record(ctx, id, outcome.Player)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if len(snap.Analysis.Patterns) != 1 {
		t.Fatalf("Expected 1 pattern, got %d", len(snap.Analysis.Patterns))
	}
	if snap.Analysis.Patterns[0].Kind() != analysis.KindMicroDouble {
		t.Errorf("Expected micro double, got %s", snap.Analysis.Patterns[0].Kind())
	}
	if snap.Analysis.Risk.Level != analysis.TierHigh {
		t.Errorf("Expected high risk, got %s", snap.Analysis.Risk.Level)
	}
	if snap.Analysis.Prediction.Strategy != analysis.StrategyWaitNormalize {
		t.Errorf("Expected wait strategy, got %s", snap.Analysis.Prediction.Strategy)
	}
}

func TestService_SnapshotTracksMutation(t *testing.T) {
	svc := NewService(NewMemoryStore(0))
	ctx := context.Background()

	snap, _ := svc.Start(ctx, "")
	id := snap.Session.ID

	for _, letter := range []string{"P", "B", "P"} {
		o, _ := outcome.Parse(letter)
		snap, _ = svc.Record(ctx, id, o)
	}
	if got := outcome.Letters(snap.Session.Outcomes); got != "PBP" {
		t.Fatalf("history = %s, want PBP", got)
	}

	snap, err := svc.Undo(ctx, id)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if got := outcome.Letters(snap.Session.Outcomes); got != "PB" {
		t.Errorf("history after undo = %s, want PB", got)
	}

	snap, err = svc.Reset(ctx, id)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if snap.Session.Rounds() != 0 {
		t.Errorf("Expected empty history after reset, got %d", snap.Session.Rounds())
	}
	if snap.Analysis.Risk.Score != 0 {
		t.Errorf("Expected zero risk after reset, got %d", snap.Analysis.Risk.Score)
	}
}

func TestService_UndoEmptyHistory(t *testing.T) {
	svc := NewService(NewMemoryStore(0))
	ctx := context.Background()

	snap, _ := svc.Start(ctx, "")
	_, err := svc.Undo(ctx, snap.Session.ID)
	if !errors.Is(err, ErrEmptyHistory) {
		t.Errorf("Expected ErrEmptyHistory, got %v", err)
	}
}

func TestService_HistoryCap(t *testing.T) {
	svc := NewService(NewMemoryStore(3))
	ctx := context.Background()

	snap, _ := svc.Start(ctx, "")
	id := snap.Session.ID
	for i := 0; i < 3; i++ {
		if _, err := svc.Record(ctx, id, outcome.Banker); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	_, err := svc.Record(ctx, id, outcome.Banker)
	if !errors.Is(err, ErrHistoryFull) {
		t.Errorf("Expected ErrHistoryFull, got %v", err)
	}

	// Undo frees a slot.
	if _, err := svc.Undo(ctx, id); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if _, err := svc.Record(ctx, id, outcome.Player); err != nil {
		t.Errorf("Record after undo failed: %v", err)
	}
}

func TestService_RecordInvalidOutcome(t *testing.T) {
	svc := NewService(NewMemoryStore(0))
	ctx := context.Background()

	snap, _ := svc.Start(ctx, "")
	_, err := svc.Record(ctx, snap.Session.ID, outcome.Outcome("dragon"))

	var ie *outcome.InvalidError
	if !errors.As(err, &ie) {
		t.Fatalf("Expected InvalidError, got %v", err)
	}
	if ie.Value != "dragon" {
		t.Errorf("Value = %q, want dragon", ie.Value)
	}
}

func TestService_UnknownSession(t *testing.T) {
	svc := NewService(NewMemoryStore(0))
	ctx := context.Background()

	if _, err := svc.Record(ctx, "ses_missing", outcome.Player); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Record: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Analysis(ctx, "ses_missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Analysis: expected ErrSessionNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "ses_missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Delete: expected ErrSessionNotFound, got %v", err)
	}
}

func TestService_EventFanOut(t *testing.T) {
	emitter := &mockEmitter{}
	alerter := &mockAlerter{}
	svc := NewService(NewMemoryStore(0)).WithEvents(emitter).WithAlerts(alerter)
	ctx := context.Background()

	snap, _ := svc.Start(ctx, "")
	id := snap.Session.ID

	svc.Record(ctx, id, outcome.Player)
	svc.Record(ctx, id, outcome.Banker)
	svc.Undo(ctx, id)
	svc.Reset(ctx, id)

	if len(emitter.started) != 1 {
		t.Errorf("started events = %d, want 1", len(emitter.started))
	}
	// Two records plus one undo re-analyze and broadcast.
	if len(emitter.analyses) != 3 {
		t.Errorf("analysis events = %d, want 3", len(emitter.analyses))
	}
	if len(emitter.cleared) != 1 {
		t.Errorf("cleared events = %d, want 1", len(emitter.cleared))
	}
	if alerter.analyses != 3 {
		t.Errorf("alert analyses = %d, want 3", alerter.analyses)
	}
	if alerter.cleared != 1 {
		t.Errorf("alert cleared = %d, want 1", alerter.cleared)
	}

	// Read-only analysis must not broadcast.
	svc.Analysis(ctx, id)
	if len(emitter.analyses) != 3 {
		t.Errorf("Analysis() broadcast an event; analyses = %d", len(emitter.analyses))
	}
}

// ---------------------------------------------------------------------------
// MemoryStore
// ---------------------------------------------------------------------------

func TestMemoryStore_DefensiveCopies(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	s := &Session{ID: "ses_1", Outcomes: []outcome.Outcome{outcome.Player}}
	store.Create(ctx, s)

	// Mutating the caller's slice must not reach the store.
	s.Outcomes[0] = outcome.Banker
	got, _ := store.Get(ctx, "ses_1")
	if got.Outcomes[0] != outcome.Player {
		t.Error("store shares memory with caller on Create")
	}

	// Mutating a returned slice must not reach the store either.
	got.Outcomes[0] = outcome.Tie
	again, _ := store.Get(ctx, "ses_1")
	if again.Outcomes[0] != outcome.Player {
		t.Error("store shares memory with caller on Get")
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"ses_a", "ses_b", "ses_c"} {
		store.Create(ctx, &Session{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	list, err := store.List(ctx, ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(list))
	}
	if list[0].ID != "ses_c" || list[2].ID != "ses_a" {
		t.Errorf("Expected newest first, got %s..%s", list[0].ID, list[2].ID)
	}
}

func TestMemoryStore_CursorPagination(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := []string{"ses_a", "ses_b", "ses_c", "ses_d", "ses_e"}
	for i, id := range ids {
		store.Create(ctx, &Session{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	// First page of two: e, d.
	page1, _ := store.List(ctx, ListOptions{Limit: 2})
	if len(page1) != 2 || page1[0].ID != "ses_e" || page1[1].ID != "ses_d" {
		t.Fatalf("page1 = %v", sessionIDs(page1))
	}

	cur, err := pagination.Decode(pagination.Encode(page1[1].CreatedAt, page1[1].ID))
	if err != nil {
		t.Fatalf("cursor round-trip failed: %v", err)
	}

	page2, _ := store.List(ctx, ListOptions{Limit: 2, Cursor: cur})
	if len(page2) != 2 || page2[0].ID != "ses_c" || page2[1].ID != "ses_b" {
		t.Fatalf("page2 = %v", sessionIDs(page2))
	}

	cur2, _ := pagination.Decode(pagination.Encode(page2[1].CreatedAt, page2[1].ID))
	page3, _ := store.List(ctx, ListOptions{Limit: 2, Cursor: cur2})
	if len(page3) != 1 || page3[0].ID != "ses_a" {
		t.Fatalf("page3 = %v", sessionIDs(page3))
	}
}

func TestMemoryStore_Count(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	for _, id := range []string{"ses_1", "ses_2"} {
		store.Create(ctx, &Session{ID: id})
	}
	n, err := store.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("Count = %d, %v; want 2", n, err)
	}

	store.Delete(ctx, "ses_1")
	n, _ = store.Count(ctx)
	if n != 1 {
		t.Errorf("Count after delete = %d, want 1", n)
	}
}

func sessionIDs(list []*Session) []string {
	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}
