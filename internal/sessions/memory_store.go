package sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mbd888/shoewatch/internal/outcome"
)

// MemoryStore is an in-memory implementation of Store. The default when no
// database is configured, and the store used by tests.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxOutcomes int
}

// NewMemoryStore creates an in-memory session store. maxOutcomes <= 0 falls
// back to DefaultMaxOutcomes.
func NewMemoryStore(maxOutcomes int) *MemoryStore {
	if maxOutcomes <= 0 {
		maxOutcomes = DefaultMaxOutcomes
	}
	return &MemoryStore{
		sessions:    make(map[string]*Session),
		maxOutcomes: maxOutcomes,
	}
}

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Create(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	m.sessions[s.ID] = clone(s)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return clone(s), nil
}

func (m *MemoryStore) List(ctx context.Context, opts ListOptions) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, s := range m.sessions {
		if opts.Cursor != nil && !afterCursor(s, opts.Cursor.CreatedAt, opts.Cursor.ID) {
			continue
		}
		out = append(out, clone(s))
	}

	// Newest first, id as tie-break so pages are stable.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Append(ctx context.Context, id string, o outcome.Outcome) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if len(s.Outcomes) >= m.maxOutcomes {
		return nil, ErrHistoryFull
	}
	s.Outcomes = append(s.Outcomes, o)
	s.UpdatedAt = time.Now().UTC()
	return clone(s), nil
}

func (m *MemoryStore) RemoveLast(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if len(s.Outcomes) == 0 {
		return nil, ErrEmptyHistory
	}
	s.Outcomes = s.Outcomes[:len(s.Outcomes)-1]
	s.UpdatedAt = time.Now().UTC()
	return clone(s), nil
}

func (m *MemoryStore) Clear(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.Outcomes = s.Outcomes[:0]
	s.UpdatedAt = time.Now().UTC()
	return clone(s), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

// clone copies a session including its history slice, so callers (and the
// analyzer) never share memory with the store.
func clone(s *Session) *Session {
	c := *s
	c.Outcomes = make([]outcome.Outcome, len(s.Outcomes))
	copy(c.Outcomes, s.Outcomes)
	return &c
}

// afterCursor reports whether s sorts strictly after the cursor position in
// the newest-first ordering, mirroring (created_at, id) < (cur, curID).
func afterCursor(s *Session, cur time.Time, curID string) bool {
	if !s.CreatedAt.Equal(cur) {
		return s.CreatedAt.Before(cur)
	}
	return s.ID < curID
}
