package sessions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mbd888/shoewatch/internal/outcome"
)

// PostgresStore implements Store using PostgreSQL. History is persisted as a
// compact letter string ("PPBTB"), one character per round, so an 8-deck shoe
// fits comfortably in a single row.
type PostgresStore struct {
	db          *sql.DB
	maxOutcomes int
}

// NewPostgresStore creates a PostgreSQL-backed session store. maxOutcomes
// <= 0 falls back to DefaultMaxOutcomes.
func NewPostgresStore(db *sql.DB, maxOutcomes int) *PostgresStore {
	if maxOutcomes <= 0 {
		maxOutcomes = DefaultMaxOutcomes
	}
	return &PostgresStore{db: db, maxOutcomes: maxOutcomes}
}

// Compile-time interface check
var _ Store = (*PostgresStore)(nil)

// Migrate creates the sessions table
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS shoe_sessions (
			id          VARCHAR(36) PRIMARY KEY,
			label       VARCHAR(255) NOT NULL DEFAULT '',
			history     TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ DEFAULT NOW(),
			updated_at  TIMESTAMPTZ DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_shoe_sessions_created ON shoe_sessions(created_at DESC, id DESC);
	`)
	return err
}

func (p *PostgresStore) Create(ctx context.Context, s *Session) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO shoe_sessions (id, label, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.Label, outcome.Letters(s.Outcomes), s.CreatedAt, s.UpdatedAt)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Session, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, label, history, created_at, updated_at
		FROM shoe_sessions WHERE id = $1
	`, id)
	return scanSession(row)
}

func (p *PostgresStore) List(ctx context.Context, opts ListOptions) ([]*Session, error) {
	query := `
		SELECT id, label, history, created_at, updated_at
		FROM shoe_sessions`
	args := []interface{}{}

	if opts.Cursor != nil {
		query += ` WHERE (created_at, id) < ($1, $2)`
		args = append(args, opts.Cursor.CreatedAt, opts.Cursor.ID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, opts.Limit)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Append adds one outcome inside a serializable transaction so concurrent
// mutations of the same shoe cannot interleave.
func (p *PostgresStore) Append(ctx context.Context, id string, o outcome.Outcome) (*Session, error) {
	return p.mutate(ctx, id, func(history string) (string, error) {
		if len(history) >= p.maxOutcomes {
			return "", ErrHistoryFull
		}
		return history + o.Letter(), nil
	})
}

func (p *PostgresStore) RemoveLast(ctx context.Context, id string) (*Session, error) {
	return p.mutate(ctx, id, func(history string) (string, error) {
		if len(history) == 0 {
			return "", ErrEmptyHistory
		}
		return history[:len(history)-1], nil
	})
}

func (p *PostgresStore) Clear(ctx context.Context, id string) (*Session, error) {
	return p.mutate(ctx, id, func(string) (string, error) {
		return "", nil
	})
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM shoe_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shoe_sessions`).Scan(&n)
	return n, err
}

// mutate reads the history under a serializable transaction, applies fn, and
// writes the result back, returning the updated session.
func (p *PostgresStore) mutate(ctx context.Context, id string, fn func(history string) (string, error)) (*Session, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var history string
	err = tx.QueryRowContext(ctx, `
		SELECT history FROM shoe_sessions WHERE id = $1
	`, id).Scan(&history)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	updated, err := fn(history)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE shoe_sessions SET history = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, label, history, created_at, updated_at
	`, id, updated)
	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("failed to update history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s, nil
}

// rowScanner lets scanSession work over both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	s := &Session{}
	var history string
	err := row.Scan(&s.ID, &s.Label, &history, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	s.Outcomes, err = outcome.ParseSequence(history)
	if err != nil {
		return nil, fmt.Errorf("corrupt history for %s: %w", s.ID, err)
	}
	if s.Outcomes == nil {
		s.Outcomes = []outcome.Outcome{}
	}
	return s, nil
}
