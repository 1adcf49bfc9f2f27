package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/brainquest/internal/domain"
	"github.com/soyeahso/brainquest/internal/memory"
)

// SQLiteSessionStore implements memory.Store backed by SQLite.
type SQLiteSessionStore struct {
	db     *DB
	window int
}

var _ memory.Store = (*SQLiteSessionStore)(nil)

// NewSQLiteSessionStore creates a session store keeping at most window
// turns per session.
func NewSQLiteSessionStore(db *DB, window int) *SQLiteSessionStore {
	if window <= 0 {
		window = memory.DefaultWindow
	}
	return &SQLiteSessionStore{db: db, window: window}
}

// Get returns the session's turns in insertion order.
func (s *SQLiteSessionStore) Get(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, role, content, timestamp FROM turns
		 WHERE session_id = ? ORDER BY seq ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []domain.Turn{}
	for rows.Next() {
		var t domain.Turn
		var role, ts string
		if err := rows.Scan(&t.ID, &role, &t.Content, &ts); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = domain.Role(role)
		t.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Append inserts the turn and trims the session to its window in one transaction.
func (s *SQLiteSessionStore) Append(ctx context.Context, sessionID string, turn domain.Turn) (domain.Turn, error) {
	if !turn.Role.Valid() {
		return domain.Turn{}, fmt.Errorf("%w: %q", memory.ErrInvalidRole, turn.Role)
	}
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	tx, err := s.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id) VALUES (?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = datetime('now')`, sessionID,
	); err != nil {
		return domain.Turn{}, fmt.Errorf("upserting session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (id, session_id, role, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
		turn.ID, sessionID, string(turn.Role), turn.Content, turn.Timestamp.Format(time.RFC3339Nano),
	); err != nil {
		return domain.Turn{}, fmt.Errorf("inserting turn: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM turns WHERE session_id = ? AND seq NOT IN (
			SELECT seq FROM turns WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		 )`, sessionID, sessionID, s.window,
	)
	if err != nil {
		return domain.Turn{}, fmt.Errorf("evicting turns: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Turn{}, fmt.Errorf("commit append: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.db.log.Debug().Str("session", sessionID).Int64("evicted", n).Msg("trimmed session window")
	}
	return turn, nil
}

// Remove deletes one turn from a session.
func (s *SQLiteSessionStore) Remove(ctx context.Context, sessionID, turnID string) (bool, error) {
	res, err := s.db.sql.ExecContext(ctx,
		"DELETE FROM turns WHERE session_id = ? AND id = ?", sessionID, turnID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting turn: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Sessions returns all session IDs.
func (s *SQLiteSessionStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.sql.QueryContext(ctx, "SELECT id FROM sessions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
