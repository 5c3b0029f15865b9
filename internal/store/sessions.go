package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quanmltya/repeat/internal/recorder"
)

// SessionInfo summarizes a stored session without decoding its events.
type SessionInfo struct {
	ID       uuid.UUID
	Name     string
	Created  time.Time
	Events   int
	Duration time.Duration
}

// SaveSession stores a session, replacing any session with the same ID.
func (s *Store) SaveSession(ctx context.Context, sess *recorder.Session) error {
	data, err := recorder.Export(sess)
	if err != nil {
		return err
	}
	return RetryWithBackoff(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO sessions (id, name, created_ms, events, duration_ns, data)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				events = excluded.events,
				duration_ns = excluded.duration_ns,
				data = excluded.data
		`, sess.ID.String(), sess.Name, sess.Created.UnixMilli(), sess.Len(), int64(sess.Duration()), data)
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return nil
	})
}

// LoadSession returns the session with the given ID.
func (s *Store) LoadSession(ctx context.Context, id uuid.UUID) (*recorder.Session, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE id = ?`, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return recorder.Import(data)
}

// LatestSession returns the most recently created session.
func (s *Store) LatestSession(ctx context.Context) (*recorder.Session, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions ORDER BY created_ms DESC, rowid DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no sessions", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load latest session: %w", err)
	}
	return recorder.Import(data)
}

// ListSessions returns stored sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_ms, events, duration_ns
		FROM sessions ORDER BY created_ms DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var id string
		var created, duration int64
		if err := rows.Scan(&id, &info.Name, &created, &info.Events, &duration); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if info.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("session id %q: %w", id, err)
		}
		info.Created = time.UnixMilli(created)
		info.Duration = time.Duration(duration)
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteSession removes a session. Deleting a missing session returns
// ErrNotFound.
func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return nil
}
