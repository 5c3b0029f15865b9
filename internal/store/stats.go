package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quanmltya/repeat/internal/executor"
)

// ActionStats is the persisted usage record of one action.
type ActionStats struct {
	ActionID    string
	Name        string
	Invocations int64
	Failures    int64
	Cancelled   int64
	TotalRun    time.Duration
	TimeSaved   time.Duration
	LastTrigger string
	LastUsed    time.Time
}

// RecordInvocation adds one finished run to the action's totals and the
// invocation log. It implements executor.StatsSink.
func (s *Store) RecordInvocation(ctx context.Context, inv executor.Invocation) error {
	var failed, cancelled int64
	switch inv.Outcome {
	case executor.OutcomeFailed, executor.OutcomePanicked:
		failed = 1
	case executor.OutcomeCancelled:
		cancelled = 1
	}
	errText := ""
	if inv.Err != nil {
		errText = inv.Err.Error()
	}

	return s.transact(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO action_stats (action_id, name, invocations, failures, cancelled,
				total_run_ns, time_saved_ns, last_trigger, last_used_ms)
			VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(action_id) DO UPDATE SET
				name = excluded.name,
				invocations = invocations + 1,
				failures = failures + excluded.failures,
				cancelled = cancelled + excluded.cancelled,
				total_run_ns = total_run_ns + excluded.total_run_ns,
				time_saved_ns = time_saved_ns + excluded.time_saved_ns,
				last_trigger = excluded.last_trigger,
				last_used_ms = excluded.last_used_ms
		`, inv.ActionID, inv.Name, failed, cancelled,
			int64(inv.Duration), int64(inv.TimeSaved), inv.Trigger, inv.Started.UnixMilli())
		if err != nil {
			return fmt.Errorf("upsert action stats: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO invocations (action_id, started_ms, duration_ns, outcome, error)
			VALUES (?, ?, ?, ?, ?)
		`, inv.ActionID, inv.Started.UnixMilli(), int64(inv.Duration), inv.Outcome.String(), errText)
		if err != nil {
			return fmt.Errorf("insert invocation: %w", err)
		}
		return nil
	})
}

const statsColumns = `action_id, name, invocations, failures, cancelled,
	total_run_ns, time_saved_ns, last_trigger, last_used_ms`

func scanStats(row interface{ Scan(...any) error }) (ActionStats, error) {
	var st ActionStats
	var totalRun, saved, lastUsed int64
	err := row.Scan(&st.ActionID, &st.Name, &st.Invocations, &st.Failures, &st.Cancelled,
		&totalRun, &saved, &st.LastTrigger, &lastUsed)
	if err != nil {
		return st, err
	}
	st.TotalRun = time.Duration(totalRun)
	st.TimeSaved = time.Duration(saved)
	if lastUsed > 0 {
		st.LastUsed = time.UnixMilli(lastUsed)
	}
	return st, nil
}

// Stats returns the usage record of one action.
func (s *Store) Stats(ctx context.Context, actionID string) (ActionStats, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+statsColumns+` FROM action_stats WHERE action_id = ?`, actionID)
	st, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return st, fmt.Errorf("%w: action %s", ErrNotFound, actionID)
	}
	if err != nil {
		return st, fmt.Errorf("query action stats: %w", err)
	}
	return st, nil
}

// AllStats returns every usage record, most used first.
func (s *Store) AllStats(ctx context.Context) ([]ActionStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+statsColumns+`
		FROM action_stats ORDER BY invocations DESC, action_id`)
	if err != nil {
		return nil, fmt.Errorf("query action stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ActionStats
	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action stats: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// TotalTimeSaved sums the estimated time saved across every action.
func (s *Store) TotalTimeSaved(ctx context.Context) (time.Duration, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(time_saved_ns), 0) FROM action_stats`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum time saved: %w", err)
	}
	return time.Duration(total), nil
}

// RecentOutcomes returns the outcomes of the action's last n runs, newest
// first.
func (s *Store) RecentOutcomes(ctx context.Context, actionID string, n int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome FROM invocations
		WHERE action_id = ?
		ORDER BY started_ms DESC, id DESC
		LIMIT ?
	`, actionID, n)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var o string
		if err := rows.Scan(&o); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ResetStats deletes an action's usage record and invocation log.
func (s *Store) ResetStats(ctx context.Context, actionID string) error {
	return s.transact(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM action_stats WHERE action_id = ?`, actionID); err != nil {
			return fmt.Errorf("delete action stats: %w", err)
		}
		return nil
	})
}
