package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AppendEvent adds a step event to a non-terminal job.
func (s *Store) AppendEvent(ctx context.Context, id string, event StepEvent) error {
	if strings.TrimSpace(event.Stage) == "" || strings.TrimSpace(event.Step) == "" {
		return fmt.Errorf("append event: stage and step required")
	}
	if event.Outcome != OutcomeCompleted && event.Outcome != OutcomeFailed {
		return fmt.Errorf("append event: unknown outcome %q", event.Outcome)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := currentStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.IsTerminal() {
			return fmt.Errorf("%w: %s is %s", ErrTerminal, id, current)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO step_events (job_id, stage, step, outcome, started_at, ended_at, duration_seconds, message)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, event.Stage, event.Step, event.Outcome,
			formatTime(event.Start), formatTime(event.End), event.DurationSeconds(), event.Message,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE jobs SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), id); err != nil {
			return fmt.Errorf("touch job: %w", err)
		}
		return nil
	})
}

// Events returns a job's step events in append order.
func (s *Store) Events(ctx context.Context, id string) ([]StepEvent, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, step, outcome, started_at, ended_at, duration_seconds, message
         FROM step_events WHERE job_id = ? ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []StepEvent
	for rows.Next() {
		var (
			event      StepEvent
			outcome    string
			startedRaw string
			endedRaw   string
			seconds    float64
		)
		if err := rows.Scan(&event.Stage, &event.Step, &outcome, &startedRaw, &endedRaw, &seconds, &event.Message); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Outcome = Outcome(outcome)
		event.Start = parseTime(startedRaw)
		event.End = parseTime(endedRaw)
		event.Duration = time.Duration(seconds * float64(time.Second))
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
