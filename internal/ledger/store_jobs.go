package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StaleJobMessage is the error recorded for jobs abandoned by a previous daemon.
const StaleJobMessage = "job abandoned: daemon stopped before the run finished"

// Create inserts a pending, visible job with a fresh identifier.
func (s *Store) Create(ctx context.Context, owner string, kind SourceKind, value string) (*Job, error) {
	return s.CreateWithID(ctx, uuid.NewString(), owner, kind, value)
}

// CreateWithID inserts a pending job with a caller-chosen identifier.
func (s *Store) CreateWithID(ctx context.Context, id, owner string, kind SourceKind, value string) (*Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("create job: id required")
	}
	if kind != SourceFile && kind != SourceURL {
		return nil, fmt.Errorf("create job: unknown source kind %q", kind)
	}
	if strings.TrimSpace(value) == "" {
		return nil, errors.New("create job: source required")
	}
	now := time.Now().UTC()
	job := &Job{
		ID:         id,
		Owner:      owner,
		Status:     StatusPending,
		Visibility: VisibilityVisible,
		Source:     Source{Kind: kind, Value: value},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (id, owner, status, visibility, source_kind, source_value, processing_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, '{}', ?, ?)`,
		job.ID, job.Owner, job.Status, job.Visibility, kind, value, formatTime(now), formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

// Get returns a job with its step events.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	events, err := s.Events(ctx, id)
	if err != nil {
		return nil, err
	}
	job.Events = events
	return job, nil
}

// ListVisible returns the owner's visible jobs, newest first, without events.
func (s *Store) ListVisible(ctx context.Context, owner string) ([]*Job, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE owner = ? AND visibility = ? ORDER BY created_at DESC, rowid DESC",
		owner, VisibilityVisible,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// Hide removes one job from the owner's listing. It reports whether a
// visible job matched.
func (s *Store) Hide(ctx context.Context, id, owner string) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET visibility = ?, updated_at = ? WHERE id = ? AND owner = ? AND visibility = ?`,
		VisibilityHidden, formatTime(time.Now()), id, owner, VisibilityVisible,
	)
	if err != nil {
		return false, fmt.Errorf("hide job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("hide job: %w", err)
	}
	return affected > 0, nil
}

// HideAll hides every visible job of owner and returns how many changed.
func (s *Store) HideAll(ctx context.Context, owner string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET visibility = ?, updated_at = ? WHERE owner = ? AND visibility = ?`,
		VisibilityHidden, formatTime(time.Now()), owner, VisibilityVisible,
	)
	if err != nil {
		return 0, fmt.Errorf("hide jobs: %w", err)
	}
	return res.RowsAffected()
}

// SetStatus moves a job to status. Error detail is stored only for failed.
// An invalid move returns ErrInvalidTransition; terminal jobs return ErrTerminal.
func (s *Store) SetStatus(ctx context.Context, id string, status Status, detail *ErrorDetail) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := currentStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkTransition(id, current, status); err != nil {
			return err
		}
		if current == status {
			return nil
		}
		var stage, message any
		if status == StatusFailed && detail != nil {
			stage, message = nullableString(detail.Stage), nullableString(detail.Message)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, error_stage = ?, error_message = ?, updated_at = ? WHERE id = ?`,
			status, stage, message, formatTime(time.Now()), id,
		); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
}

// MergeProcessing merges partial results into a non-terminal job.
func (s *Store) MergeProcessing(ctx context.Context, id string, partial Processing) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := currentStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.IsTerminal() {
			return fmt.Errorf("%w: %s is %s", ErrTerminal, id, current)
		}
		return mergeProcessingTx(ctx, tx, id, partial, current)
	})
}

// Complete merges the final results and marks the job completed in one
// transaction.
func (s *Store) Complete(ctx context.Context, id string, final Processing) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := currentStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkTransition(id, current, StatusCompleted); err != nil {
			return err
		}
		return mergeProcessingTx(ctx, tx, id, final, StatusCompleted)
	})
}

// Stats counts jobs per status. Every status is present in the result.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int, len(AllStatuses()))
	for _, status := range AllStatuses() {
		counts[status] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}

// FailStale marks non-terminal jobs last updated before cutoff as failed.
// A daemon calls it at startup for runs its predecessor never finished.
func (s *Store) FailStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_stage = ?, error_message = ?, updated_at = ?
         WHERE status NOT IN (?, ?) AND updated_at <= ?`,
		StatusFailed, "critical_error", StaleJobMessage, formatTime(time.Now()),
		StatusCompleted, StatusFailed, formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("fail stale jobs: %w", err)
	}
	return res.RowsAffected()
}

func currentStatus(ctx context.Context, tx *sql.Tx, id string) (Status, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("read status: %w", err)
	}
	return Status(status), nil
}

func checkTransition(id string, current, next Status) error {
	if current.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrTerminal, id, current)
	}
	if !current.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}
	return nil
}

func mergeProcessingTx(ctx context.Context, tx *sql.Tx, id string, partial Processing, status Status) error {
	var raw sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT processing_json FROM jobs WHERE id = ?`, id).Scan(&raw); err != nil {
		return fmt.Errorf("read processing: %w", err)
	}
	var merged Processing
	if raw.Valid && raw.String != "" {
		if err := jsonUnmarshal(raw.String, &merged); err != nil {
			return fmt.Errorf("decode processing: %w", err)
		}
	}
	merged.Merge(partial)
	encoded, err := encodeProcessing(merged)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET processing_json = ?, status = ?, updated_at = ? WHERE id = ?`,
		encoded, status, formatTime(time.Now()), id,
	); err != nil {
		return fmt.Errorf("write processing: %w", err)
	}
	return nil
}
