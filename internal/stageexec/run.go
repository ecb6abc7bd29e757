package stageexec

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"talknote/internal/ledger"
	"talknote/internal/logging"
	"talknote/internal/services"
)

// Recorder persists step events. *ledger.Store satisfies it.
type Recorder interface {
	AppendEvent(ctx context.Context, id string, event ledger.StepEvent) error
}

// Options identifies the step being executed.
type Options struct {
	Recorder Recorder
	JobID    string
	Logger   *slog.Logger
	Stage    string
	Step     string
}

// Result is a step's value plus an optional note stored on its event.
type Result[T any] struct {
	Value T
	Note  string
}

// Done wraps a value without a note.
func Done[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Noted wraps a value with a note for the audit trail.
func Noted[T any](value T, note string) Result[T] {
	return Result[T]{Value: value, Note: note}
}

// Run times fn, appends exactly one step event, and returns fn's value and
// error unchanged. A recorder failure is logged and never replaces the step
// outcome.
func Run[T any](ctx context.Context, opts Options, fn func(context.Context) (Result[T], error)) (T, error) {
	stepCtx := services.WithStep(services.WithStage(ctx, opts.Stage), opts.Step)
	logger := logging.WithContext(stepCtx, opts.Logger)

	start := time.Now()
	logger.Info("step started", logging.String(logging.FieldEventType, "step_start"))

	result, err := fn(stepCtx)
	end := time.Now()

	var event ledger.StepEvent
	if err != nil {
		event = ledger.NewStepEvent(opts.Stage, opts.Step, ledger.OutcomeFailed, start, end, strings.TrimSpace(err.Error()))
		logging.ErrorWithContext(logger, "step failed", "step_failure",
			logging.Duration("duration", event.Duration),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
		)
	} else {
		event = ledger.NewStepEvent(opts.Stage, opts.Step, ledger.OutcomeCompleted, start, end, result.Note)
		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "step_complete"),
			logging.Duration("duration", event.Duration),
		}
		if result.Note != "" {
			attrs = append(attrs, logging.String("note", result.Note))
		}
		logger.Info("step completed", logging.Args(attrs...)...)
	}

	if opts.Recorder != nil && opts.JobID != "" {
		// A cancelled step still gets its failed event.
		recordCtx := context.WithoutCancel(stepCtx)
		if recErr := opts.Recorder.AppendEvent(recordCtx, opts.JobID, event); recErr != nil {
			logging.WarnWithContext(logger, "step event not recorded", "step_event_persist_failed",
				logging.Error(recErr),
				logging.String(logging.FieldErrorHint, "check ledger database health"),
				logging.String(logging.FieldImpact, "audit trail is missing this step"),
			)
		}
	}

	if err != nil {
		var zero T
		return zero, err
	}
	return result.Value, nil
}
