package ledger

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrNotFound reports a lookup for an unknown job.
	ErrNotFound = errors.New("job not found")
	// ErrTerminal reports a mutation of a completed or failed job.
	ErrTerminal = errors.New("job is terminal")
	// ErrInvalidTransition reports a status change the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending         Status = "pending"
	StatusProcessingAudio Status = "processing_audio"
	StatusTranscribing    Status = "transcribing"
	StatusProcessingText  Status = "processing_text"
	StatusSummarizing     Status = "summarizing"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
)

// orderedStatuses is the forward chain. Failed sits outside it.
var orderedStatuses = []Status{
	StatusPending,
	StatusProcessingAudio,
	StatusTranscribing,
	StatusProcessingText,
	StatusSummarizing,
	StatusCompleted,
}

var statusRank = func() map[Status]int {
	ranks := make(map[Status]int, len(orderedStatuses))
	for i, status := range orderedStatuses {
		ranks[status] = i
	}
	return ranks
}()

// AllStatuses lists every status in display order.
func AllStatuses() []Status {
	return append(append([]Status(nil), orderedStatuses...), StatusFailed)
}

// IsTerminal reports whether the status accepts no further changes.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	if s == StatusFailed {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether a job in status s may move to next. Moves go
// forward along the chain (skipping allowed) or from any non-terminal status
// to failed. Re-setting the same non-terminal status is allowed as a no-op.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() || !s.Valid() || !next.Valid() {
		return false
	}
	if next == StatusFailed || next == s {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// Visibility controls whether a job appears in owner listings.
type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// SourceKind identifies how the audio arrived.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
)

// Source is the job input as supplied by the caller.
type Source struct {
	Kind  SourceKind `json:"kind"`
	Value string     `json:"value"`
}

// ErrorDetail records why a job failed.
type ErrorDetail struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Outcome is the result of a single step.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// StepEvent is one entry of a job's audit trail.
type StepEvent struct {
	Stage    string        `json:"stage"`
	Step     string        `json:"step"`
	Outcome  Outcome       `json:"outcome"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
	Message  string        `json:"message,omitempty"`
}

// NewStepEvent builds an event with the duration derived from start and end.
func NewStepEvent(stage, step string, outcome Outcome, start, end time.Time, message string) StepEvent {
	duration := end.Sub(start)
	if duration < 0 {
		duration = 0
	}
	return StepEvent{
		Stage:    stage,
		Step:     step,
		Outcome:  outcome,
		Start:    start,
		End:      end,
		Duration: duration,
		Message:  message,
	}
}

// DurationSeconds returns the duration in seconds rounded to two decimals.
func (e StepEvent) DurationSeconds() float64 {
	return math.Round(e.Duration.Seconds()*100) / 100
}

// Job is a persisted pipeline run.
type Job struct {
	ID         string       `json:"id"`
	Owner      string       `json:"owner"`
	Status     Status       `json:"status"`
	Visibility Visibility   `json:"visibility"`
	Source     Source       `json:"source"`
	Processing Processing   `json:"processing"`
	Error      *ErrorDetail `json:"error,omitempty"`
	Events     []StepEvent  `json:"events,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}
