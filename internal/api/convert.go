package api

import (
	"path/filepath"
	"strings"
	"time"

	"talknote/internal/deps"
	"talknote/internal/ledger"
	"talknote/internal/logging"
	"talknote/internal/workflow"
)

const previewLength = 75

// FromJob converts a ledger job to its API representation.
func FromJob(job *ledger.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:         job.ID,
		Owner:      job.Owner,
		Status:     string(job.Status),
		Visibility: string(job.Visibility),
		Source:     Source{Kind: string(job.Source.Kind), Value: job.Source.Value},
		Processing: job.Processing,
		CreatedAt:  formatTime(job.CreatedAt),
		UpdatedAt:  formatTime(job.UpdatedAt),
	}
	if job.Error != nil {
		dto.Error = &JobError{Stage: job.Error.Stage, Message: job.Error.Message}
	}
	if len(job.Events) > 0 {
		dto.Events = make([]StepEvent, 0, len(job.Events))
		for _, event := range job.Events {
			dto.Events = append(dto.Events, FromStepEvent(event))
		}
	}
	return dto
}

// FromStepEvent converts an audit trail entry.
func FromStepEvent(event ledger.StepEvent) StepEvent {
	return StepEvent{
		Stage:           event.Stage,
		Step:            event.Step,
		Outcome:         string(event.Outcome),
		StartTime:       formatTime(event.Start),
		EndTime:         formatTime(event.End),
		DurationSeconds: event.DurationSeconds(),
		Message:         event.Message,
	}
}

// FromJobsHistory converts jobs to history entries, keeping their order.
func FromJobsHistory(jobs []*ledger.Job) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, HistoryEntryOf(job))
	}
	return out
}

// HistoryEntryOf builds the compact listing form of a job. The preview is
// the start of the cleaned transcript once the job has completed.
func HistoryEntryOf(job *ledger.Job) HistoryEntry {
	entry := HistoryEntry{
		ID:      job.ID,
		Name:    SourceName(job.Source.Value),
		Date:    formatTime(job.CreatedAt),
		Status:  string(job.Status),
		Preview: "Processing...",
	}
	switch job.Status {
	case ledger.StatusCompleted:
		entry.Preview = "No preview available."
		if t := job.Processing.Transcription; t != nil && strings.TrimSpace(t.CleanedTranscript) != "" {
			entry.Preview = preview(t.CleanedTranscript)
		}
	case ledger.StatusFailed:
		entry.Preview = "Failed"
		if job.Error != nil && job.Error.Message != "" {
			entry.Preview = preview(job.Error.Message)
		}
	}
	return entry
}

// SourceName returns the last path segment of a file path or URL.
func SourceName(value string) string {
	value = strings.TrimRight(strings.TrimSpace(value), "/")
	if idx := strings.LastIndex(value, "/"); idx >= 0 {
		return value[idx+1:]
	}
	return filepath.Base(value)
}

// FromStatusView converts a workflow status poll.
func FromStatusView(view workflow.StatusView) StatusResponse {
	return StatusResponse{Status: string(view.Status), Result: view.Result, Error: view.Error}
}

// FromDependencies converts dependency checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, dep := range statuses {
		out = append(out, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}

// FromStats converts per-status job counts.
func FromStats(stats map[ledger.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

func convertLogEvents(events []logging.LogEvent) []LogEvent {
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, LogEvent{
			Sequence:  evt.Sequence,
			Timestamp: formatTime(evt.Timestamp),
			Level:     evt.Level,
			Message:   evt.Message,
			Component: evt.Component,
			JobID:     evt.JobID,
			Stage:     evt.Stage,
			Step:      evt.Step,
			Fields:    evt.Fields,
		})
	}
	return out
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
