package api

import "talknote/internal/ledger"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a ledger job in a transport-friendly format.
type Job struct {
	ID         string            `json:"id"`
	Owner      string            `json:"owner"`
	Status     string            `json:"status"`
	Visibility string            `json:"visibility"`
	Source     Source            `json:"source"`
	Processing ledger.Processing `json:"processing"`
	Error      *JobError         `json:"error,omitempty"`
	Events     []StepEvent       `json:"events,omitempty"`
	CreatedAt  string            `json:"createdAt,omitempty"`
	UpdatedAt  string            `json:"updatedAt,omitempty"`
}

// Source is the job input.
type Source struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// JobError records why a job failed.
type JobError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// StepEvent is one audit trail entry.
type StepEvent struct {
	Stage           string  `json:"stage"`
	Step            string  `json:"step"`
	Outcome         string  `json:"outcome"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	DurationSeconds float64 `json:"durationSeconds"`
	Message         string  `json:"message,omitempty"`
}

// HistoryEntry is the compact listing form of a job.
type HistoryEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Status  string `json:"status"`
	Preview string `json:"preview"`
}

// StatusResponse answers a status poll.
type StatusResponse struct {
	Status string             `json:"status"`
	Result *ledger.Processing `json:"result"`
	Error  string             `json:"error,omitempty"`
}

// SubmitResponse acknowledges an accepted job.
type SubmitResponse struct {
	JobID string `json:"job_id"`
}

// SubmitURLRequest is the JSON body for URL submissions.
type SubmitURLRequest struct {
	URL      string `json:"url"`
	Quality  string `json:"quality,omitempty"`
	Accuracy string `json:"accuracy,omitempty"`
	Language string `json:"language,omitempty"`
}

// JobListResponse wraps an owner's visible jobs.
type JobListResponse struct {
	Jobs []HistoryEntry `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// HideResponse reports how many jobs were hidden.
type HideResponse struct {
	Hidden int64 `json:"hidden"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HealthResponse summarizes daemon readiness.
type HealthResponse struct {
	Status       string             `json:"status"`
	LedgerPath   string             `json:"ledgerPath"`
	LedgerOK     bool               `json:"ledgerOk"`
	LedgerError  string             `json:"ledgerError,omitempty"`
	ActiveJobs   int                `json:"activeJobs"`
	JobCounts    map[string]int     `json:"jobCounts"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// LogEvent is a streamed log record.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp string            `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	JobID     string            `json:"jobId,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	Step      string            `json:"step,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse is a page of log events plus the cursor for the next page.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}
