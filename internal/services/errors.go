package services

import (
	"errors"
	"fmt"
	"strings"
)

// Domain markers. A job failure carrying one of these is recorded as a
// pipeline error; anything else is recorded as a critical error.
var (
	ErrFileSystem        = errors.New("file system error")
	ErrToolInvocation    = errors.New("tool invocation error")
	ErrTranscription     = errors.New("transcription error")
	ErrServiceCall       = errors.New("service call error")
	ErrLanguageDetection = errors.New("language detection error")
	ErrIrrelevantContent = errors.New("irrelevant content")
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Failure categories persisted as the error stage of a failed job.
const (
	CategoryPipeline = "pipeline_error"
	CategoryCritical = "critical_error"
)

var domainMarkers = []error{
	ErrFileSystem,
	ErrToolInvocation,
	ErrTranscription,
	ErrServiceCall,
	ErrLanguageDetection,
	ErrIrrelevantContent,
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsDomain reports whether err carries one of the domain markers.
func IsDomain(err error) bool {
	if err == nil {
		return false
	}
	for _, marker := range domainMarkers {
		if errors.Is(err, marker) {
			return true
		}
	}
	return false
}

// Category maps a job failure to the category recorded in the ledger.
// Control flow never depends on it.
func Category(err error) string {
	if IsDomain(err) {
		return CategoryPipeline
	}
	return CategoryCritical
}

// Kind returns a short label naming the marker carried by err, for logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileSystem):
		return "file_system"
	case errors.Is(err, ErrToolInvocation):
		return "tool_invocation"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrServiceCall):
		return "service_call"
	case errors.Is(err, ErrLanguageDetection):
		return "language_detection"
	case errors.Is(err, ErrIrrelevantContent):
		return "irrelevant_content"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "unexpected"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
