package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const jobColumns = "id, owner, status, visibility, source_kind, source_value, processing_json, error_stage, error_message, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner rowScanner) (*Job, error) {
	var (
		job            Job
		status         string
		visibility     string
		sourceKind     string
		processingJSON sql.NullString
		errorStage     sql.NullString
		errorMessage   sql.NullString
		createdRaw     string
		updatedRaw     string
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Owner,
		&status,
		&visibility,
		&sourceKind,
		&job.Source.Value,
		&processingJSON,
		&errorStage,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.Visibility = Visibility(visibility)
	job.Source.Kind = SourceKind(sourceKind)
	if processingJSON.Valid && processingJSON.String != "" {
		if err := json.Unmarshal([]byte(processingJSON.String), &job.Processing); err != nil {
			return nil, fmt.Errorf("decode processing for job %s: %w", job.ID, err)
		}
	}
	if errorStage.Valid || errorMessage.Valid {
		job.Error = &ErrorDetail{Stage: errorStage.String, Message: errorMessage.String}
	}
	job.CreatedAt = parseTime(createdRaw)
	job.UpdatedAt = parseTime(updatedRaw)
	return &job, nil
}

func encodeProcessing(p Processing) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode processing: %w", err)
	}
	return string(data), nil
}

func jsonUnmarshal(raw string, target any) error {
	return json.Unmarshal([]byte(raw), target)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	if t, err := time.Parse(timeLayout, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
