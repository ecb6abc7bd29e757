package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"talknote/internal/config"
	"talknote/internal/logging"
)

// JobLogger gives each job a dedicated log file under <log_dir>/jobs.
// Records are also published to the stream hub so the API can tail them.
type JobLogger struct {
	baseDir string
	hub     *logging.StreamHub
	cfg     *config.Config
}

// NewJobLogger creates a job logger. A config without a log directory
// yields a JobLogger whose Open always fails.
func NewJobLogger(cfg *config.Config, hub *logging.StreamHub) *JobLogger {
	dir := ""
	if cfg != nil && cfg.Paths.LogDir != "" {
		dir = filepath.Join(cfg.Paths.LogDir, "jobs")
	}
	return &JobLogger{baseDir: dir, hub: hub, cfg: cfg}
}

// Open creates the log file for a job and returns a logger writing to it,
// the file path, and the closer for the file.
func (j *JobLogger) Open(jobID, source string) (*slog.Logger, string, io.Closer, error) {
	if strings.TrimSpace(j.baseDir) == "" {
		return nil, "", nil, fmt.Errorf("job log directory not configured")
	}
	if err := os.MkdirAll(j.baseDir, 0o755); err != nil {
		return nil, "", nil, fmt.Errorf("ensure job log directory: %w", err)
	}
	path := filepath.Join(j.baseDir, j.filename(jobID, source))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open job log: %w", err)
	}

	level := "info"
	format := "json"
	if j.cfg != nil {
		if strings.TrimSpace(j.cfg.Logging.Level) != "" {
			level = j.cfg.Logging.Level
		}
		if strings.TrimSpace(j.cfg.Logging.Format) != "" {
			format = j.cfg.Logging.Format
		}
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Format: format,
		Writer: file,
		Stream: j.hub,
	})
	if err != nil {
		_ = file.Close()
		return nil, "", nil, err
	}
	return logger, path, file, nil
}

func (j *JobLogger) filename(jobID, source string) string {
	timestamp := time.Now().UTC().Format("20060102T150405")
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	base := filepath.Base(strings.TrimSpace(source))
	if ext := filepath.Ext(base); ext != "" && !strings.Contains(source, "://") {
		base = strings.TrimSuffix(base, ext)
	}
	slug := sanitizeSlug(base)
	if slug == "" {
		slug = "untitled"
	}
	if len(slug) > 48 {
		slug = strings.Trim(slug[:48], "-")
	}
	return fmt.Sprintf("%s-%s-%s.log", timestamp, short, slug)
}

func sanitizeSlug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(value))
	lastDash := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastDash = false
		case r >= 'A' && r <= 'Z':
			builder.WriteRune(unicode.ToLower(r))
			lastDash = false
		default:
			if !lastDash {
				builder.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(builder.String(), "-")
}
