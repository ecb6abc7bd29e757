package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"talknote/internal/chunk"
	"talknote/internal/config"
	"talknote/internal/intel"
	"talknote/internal/language"
	"talknote/internal/ledger"
	"talknote/internal/logging"
	"talknote/internal/media/ytdlp"
	"talknote/internal/notifications"
	"talknote/internal/services"
)

// Media is the audio toolchain the pipeline drives.
type Media interface {
	chunk.Segmenter
	Standardize(ctx context.Context, in, out, bitrate string) error
	Clean(ctx context.Context, in, out string) error
	ExtractLeading(ctx context.Context, in, out string, seconds int, bitrate string) error
	FetchMetadata(ctx context.Context, url string) (ytdlp.Metadata, bool)
	Download(ctx context.Context, url, dir string) (string, error)
}

// Intelligence is the transcription and language-model capability set.
// *intel.Service satisfies it.
type Intelligence interface {
	CanonicalLanguage() string
	TranscribeAll(ctx context.Context, paths []string) (string, error)
	ClassifyMetadata(ctx context.Context, meta ytdlp.Metadata) intel.Decision
	CheckRelevance(ctx context.Context, clipPath string) (intel.Relevance, error)
	DetectLanguage(text string) (string, error)
	TranslateToCanonical(ctx context.Context, text string) (string, error)
	TranslateDocument(ctx context.Context, text, targetLanguage string) (string, error)
	Summarize(ctx context.Context, text string) (intel.Summary, error)
}

// Request describes one pipeline run.
type Request struct {
	Source         string
	Owner          string
	QualityPreset  string
	TargetLanguage string
	// JobID names an existing pending job. A new job is created when empty.
	JobID string
	// RemoveSource deletes a local source file once the run ends.
	RemoveSource bool
}

// Orchestrator executes pipeline runs against the ledger.
type Orchestrator struct {
	cfg      *config.Config
	store    *ledger.Store
	media    Media
	intel    Intelligence
	notifier notifications.Service
	jobLogs  *JobLogger
	logger   *slog.Logger
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithNotifier overrides the notification service built from config.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithJobLogs routes each job's log records to its own file.
func WithJobLogs(jobLogs *JobLogger) Option {
	return func(o *Orchestrator) {
		o.jobLogs = jobLogs
	}
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(cfg *config.Config, store *ledger.Store, media Media, intelligence Intelligence, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		cfg:      cfg,
		store:    store,
		media:    media,
		intel:    intelligence,
		notifier: notifications.NewService(cfg),
		logger:   logging.NewComponentLogger(logger, "workflow"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SourceKind classifies a source string. Anything starting with http:// or
// https:// is a URL; everything else is a local path.
func SourceKind(source string) ledger.SourceKind {
	trimmed := strings.TrimSpace(source)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ledger.SourceURL
	}
	return ledger.SourceFile
}

// Create records a pending job for req without running it.
func (o *Orchestrator) Create(ctx context.Context, req Request) (*ledger.Job, error) {
	source := strings.TrimSpace(req.Source)
	if source == "" {
		return nil, services.Wrap(services.ErrValidation, "setup", "create job", "source is required", nil)
	}
	owner := strings.TrimSpace(req.Owner)
	if owner == "" {
		return nil, services.Wrap(services.ErrValidation, "setup", "create job", "owner is required", nil)
	}
	return o.store.Create(ctx, owner, SourceKind(source), source)
}

// Run executes the full pipeline for req and returns the final processing
// document. On failure the job is marked failed and the error is returned.
// The workspace, and the source file when req.RemoveSource is set, are
// removed whatever the outcome.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*ledger.Processing, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req.Source = strings.TrimSpace(req.Source)
	if req.RemoveSource && req.Source != "" && SourceKind(req.Source) == ledger.SourceFile {
		// Registered before the job exists so a failed Create still drops the upload.
		defer func() { removeSource(logging.WithContext(ctx, o.logger), req.Source) }()
	}

	jobID := strings.TrimSpace(req.JobID)
	if jobID == "" {
		job, err := o.Create(ctx, req)
		if err != nil {
			return nil, err
		}
		jobID = job.ID
	} else if _, err := o.store.Get(ctx, jobID); err != nil {
		return nil, err
	}
	ctx = services.WithJobID(ctx, jobID)

	base, closeLog := o.jobLogger(ctx, jobID, req.Source)
	defer closeLog()
	logger := logging.WithContext(ctx, base)

	preset, bitrate := o.cfg.Bitrate(req.QualityPreset)
	run := &jobRun{
		o:         o,
		id:        jobID,
		req:       req,
		kind:      SourceKind(req.Source),
		preset:    preset,
		bitrate:   bitrate,
		target:    language.TargetName(req.TargetLanguage),
		workspace: filepath.Join(o.cfg.Paths.WorkspaceDir, "job-"+jobID),
		base:      base,
		logger:    logger,
	}
	defer run.cleanup()

	logger.Info("pipeline started",
		logging.String(logging.FieldEventType, "pipeline_start"),
		logging.String("source", req.Source),
		logging.String("source_kind", string(run.kind)),
		logging.String("quality_preset", preset),
		logging.String("target_language", run.target),
	)

	result, err := run.execute(ctx)
	if err != nil {
		o.fail(ctx, run, err)
		return nil, err
	}

	logger.Info("pipeline completed",
		logging.String(logging.FieldEventType, "pipeline_complete"),
		logging.String("detected_language", result.Language.DetectedLanguage),
	)
	o.notify(ctx, run, notifications.EventJobCompleted, nil)
	return result, nil
}

func (o *Orchestrator) jobLogger(ctx context.Context, jobID, source string) (*slog.Logger, func()) {
	if o.jobLogs == nil {
		return o.logger, func() {}
	}
	logger, path, closer, err := o.jobLogs.Open(jobID, source)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "job log unavailable", "job_log_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
			logging.String(logging.FieldImpact, "job logs go to the daemon log instead"),
		)
		return o.logger, func() {}
	}
	logging.WithContext(ctx, o.logger).Info("job log opened", logging.String("path", path))
	return logging.NewComponentLogger(logger, "workflow"), func() { _ = closer.Close() }
}

func (o *Orchestrator) fail(ctx context.Context, run *jobRun, runErr error) {
	// The caller's context may already be cancelled; the failure still has to land.
	persistCtx := context.WithoutCancel(ctx)
	message := strings.TrimSpace(runErr.Error())
	if message == "" {
		message = "pipeline failed without error detail"
	}
	detail := &ledger.ErrorDetail{Stage: services.Category(runErr), Message: message}

	logging.ErrorWithContext(run.logger, "pipeline failed", "pipeline_failure",
		logging.String(logging.FieldErrorKind, services.Kind(runErr)),
		logging.String("error_stage", detail.Stage),
		logging.Error(runErr),
	)

	if err := o.store.SetStatus(persistCtx, run.id, ledger.StatusFailed, detail); err != nil {
		if errors.Is(err, ledger.ErrTerminal) {
			run.logger.Debug("job already terminal, failure not recorded", logging.Error(err))
		} else {
			run.logger.Error("failed to persist job failure",
				logging.Error(err),
				logging.String(logging.FieldEventType, "failure_persist_failed"),
				logging.String(logging.FieldErrorHint, "check ledger database health"),
			)
		}
	}
	o.notify(persistCtx, run, notifications.EventJobFailed, notifications.Payload{
		"stage": detail.Stage,
		"error": message,
	})
}

func (o *Orchestrator) notify(ctx context.Context, run *jobRun, event notifications.Event, extra notifications.Payload) {
	if o.notifier == nil {
		return
	}
	payload := notifications.Payload{
		"jobID":  run.id,
		"source": run.req.Source,
		"owner":  run.req.Owner,
	}
	if run.target != "" && event == notifications.EventJobCompleted {
		payload["language"] = run.target
	}
	for key, value := range extra {
		payload[key] = value
	}
	if err := o.notifier.Publish(ctx, event, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			run.logger.Debug("shutting down, could not send notification")
		} else {
			run.logger.Debug(fmt.Sprintf("%s notification failed", event), logging.Error(err))
		}
	}
}
