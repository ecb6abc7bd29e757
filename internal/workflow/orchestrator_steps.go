package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"talknote/internal/chunk"
	"talknote/internal/intel"
	"talknote/internal/language"
	"talknote/internal/ledger"
	"talknote/internal/logging"
	"talknote/internal/media/ytdlp"
	"talknote/internal/services"
	"talknote/internal/stageexec"
	"talknote/internal/textutil"
)

// Stage names recorded on step events.
const (
	stageSetup            = "setup"
	stageAudioProcessing  = "audio_processing"
	stageTranscription    = "transcription"
	stageTextProcessing   = "text_processing"
	stageSummarization    = "summarization"
	stageFinalTranslation = "final_translation"
)

// jobRun carries the state of one pipeline execution.
type jobRun struct {
	o         *Orchestrator
	id        string
	req       Request
	kind      ledger.SourceKind
	preset    string
	bitrate   string
	target    string
	workspace string
	base      *slog.Logger
	logger    *slog.Logger
	result    ledger.Processing
}

type metadataLookup struct {
	meta  ytdlp.Metadata
	found bool
}

func (r *jobRun) step(stage, step string) stageexec.Options {
	return stageexec.Options{
		Recorder: r.o.store,
		JobID:    r.id,
		Logger:   r.base,
		Stage:    stage,
		Step:     step,
	}
}

func (r *jobRun) persist(ctx context.Context, partial ledger.Processing) error {
	r.result.Merge(partial)
	return r.o.store.MergeProcessing(ctx, r.id, partial)
}

func (r *jobRun) setStatus(ctx context.Context, status ledger.Status) error {
	if err := r.o.store.SetStatus(ctx, r.id, status, nil); err != nil {
		return err
	}
	r.logger.Info("job status changed",
		logging.String(logging.FieldEventType, "status_change"),
		logging.String("status", string(status)),
	)
	return nil
}

func (r *jobRun) execute(ctx context.Context) (*ledger.Processing, error) {
	if err := r.prepareWorkspace(); err != nil {
		return nil, err
	}
	if err := r.setStatus(ctx, ledger.StatusProcessingAudio); err != nil {
		return nil, err
	}

	input, screen, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.persist(ctx, ledger.Processing{Screening: &ledger.ScreeningResult{Required: ledger.Bool(screen)}}); err != nil {
		return nil, err
	}
	if screen {
		if err := r.screen(ctx, input); err != nil {
			return nil, err
		}
	}

	chunks, err := r.prepareAudio(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := r.setStatus(ctx, ledger.StatusTranscribing); err != nil {
		return nil, err
	}
	raw, err := stageexec.Run(ctx, r.step(stageTranscription, "transcribe"), func(ctx context.Context) (stageexec.Result[string], error) {
		text, err := r.o.intel.TranscribeAll(ctx, chunks)
		if err != nil {
			return stageexec.Result[string]{}, err
		}
		return stageexec.Noted(text, fmt.Sprintf("%d chunk(s), %d characters", len(chunks), len(text))), nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.persist(ctx, ledger.Processing{Transcription: &ledger.TranscriptionResult{RawTranscript: raw}}); err != nil {
		return nil, err
	}

	if err := r.setStatus(ctx, ledger.StatusProcessingText); err != nil {
		return nil, err
	}
	transcript, err := r.processText(ctx, raw)
	if err != nil {
		return nil, err
	}

	if err := r.setStatus(ctx, ledger.StatusSummarizing); err != nil {
		return nil, err
	}
	if err := r.summarize(ctx, transcript); err != nil {
		return nil, err
	}
	if err := r.translateReport(ctx); err != nil {
		return nil, err
	}

	if err := r.o.store.Complete(ctx, r.id, r.result); err != nil {
		return nil, err
	}
	final := r.result
	return &final, nil
}

func (r *jobRun) prepareWorkspace() error {
	if err := os.RemoveAll(r.workspace); err != nil {
		return services.Wrap(services.ErrFileSystem, stageSetup, "prepare workspace", "purge stale workspace", err)
	}
	if err := os.MkdirAll(r.workspace, 0o755); err != nil {
		return services.Wrap(services.ErrFileSystem, stageSetup, "prepare workspace", "create workspace", err)
	}
	return nil
}

// acquire resolves the source to a local audio file and reports whether the
// content still needs screening.
func (r *jobRun) acquire(ctx context.Context) (string, bool, error) {
	if r.kind == ledger.SourceFile {
		path, err := stageexec.Run(ctx, r.step(stageSetup, "validate_source"), func(ctx context.Context) (stageexec.Result[string], error) {
			info, err := os.Stat(r.req.Source)
			if err != nil {
				return stageexec.Result[string]{}, services.Wrap(services.ErrFileSystem, stageSetup, "validate source", "input file not found", err)
			}
			if info.IsDir() {
				return stageexec.Result[string]{}, services.Wrap(services.ErrFileSystem, stageSetup, "validate source", "input is a directory", nil)
			}
			return stageexec.Noted(r.req.Source, fmt.Sprintf("%d bytes", info.Size())), nil
		})
		return path, true, err
	}

	lookup, err := stageexec.Run(ctx, r.step(stageSetup, "get_metadata"), func(ctx context.Context) (stageexec.Result[metadataLookup], error) {
		meta, ok := r.o.media.FetchMetadata(ctx, r.req.Source)
		if !ok {
			return stageexec.Noted(metadataLookup{}, "metadata unavailable"), nil
		}
		return stageexec.Noted(metadataLookup{meta: meta, found: true}, fmt.Sprintf("title: %s", meta.Title)), nil
	})
	if err != nil {
		return "", false, err
	}
	if !lookup.found {
		path, err := r.download(ctx)
		return path, true, err
	}

	decision, err := stageexec.Run(ctx, r.step(stageSetup, "classify_metadata"), func(ctx context.Context) (stageexec.Result[intel.Decision], error) {
		decision := r.o.intel.ClassifyMetadata(ctx, lookup.meta)
		return stageexec.Noted(decision, "decision: "+string(decision)), nil
	})
	if err != nil {
		return "", false, err
	}
	if err := r.persist(ctx, ledger.Processing{Screening: &ledger.ScreeningResult{MetadataDecision: string(decision)}}); err != nil {
		return "", false, err
	}
	if decision == intel.DecisionReject {
		return "", false, services.Wrap(services.ErrIrrelevantContent, stageSetup, "classify metadata", "URL rejected by metadata analysis", nil)
	}

	path, err := r.download(ctx)
	return path, decision != intel.DecisionProceed, err
}

func (r *jobRun) download(ctx context.Context) (string, error) {
	return stageexec.Run(ctx, r.step(stageAudioProcessing, "download"), func(ctx context.Context) (stageexec.Result[string], error) {
		path, err := r.o.media.Download(ctx, r.req.Source, r.workspace)
		if err != nil {
			return stageexec.Result[string]{}, err
		}
		return stageexec.Noted(path, filepath.Base(path)), nil
	})
}

// screen checks the leading clip of the audio. Irrelevant content is fatal;
// a broken toolchain or an unreachable service only skips the check.
func (r *jobRun) screen(ctx context.Context, input string) error {
	clip := filepath.Join(r.workspace, "screening.mp3")
	seconds := r.o.cfg.Audio.ScreeningSeconds

	extracted, err := stageexec.Run(ctx, r.step(stageAudioProcessing, "extract_screening_clip"), func(ctx context.Context) (stageexec.Result[bool], error) {
		if err := r.o.media.ExtractLeading(ctx, input, clip, seconds, r.bitrate); err != nil {
			if ctx.Err() != nil {
				return stageexec.Result[bool]{}, err
			}
			return stageexec.Noted(false, r.skipScreening(ctx, err)), nil
		}
		return stageexec.Noted(true, fmt.Sprintf("leading %ds", seconds)), nil
	})
	if err != nil || !extracted {
		return err
	}

	_, err = stageexec.Run(ctx, r.step(stageAudioProcessing, "check_relevance"), func(ctx context.Context) (stageexec.Result[intel.Relevance], error) {
		verdict, err := r.o.intel.CheckRelevance(ctx, clip)
		if err == nil {
			if perr := r.persist(ctx, ledger.Processing{Screening: &ledger.ScreeningResult{Relevance: string(verdict)}}); perr != nil {
				return stageexec.Result[intel.Relevance]{}, perr
			}
			return stageexec.Noted(verdict, "relevance: "+string(verdict)), nil
		}
		if errors.Is(err, services.ErrIrrelevantContent) {
			if perr := r.persist(ctx, ledger.Processing{Screening: &ledger.ScreeningResult{Relevance: string(intel.RelevanceIrrelevant)}}); perr != nil {
				r.logger.Warn("screening verdict not persisted", logging.Error(perr))
			}
			return stageexec.Result[intel.Relevance]{}, err
		}
		if ctx.Err() == nil && (errors.Is(err, services.ErrServiceCall) || errors.Is(err, services.ErrTranscription)) {
			return stageexec.Noted(intel.Relevance(""), r.skipScreening(ctx, err)), nil
		}
		return stageexec.Result[intel.Relevance]{}, err
	})
	return err
}

// skipScreening records the degraded screening outcome and returns the note
// stored on the step event.
func (r *jobRun) skipScreening(ctx context.Context, cause error) string {
	note := fmt.Sprintf("screening skipped: %v", cause)
	logging.WarnWithContext(logging.WithContext(ctx, r.base), "content screening skipped", "screening_skipped",
		logging.String(logging.FieldErrorKind, services.Kind(cause)),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "check ffmpeg and the transcription and LLM services"),
		logging.String(logging.FieldImpact, "audio is processed without a relevance check"),
	)
	if err := r.persist(ctx, ledger.Processing{Screening: &ledger.ScreeningResult{Warning: note}}); err != nil {
		r.logger.Warn("screening warning not persisted", logging.Error(err))
	}
	return note
}

// prepareAudio standardizes, cleans and splits the input into upload-sized
// chunks.
func (r *jobRun) prepareAudio(ctx context.Context, input string) ([]string, error) {
	converted := filepath.Join(r.workspace, "converted.mp3")
	if _, err := stageexec.Run(ctx, r.step(stageAudioProcessing, "standardize_audio"), func(ctx context.Context) (stageexec.Result[string], error) {
		if err := r.o.media.Standardize(ctx, input, converted, r.bitrate); err != nil {
			return stageexec.Result[string]{}, err
		}
		return stageexec.Noted(converted, fmt.Sprintf("preset %s (%s)", r.preset, r.bitrate)), nil
	}); err != nil {
		return nil, err
	}

	cleaned := filepath.Join(r.workspace, "cleaned.mp3")
	if _, err := stageexec.Run(ctx, r.step(stageAudioProcessing, "clean_audio"), func(ctx context.Context) (stageexec.Result[string], error) {
		if err := r.o.media.Clean(ctx, converted, cleaned); err != nil {
			return stageexec.Result[string]{}, err
		}
		return stageexec.Done(cleaned), nil
	}); err != nil {
		return nil, err
	}

	chunks, err := stageexec.Run(ctx, r.step(stageAudioProcessing, "chunk_audio"), func(ctx context.Context) (stageexec.Result[[]string], error) {
		files, err := chunk.SplitAudio(ctx, r.o.media, cleaned, filepath.Join(r.workspace, "chunks"), r.o.cfg.MaxChunkBytes())
		if err != nil {
			return stageexec.Result[[]string]{}, err
		}
		return stageexec.Noted(files, fmt.Sprintf("%d chunk(s)", len(files))), nil
	})
	if err != nil {
		return nil, err
	}

	audio := &ledger.AudioResult{
		QualityPreset: r.preset,
		WasChunked:    ledger.Bool(len(chunks) > 1),
		ChunkCount:    ledger.Int(len(chunks)),
	}
	if err := r.persist(ctx, ledger.Processing{Audio: audio}); err != nil {
		return nil, err
	}
	return chunks, nil
}

// processText cleans the transcript and brings it into the canonical
// language. It returns the transcript to summarize.
func (r *jobRun) processText(ctx context.Context, raw string) (string, error) {
	cleaned, err := stageexec.Run(ctx, r.step(stageTextProcessing, "clean_transcript"), func(ctx context.Context) (stageexec.Result[string], error) {
		text := textutil.CleanTranscript(raw)
		return stageexec.Noted(text, fmt.Sprintf("%d -> %d characters", len(raw), len(text))), nil
	})
	if err != nil {
		return "", err
	}
	if err := r.persist(ctx, ledger.Processing{Transcription: &ledger.TranscriptionResult{CleanedTranscript: cleaned}}); err != nil {
		return "", err
	}

	detected, err := stageexec.Run(ctx, r.step(stageTextProcessing, "detect_language"), func(ctx context.Context) (stageexec.Result[string], error) {
		code, err := r.o.intel.DetectLanguage(cleaned)
		if err != nil {
			return stageexec.Result[string]{}, err
		}
		return stageexec.Noted(code, "detected: "+code), nil
	})
	if err != nil {
		return "", err
	}
	if err := r.persist(ctx, ledger.Processing{Language: &ledger.LanguageResult{DetectedLanguage: detected}}); err != nil {
		return "", err
	}

	canonical := r.o.intel.CanonicalLanguage()
	final := cleaned
	translated := !strings.EqualFold(detected, canonical)
	if translated {
		step := "translate_to_" + strings.ToLower(language.DisplayName(canonical))
		final, err = stageexec.Run(ctx, r.step(stageTextProcessing, step), func(ctx context.Context) (stageexec.Result[string], error) {
			text, err := r.o.intel.TranslateToCanonical(ctx, cleaned)
			if err != nil {
				return stageexec.Result[string]{}, err
			}
			return stageexec.Noted(text, fmt.Sprintf("%s -> %s", detected, canonical)), nil
		})
		if err != nil {
			return "", err
		}
	}
	if err := r.persist(ctx, ledger.Processing{Language: &ledger.LanguageResult{
		WasTranslated:   ledger.Bool(translated),
		FinalTranscript: final,
	}}); err != nil {
		return "", err
	}
	return final, nil
}

func (r *jobRun) summarize(ctx context.Context, transcript string) error {
	report, err := stageexec.Run(ctx, r.step(stageSummarization, "generate_summary"), func(ctx context.Context) (stageexec.Result[string], error) {
		summary, err := r.o.intel.Summarize(ctx, transcript)
		if err != nil {
			return stageexec.Result[string]{}, err
		}
		note := fmt.Sprintf("%d part(s)", summary.Parts)
		if summary.Merged {
			note += ", merged"
		}
		if summary.Repaired {
			note += "; repaired"
		}
		if len(summary.Missing) > 0 {
			note += "; missing sections: " + strings.Join(summary.Missing, ", ")
		}
		return stageexec.Noted(summary.Report, note), nil
	})
	if err != nil {
		return err
	}
	return r.persist(ctx, ledger.Processing{Summary: &ledger.SummaryResult{FullReport: report}})
}

// translateReport renders the report in the requested target language. An
// auto or empty target keeps the canonical report only.
func (r *jobRun) translateReport(ctx context.Context) error {
	if r.target == "" {
		return nil
	}
	report := r.result.Summary.FullReport
	text, err := stageexec.Run(ctx, r.step(stageFinalTranslation, "translate_summary_to_"+r.target), func(ctx context.Context) (stageexec.Result[string], error) {
		text, err := r.o.intel.TranslateDocument(ctx, report, r.target)
		if err != nil {
			return stageexec.Result[string]{}, err
		}
		return stageexec.Done(text), nil
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return r.persist(ctx, ledger.Processing{Summary: &ledger.SummaryResult{
		TranslatedReport: &ledger.TranslatedReport{Language: r.target, Text: text},
	}})
}

// cleanup removes the workspace and, when requested, the uploaded source.
// Failures are logged only.
func (r *jobRun) cleanup() {
	if err := os.RemoveAll(r.workspace); err != nil {
		logging.WarnWithContext(r.logger, "workspace cleanup failed", "workspace_cleanup_failed",
			logging.String("path", r.workspace),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the directory manually"),
			logging.String(logging.FieldImpact, "disk space is not reclaimed"),
		)
	}
}

func removeSource(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "source cleanup failed", "source_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the uploaded file manually"),
			logging.String(logging.FieldImpact, "disk space is not reclaimed"),
		)
	}
}
