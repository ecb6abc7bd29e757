package intel

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"talknote/internal/chunk"
	"talknote/internal/config"
	"talknote/internal/language"
	"talknote/internal/logging"
	"talknote/internal/media/ytdlp"
	"talknote/internal/services"
	"talknote/internal/services/llm"
	"talknote/internal/services/transcribe"
)

const maxDescriptionChars = 1500

// Completer issues chat completions.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Transcriber converts one audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Decision is the metadata screening verdict for a remote source.
type Decision string

const (
	DecisionProceed   Decision = "proceed"
	DecisionReject    Decision = "reject"
	DecisionUncertain Decision = "uncertain"
)

// Relevance is the verdict on a screening clip transcript.
type Relevance string

const (
	RelevanceRelevant   Relevance = "relevant"
	RelevanceIrrelevant Relevance = "irrelevant"
)

// Settings selects models and text limits for the service.
type Settings struct {
	SummaryModel        string
	TranslationModel    string
	ClassificationModel string
	ChunkSize           int
	LanguageSample      int
	CanonicalLanguage   string
}

// SettingsFromConfig maps configuration onto service settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{}
	}
	return Settings{
		SummaryModel:        cfg.LLM.SummaryModel,
		TranslationModel:    cfg.LLM.TranslationModel,
		ClassificationModel: cfg.LLM.ClassificationModel,
		ChunkSize:           cfg.Text.ChunkSize,
		LanguageSample:      cfg.Text.LanguageSample,
		CanonicalLanguage:   cfg.Text.CanonicalLanguage,
	}
}

// Service implements the AI-backed pipeline steps.
type Service struct {
	llm      Completer
	stt      Transcriber
	settings Settings
	logger   *slog.Logger
}

// New constructs a service over the given clients.
func New(completer Completer, transcriber Transcriber, settings Settings, logger *slog.Logger) *Service {
	if settings.ChunkSize <= 0 {
		settings.ChunkSize = 50000
	}
	if settings.LanguageSample <= 0 {
		settings.LanguageSample = 500
	}
	if strings.TrimSpace(settings.CanonicalLanguage) == "" {
		settings.CanonicalLanguage = "en"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		llm:      completer,
		stt:      transcriber,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "intel"),
	}
}

// NewFromConfig wires the HTTP clients described by cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) *Service {
	completer := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.SummaryModel,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	transcriber := transcribe.NewClient(transcribe.Config{
		APIKey:         cfg.Transcription.APIKey,
		BaseURL:        cfg.Transcription.BaseURL,
		Model:          cfg.Transcription.Model,
		TimeoutSeconds: cfg.Transcription.TimeoutSeconds,
		MaxAttempts:    cfg.Transcription.MaxAttempts,
	})
	return New(completer, transcriber, SettingsFromConfig(cfg), logger)
}

// CanonicalLanguage returns the ISO 639-1 code transcripts are normalised to.
func (s *Service) CanonicalLanguage() string {
	return s.settings.CanonicalLanguage
}

// Transcribe converts a single audio file to text.
func (s *Service) Transcribe(ctx context.Context, path string) (string, error) {
	text, err := s.stt.Transcribe(ctx, path)
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "transcription", "transcribe", filepath.Base(path), err)
	}
	return strings.TrimSpace(text), nil
}

// TranscribeAll transcribes paths in order and joins the pieces with newlines.
func (s *Service) TranscribeAll(ctx context.Context, paths []string) (string, error) {
	pieces := make([]string, 0, len(paths))
	for i, path := range paths {
		logging.WithContext(ctx, s.logger).Debug("transcribing chunk",
			logging.Int("chunk", i+1),
			logging.Int("chunks", len(paths)),
			logging.String("file", filepath.Base(path)),
			logging.String(logging.FieldEventType, "transcription_chunk"),
		)
		text, err := s.Transcribe(ctx, path)
		if err != nil {
			return "", err
		}
		pieces = append(pieces, text)
	}
	return strings.Join(pieces, "\n"), nil
}

// ClassifyMetadata screens a remote source by title, description, and tags.
// Any failure or unrecognised reply yields DecisionUncertain.
func (s *Service) ClassifyMetadata(ctx context.Context, meta ytdlp.Metadata) Decision {
	title := orNA(meta.Title)
	description := strings.TrimSpace(meta.Description)
	if runes := []rune(description); len(runes) > maxDescriptionChars {
		description = string(runes[:maxDescriptionChars]) + "..."
	}
	tags := "N/A"
	if len(meta.Tags) > 0 {
		tags = strings.Join(meta.Tags, ", ")
	}

	reply, err := s.llm.Complete(ctx, llm.Request{
		Model:  s.settings.ClassificationModel,
		System: MetadataClassificationPrompt,
		User:   fmt.Sprintf(metadataUserTemplate, title, orNA(description), tags),
	})
	logger := logging.WithContext(ctx, s.logger)
	if err != nil {
		logging.WarnWithContext(logger, "metadata classification failed; treating as uncertain", "metadata_classification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check llm.api_key and llm.base_url"),
			logging.String(logging.FieldImpact, "source will be screened after download"),
		)
		return DecisionUncertain
	}
	decision := Decision(firstWord(reply))
	switch decision {
	case DecisionProceed, DecisionReject, DecisionUncertain:
		logger.Info("metadata classified",
			logging.String("decision", string(decision)),
			logging.String(logging.FieldEventType, "metadata_classified"),
		)
		return decision
	default:
		logging.WarnWithContext(logger, "metadata classification reply not recognised; treating as uncertain", "metadata_classification_invalid",
			logging.String("reply", truncate(reply, 80)),
			logging.String(logging.FieldImpact, "source will be screened after download"),
		)
		return DecisionUncertain
	}
}

// ClassifyRelevance classifies a screening transcript. Empty text is
// irrelevant without a model call.
func (s *Service) ClassifyRelevance(ctx context.Context, text string) (Relevance, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return RelevanceIrrelevant, nil
	}
	reply, err := s.llm.Complete(ctx, llm.Request{
		Model:  s.settings.ClassificationModel,
		System: RelevanceClassificationPrompt,
		User:   fmt.Sprintf("Transcript:\n%q", text),
	})
	if err != nil {
		return "", serviceError("audio_processing", "classify relevance", err)
	}
	if strings.Contains(strings.ToLower(reply), string(RelevanceIrrelevant)) {
		return RelevanceIrrelevant, nil
	}
	return RelevanceRelevant, nil
}

// CheckRelevance transcribes a screening clip and classifies it. An empty
// transcript or an irrelevant verdict returns services.ErrIrrelevantContent.
func (s *Service) CheckRelevance(ctx context.Context, clipPath string) (Relevance, error) {
	text, err := s.Transcribe(ctx, clipPath)
	if err != nil {
		return "", err
	}
	if text == "" {
		return RelevanceIrrelevant, services.Wrap(services.ErrIrrelevantContent, "audio_processing", "check relevance",
			"the beginning of the audio contains no discernible speech", nil)
	}
	verdict, err := s.ClassifyRelevance(ctx, text)
	if err != nil {
		return "", err
	}
	if verdict == RelevanceIrrelevant {
		return verdict, services.Wrap(services.ErrIrrelevantContent, "audio_processing", "check relevance",
			"content identified as irrelevant (movie, music, or similar)", nil)
	}
	return verdict, nil
}

// DetectLanguage returns the ISO 639-1 code of the leading text sample.
func (s *Service) DetectLanguage(text string) (string, error) {
	detection, err := language.Detect(text, s.settings.LanguageSample)
	if err != nil {
		return "", err
	}
	return detection.Code, nil
}

// TranslateToCanonical translates text chunk by chunk into the canonical
// language and joins the results with single spaces.
func (s *Service) TranslateToCanonical(ctx context.Context, text string) (string, error) {
	system := fmt.Sprintf(canonicalTranslationTemplate, language.DisplayName(s.settings.CanonicalLanguage))
	var translated []string
	for piece := range chunk.Text(text, s.settings.ChunkSize) {
		reply, err := s.llm.Complete(ctx, llm.Request{
			Model:  s.settings.TranslationModel,
			System: system,
			User:   piece,
		})
		if err != nil {
			return "", serviceError("text_processing", fmt.Sprintf("translate chunk %d", len(translated)+1), err)
		}
		translated = append(translated, strings.TrimSpace(reply))
	}
	return strings.Join(translated, " "), nil
}

// TranslateDocument translates a finished report into the named language.
func (s *Service) TranslateDocument(ctx context.Context, text, targetLanguage string) (string, error) {
	reply, err := s.llm.Complete(ctx, llm.Request{
		Model:  s.settings.TranslationModel,
		System: fmt.Sprintf(documentTranslationTemplate, targetLanguage),
		User:   text,
	})
	if err != nil {
		return "", serviceError("final_translation", "translate summary", err)
	}
	return strings.TrimSpace(reply), nil
}

func serviceError(stage, op string, err error) error {
	message := "chat completion failed"
	if llm.IsQuotaError(err) {
		message = "quota or rate limit exceeded"
	}
	return services.Wrap(services.ErrServiceCall, stage, op, message, err)
}

func firstWord(reply string) string {
	fields := strings.FieldsFunc(strings.ToLower(reply), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "N/A"
	}
	return strings.TrimSpace(value)
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
