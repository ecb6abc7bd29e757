package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeText()
	c.normalizeLLM()
	c.normalizeTranscription()
	c.normalizeAPI()
	if err := c.normalizeInbox(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.data_dir", &c.Paths.DataDir, defaultDataDir},
		{"paths.workspace_dir", &c.Paths.WorkspaceDir, defaultWorkspaceDir},
		{"paths.upload_dir", &c.Paths.UploadDir, defaultUploadDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.FFmpegBinary = stringOr(c.Audio.FFmpegBinary, defaultFFmpegBinary)
	c.Audio.FFprobeBinary = stringOr(c.Audio.FFprobeBinary, defaultFFprobeBinary)
	c.Audio.YtDlpBinary = stringOr(c.Audio.YtDlpBinary, defaultYtDlpBinary)
	c.Audio.EnhanceFilters = trimList(c.Audio.EnhanceFilters)
	c.Audio.CleaningFilters = trimList(c.Audio.CleaningFilters)

	presets := make(map[string]string, len(c.Audio.Presets))
	for name, rate := range c.Audio.Presets {
		name = strings.ToLower(strings.TrimSpace(name))
		rate = strings.TrimSpace(rate)
		if name == "" || rate == "" {
			continue
		}
		presets[name] = rate
	}
	if len(presets) == 0 {
		presets = defaultPresets()
	}
	c.Audio.Presets = presets
	c.Audio.DefaultQuality = strings.ToLower(stringOr(c.Audio.DefaultQuality, defaultQuality))
}

func (c *Config) normalizeText() {
	c.Text.CanonicalLanguage = strings.ToLower(stringOr(c.Text.CanonicalLanguage, defaultCanonicalLanguage))
	if c.Text.LanguageSample <= 0 {
		c.Text.LanguageSample = defaultLanguageSample
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = stringOr(c.LLM.BaseURL, defaultLLMBaseURL)
	c.LLM.SummaryModel = stringOr(c.LLM.SummaryModel, defaultSummaryModel)
	c.LLM.TranslationModel = stringOr(c.LLM.TranslationModel, defaultTranslationModel)
	c.LLM.ClassificationModel = stringOr(c.LLM.ClassificationModel, defaultClassifyModel)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.BaseURL = stringOr(c.Transcription.BaseURL, defaultTranscribeBaseURL)
	c.Transcription.Model = stringOr(c.Transcription.Model, defaultTranscribeModel)
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscribeTimeout
	}
	if c.Transcription.MaxAttempts <= 0 {
		c.Transcription.MaxAttempts = defaultTranscribeAttempts
	}
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if c.Transcription.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Transcription.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Transcription.APIKey == "" {
		c.Transcription.APIKey = c.LLM.APIKey
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("TALKNOTE_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeInbox() error {
	c.Inbox.Dir = strings.TrimSpace(c.Inbox.Dir)
	if c.Inbox.Dir != "" {
		expanded, err := expandPath(c.Inbox.Dir)
		if err != nil {
			return fmt.Errorf("inbox.dir: %w", err)
		}
		c.Inbox.Dir = expanded
	}
	c.Inbox.Owner = stringOr(c.Inbox.Owner, "inbox")
	exts := make([]string, 0, len(c.Inbox.Extensions))
	for _, ext := range trimList(c.Inbox.Extensions) {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Inbox.Extensions = exts
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func stringOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
