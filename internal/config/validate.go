package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateText(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if c.Audio.Channels <= 0 {
		return errors.New("audio.channels must be positive")
	}
	if c.Audio.MaxChunkMB <= 0 {
		return errors.New("audio.max_chunk_mb must be positive")
	}
	if c.Audio.ScreeningSeconds <= 0 {
		return errors.New("audio.screening_seconds must be positive")
	}
	if _, ok := c.Audio.Presets[c.Audio.DefaultQuality]; !ok {
		names := make([]string, 0, len(c.Audio.Presets))
		for name := range c.Audio.Presets {
			names = append(names, name)
		}
		return fmt.Errorf("audio.default_quality %q is not one of the configured presets (%s)", c.Audio.DefaultQuality, strings.Join(names, ", "))
	}
	return nil
}

func (c *Config) validateText() error {
	if c.Text.ChunkSize <= 0 {
		return errors.New("text.chunk_size must be positive")
	}
	if len(c.Text.CanonicalLanguage) != 2 {
		return fmt.Errorf("text.canonical_language must be an ISO 639-1 code, got %q", c.Text.CanonicalLanguage)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.StaleJobMinutes < 0 {
		return errors.New("workflow.stale_job_minutes must be zero or positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be zero or positive")
	}
	return nil
}

// ValidateCredentials reports whether the AI credentials required to run a
// job are present. Commands that only read the ledger skip this check.
func (c *Config) ValidateCredentials() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("llm.api_key is required. Set OPENAI_API_KEY (environment or .env) or edit %s (create with 'talknote config init')", defaultPath)
	}
	if c.Transcription.APIKey == "" {
		return errors.New("transcription.api_key is required")
	}
	return nil
}
