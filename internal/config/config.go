package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	WorkspaceDir string `toml:"workspace_dir"`
	UploadDir    string `toml:"upload_dir"`
	LogDir       string `toml:"log_dir"`
}

// Audio contains media tool and normalization settings.
type Audio struct {
	FFmpegBinary     string            `toml:"ffmpeg_binary"`
	FFprobeBinary    string            `toml:"ffprobe_binary"`
	YtDlpBinary      string            `toml:"ytdlp_binary"`
	SampleRate       int               `toml:"sample_rate"`
	Channels         int               `toml:"channels"`
	EnhanceFilters   []string          `toml:"enhance_filters"`
	CleaningFilters  []string          `toml:"cleaning_filters"`
	MaxChunkMB       int               `toml:"max_chunk_mb"`
	ScreeningSeconds int               `toml:"screening_seconds"`
	DefaultQuality   string            `toml:"default_quality"`
	Presets          map[string]string `toml:"presets"`
}

// Text contains transcript processing settings.
type Text struct {
	ChunkSize         int    `toml:"chunk_size"`
	LanguageSample    int    `toml:"language_sample"`
	CanonicalLanguage string `toml:"canonical_language"`
}

// LLM contains chat completion settings for classification, translation, and summarization.
type LLM struct {
	APIKey              string `toml:"api_key"`
	BaseURL             string `toml:"base_url"`
	SummaryModel        string `toml:"summary_model"`
	TranslationModel    string `toml:"translation_model"`
	ClassificationModel string `toml:"classification_model"`
	Referer             string `toml:"referer"`
	Title               string `toml:"title"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
}

// Transcription contains speech-to-text API settings.
type Transcription struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
}

// API contains the daemon HTTP API settings.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Inbox configures the watched drop directory.
type Inbox struct {
	Dir        string   `toml:"dir"`
	Owner      string   `toml:"owner"`
	Extensions []string `toml:"extensions"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Workflow contains daemon job settings.
type Workflow struct {
	StaleJobMinutes int `toml:"stale_job_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for talknote.
//
// Configuration sections by subsystem:
//   - Paths: ledger, workspace, upload, and log directories
//   - Audio: ffmpeg/ffprobe/yt-dlp binaries, normalization filters, chunk ceiling
//   - Text: transcript chunk size and language handling
//   - LLM: chat completion models for classification, translation, summaries
//   - Transcription: speech-to-text endpoint and retry budget
//   - API: daemon HTTP bind address and token
//   - Inbox: watched drop directory
//   - Notifications: ntfy push notification settings
//   - Workflow: stale job recovery
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Audio         Audio         `toml:"audio"`
	Text          Text          `toml:"text"`
	LLM           LLM           `toml:"llm"`
	Transcription Transcription `toml:"transcription"`
	API           API           `toml:"api"`
	Inbox         Inbox         `toml:"inbox"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads .env files from the working directory and next to the
// config file. Variables already present in the environment win.
func loadDotEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("talknote.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.WorkspaceDir, c.Paths.UploadDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Inbox.Dir) != "" {
		if err := os.MkdirAll(c.Inbox.Dir, 0o755); err != nil {
			return fmt.Errorf("create inbox directory %q: %w", c.Inbox.Dir, err)
		}
	}
	return nil
}

// Bitrate resolves a quality preset name to an ffmpeg bitrate. Unknown or
// empty names fall back to the default preset.
func (c *Config) Bitrate(preset string) (string, string) {
	name := strings.ToLower(strings.TrimSpace(preset))
	if rate, ok := c.Audio.Presets[name]; ok && name != "" {
		return name, rate
	}
	name = c.Audio.DefaultQuality
	return name, c.Audio.Presets[name]
}

// MaxChunkBytes returns the per-chunk upload ceiling in bytes.
func (c *Config) MaxChunkBytes() int64 {
	return int64(c.Audio.MaxChunkMB) * 1024 * 1024
}

// LedgerPath returns the sqlite database location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.DataDir, "ledger.db")
}

// LockPath returns the daemon lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "talknoted.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
