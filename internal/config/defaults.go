package config

const (
	defaultConfigPath         = "~/.config/talknote/config.toml"
	defaultDataDir            = "~/.local/share/talknote"
	defaultWorkspaceDir       = "~/.local/share/talknote/work"
	defaultUploadDir          = "~/.local/share/talknote/uploads"
	defaultLogDir             = "~/.local/share/talknote/logs"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultYtDlpBinary        = "yt-dlp"
	defaultSampleRate         = 16000
	defaultChannels           = 1
	defaultMaxChunkMB         = 25
	defaultScreeningSeconds   = 120
	defaultQuality            = "medium"
	defaultTextChunkSize      = 50000
	defaultLanguageSample     = 500
	defaultCanonicalLanguage  = "en"
	defaultLLMBaseURL         = "https://api.openai.com/v1/chat/completions"
	defaultSummaryModel       = "gpt-5"
	defaultTranslationModel   = "gpt-5-mini"
	defaultClassifyModel      = "gpt-5-nano"
	defaultLLMReferer         = "https://github.com/talknote/talknote"
	defaultLLMTitle           = "talknote"
	defaultLLMTimeoutSeconds  = 180
	defaultTranscribeBaseURL  = "https://api.openai.com/v1/audio/transcriptions"
	defaultTranscribeModel    = "whisper-1"
	defaultTranscribeTimeout  = 600
	defaultTranscribeAttempts = 4
	defaultAPIBind            = "127.0.0.1:7490"
	defaultNotifyTimeout      = 10
	defaultStaleJobMinutes    = 0
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

func defaultPresets() map[string]string {
	return map[string]string{
		"low":    "64k",
		"medium": "128k",
		"high":   "192k",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			WorkspaceDir: defaultWorkspaceDir,
			UploadDir:    defaultUploadDir,
			LogDir:       defaultLogDir,
		},
		Audio: Audio{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			YtDlpBinary:   defaultYtDlpBinary,
			SampleRate:    defaultSampleRate,
			Channels:      defaultChannels,
			EnhanceFilters: []string{
				"loudnorm",
				"highpass=f=200",
				"lowpass=f=3000",
			},
			CleaningFilters: []string{
				"silenceremove=stop_periods=-1:stop_duration=2.0:stop_threshold=-30dB",
				"agate=threshold=0.08:ratio=4:attack=20:release=250",
			},
			MaxChunkMB:       defaultMaxChunkMB,
			ScreeningSeconds: defaultScreeningSeconds,
			DefaultQuality:   defaultQuality,
			Presets:          defaultPresets(),
		},
		Text: Text{
			ChunkSize:         defaultTextChunkSize,
			LanguageSample:    defaultLanguageSample,
			CanonicalLanguage: defaultCanonicalLanguage,
		},
		LLM: LLM{
			BaseURL:             defaultLLMBaseURL,
			SummaryModel:        defaultSummaryModel,
			TranslationModel:    defaultTranslationModel,
			ClassificationModel: defaultClassifyModel,
			Referer:             defaultLLMReferer,
			Title:               defaultLLMTitle,
			TimeoutSeconds:      defaultLLMTimeoutSeconds,
		},
		Transcription: Transcription{
			BaseURL:        defaultTranscribeBaseURL,
			Model:          defaultTranscribeModel,
			TimeoutSeconds: defaultTranscribeTimeout,
			MaxAttempts:    defaultTranscribeAttempts,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Inbox: Inbox{
			Extensions: []string{".mp3", ".wav", ".m4a", ".mp4", ".ogg", ".flac", ".webm"},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Workflow: Workflow{
			StaleJobMinutes: defaultStaleJobMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
