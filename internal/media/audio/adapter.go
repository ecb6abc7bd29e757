package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"talknote/internal/config"
	"talknote/internal/logging"
	"talknote/internal/media/command"
	"talknote/internal/media/ffmpeg"
	"talknote/internal/media/ffprobe"
	"talknote/internal/media/ytdlp"
	"talknote/internal/services"
)

// Settings configures the adapter.
type Settings struct {
	FFmpegBinary    string
	FFprobeBinary   string
	YtDlpBinary     string
	SampleRate      int
	Channels        int
	EnhanceFilters  []string
	CleaningFilters []string
}

// SettingsFromConfig extracts adapter settings from configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		FFmpegBinary:    cfg.Audio.FFmpegBinary,
		FFprobeBinary:   cfg.Audio.FFprobeBinary,
		YtDlpBinary:     cfg.Audio.YtDlpBinary,
		SampleRate:      cfg.Audio.SampleRate,
		Channels:        cfg.Audio.Channels,
		EnhanceFilters:  slices.Clone(cfg.Audio.EnhanceFilters),
		CleaningFilters: slices.Clone(cfg.Audio.CleaningFilters),
	}
}

// Adapter runs the external media tools.
type Adapter struct {
	settings Settings
	runner   command.Runner
	logger   *slog.Logger
}

// Option customizes the adapter.
type Option func(*Adapter)

// WithRunner overrides process execution.
func WithRunner(runner command.Runner) Option {
	return func(a *Adapter) {
		if runner != nil {
			a.runner = runner
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New constructs an Adapter.
func New(settings Settings, opts ...Option) *Adapter {
	if settings.FFmpegBinary == "" {
		settings.FFmpegBinary = "ffmpeg"
	}
	if settings.FFprobeBinary == "" {
		settings.FFprobeBinary = "ffprobe"
	}
	if settings.YtDlpBinary == "" {
		settings.YtDlpBinary = "yt-dlp"
	}
	a := &Adapter{settings: settings, runner: command.Exec{}}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewComponentLogger(a.logger, "media")
	return a
}

func (a *Adapter) format(bitrate string) ffmpeg.Format {
	return ffmpeg.Format{SampleRate: a.settings.SampleRate, Channels: a.settings.Channels, Bitrate: bitrate}
}

// ProbeDuration returns the duration of path in seconds.
func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, a.runner, a.settings.FFprobeBinary, path)
	if err != nil {
		return 0, toolError("probe duration", err)
	}
	if result.AudioStreamCount() == 0 {
		return 0, services.Wrap(services.ErrToolInvocation, "audio_processing", "probe duration", "no audio stream in "+filepath.Base(path), nil)
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return 0, services.Wrap(services.ErrToolInvocation, "audio_processing", "probe duration", fmt.Sprintf("unusable duration %q", result.Format.Duration), nil)
	}
	return duration, nil
}

// Standardize re-encodes in to mono, fixed sample rate mp3 at bitrate with
// the enhancement filters.
func (a *Adapter) Standardize(ctx context.Context, in, out, bitrate string) error {
	return a.ffmpeg(ctx, "standardize audio", out, ffmpeg.StandardizeArgs(in, out, a.format(bitrate), a.settings.EnhanceFilters))
}

// Clean applies silence removal and noise gating.
func (a *Adapter) Clean(ctx context.Context, in, out string) error {
	return a.ffmpeg(ctx, "clean audio", out, ffmpeg.CleanArgs(in, out, a.settings.CleaningFilters))
}

// ExtractLeading writes the first seconds of in to out.
func (a *Adapter) ExtractLeading(ctx context.Context, in, out string, seconds int, bitrate string) error {
	return a.ffmpeg(ctx, "extract screening clip", out, ffmpeg.ExtractLeadingArgs(in, out, seconds, a.format(bitrate)))
}

// SegmentByTime splits in into segments of interval seconds under outDir and
// returns them in name order.
func (a *Adapter) SegmentByTime(ctx context.Context, in, outDir string, interval float64) ([]string, error) {
	pattern := filepath.Join(outDir, ffmpeg.SegmentPattern)
	if err := a.ffmpeg(ctx, "segment audio", "", ffmpeg.SegmentArgs(in, pattern, interval)); err != nil {
		return nil, err
	}
	files, err := filepath.Glob(filepath.Join(outDir, "part_*.mp3"))
	if err != nil {
		return nil, services.Wrap(services.ErrFileSystem, "audio_processing", "segment audio", "list segments", err)
	}
	slices.Sort(files)
	return files, nil
}

// FetchMetadata returns the remote title, description, and tags. Any
// failure is logged and reported as false so the caller can fall back to
// screening the audio itself.
func (a *Adapter) FetchMetadata(ctx context.Context, url string) (ytdlp.Metadata, bool) {
	out, err := a.runner.Run(ctx, a.settings.YtDlpBinary, ytdlp.MetadataArgs(url)...)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "metadata fetch failed", "metadata_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the URL and the yt-dlp installation"),
			logging.String(logging.FieldImpact, "the audio will be screened after download"),
		)
		return ytdlp.Metadata{}, false
	}
	meta, err := ytdlp.ParseMetadata(out)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, a.logger), "metadata decode failed", "metadata_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the audio will be screened after download"),
		)
		return ytdlp.Metadata{}, false
	}
	if meta.Empty() {
		return meta, false
	}
	return meta, true
}

// Download extracts the audio of url as mp3 into dir and returns its path.
func (a *Adapter) Download(ctx context.Context, url, dir string) (string, error) {
	if _, err := a.runner.Run(ctx, a.settings.YtDlpBinary, ytdlp.DownloadArgs(url, dir, a.settings.FFmpegBinary)...); err != nil {
		return "", toolError("download", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, ytdlp.DownloadPrefix+".*"))
	if err != nil {
		return "", services.Wrap(services.ErrFileSystem, "audio_processing", "download", "list downloaded files", err)
	}
	for _, match := range matches {
		if strings.HasSuffix(match, ".part") {
			continue
		}
		return match, nil
	}
	return "", services.Wrap(services.ErrFileSystem, "audio_processing", "download", "downloaded audio not found in "+dir, nil)
}

func (a *Adapter) ffmpeg(ctx context.Context, op, out string, args []string) error {
	a.logger.Debug("running ffmpeg", logging.String("operation", op), logging.String("args", strings.Join(args, " ")))
	if _, err := a.runner.Run(ctx, a.settings.FFmpegBinary, args...); err != nil {
		return toolError(op, err)
	}
	if out == "" {
		return nil
	}
	if _, err := os.Stat(out); err != nil {
		return services.Wrap(services.ErrToolInvocation, "audio_processing", op, "ffmpeg produced no output file", err)
	}
	return nil
}

func toolError(op string, err error) error {
	message := "tool failed"
	var cmdErr *command.Error
	if errors.As(err, &cmdErr) {
		switch {
		case cmdErr.NotFound:
			message = fmt.Sprintf("%s not found; install it or set its path in [audio]", cmdErr.Name)
		case cmdErr.Stderr != "":
			message = cmdErr.Stderr
		}
	}
	return services.Wrap(services.ErrToolInvocation, "audio_processing", op, message, err)
}
