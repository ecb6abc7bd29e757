// Package daemonrun assembles and runs the talknoted process.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"talknote/internal/config"
	"talknote/internal/daemon"
	"talknote/internal/intel"
	"talknote/internal/ledger"
	"talknote/internal/logging"
	"talknote/internal/media/audio"
	"talknote/internal/preflight"
	"talknote/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// NewOrchestrator wires the production pipeline: the ffmpeg/yt-dlp media
// adapter, the HTTP-backed intelligence service, and per-job log files.
func NewOrchestrator(cfg *config.Config, store *ledger.Store, hub *logging.StreamHub, logger *slog.Logger) *workflow.Orchestrator {
	media := audio.New(audio.SettingsFromConfig(cfg), audio.WithLogger(logger))
	service := intel.NewFromConfig(cfg, logger)
	return workflow.NewOrchestrator(cfg, store, media, service, logger,
		workflow.WithJobLogs(workflow.NewJobLogger(cfg, hub)))
}

// Run starts the talknote daemon and blocks until SIGINT/SIGTERM or
// cmdCtx ends, then drains running jobs.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("talknoted-%s.log", runID))
	hub := logging.NewStreamHub(4096)

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
		Stream:           hub,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	logPreflight(signalCtx, logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update talknoted.log link: %v\n", err)
	}
	pidPath := filepath.Join(cfg.Paths.DataDir, "talknoted.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := ledger.Open(cfg)
	if err != nil {
		logger.Error("open ledger", logging.Error(err))
		return err
	}
	defer store.Close()

	manager := workflow.NewManager(NewOrchestrator(cfg, store, hub, logger), store, logger)
	d, err := daemon.New(cfg, store, manager, hub, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check that no other talknoted is running and api.bind is free"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("talknote daemon shutting down", logging.Int("active_jobs", d.Status().ActiveJobs))
	d.Stop()
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "jobs depending on this may fail"),
		)
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "talknoted.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.Bool("transcription_key_present", strings.TrimSpace(cfg.Transcription.APIKey) != ""),
		logging.Bool("ffmpeg_available", binaryAvailable(cfg.Audio.FFmpegBinary)),
		logging.String("ffmpeg_binary", cfg.Audio.FFmpegBinary),
		logging.Bool("ffprobe_available", binaryAvailable(cfg.Audio.FFprobeBinary)),
		logging.String("ffprobe_binary", cfg.Audio.FFprobeBinary),
		logging.Bool("ytdlp_available", binaryAvailable(cfg.Audio.YtDlpBinary)),
		logging.String("ytdlp_binary", cfg.Audio.YtDlpBinary),
		logging.Bool("notifications_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
