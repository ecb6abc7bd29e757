package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"talknote/internal/api"
	"talknote/internal/logs"
	"talknote/internal/logstream"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var jobID string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon or job logs",
		Long: `Display log output from the running daemon.

When the daemon API cannot be reached, the daemon log file (or, with --job,
the job's own log file) is read from the log directory instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := logs.NewStreamClient(cfg.API.Bind, cfg.API.Token)
			if err != nil {
				return fmt.Errorf("log API address: %w", err)
			}

			fallback := logs.DaemonLogPath(cfg.Paths.LogDir)
			if strings.TrimSpace(jobID) != "" {
				fallback, err = logs.FindJobLog(cfg.Paths.LogDir, jobID)
				if err != nil && !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}

			out := cmd.OutOrStdout()
			printed, err := logstream.Stream(cmd.Context(), client, fallback,
				logstream.Options{Lines: lines, Follow: follow, JobID: jobID},
				func(evt api.LogEvent) { fmt.Fprintln(out, formatLogEvent(evt)) },
				func(line string) { fmt.Fprintln(out, line) },
			)
			if err != nil {
				if logs.IsAPIUnavailable(err) {
					return fmt.Errorf("daemon not reachable at %s and no log file for job %s", cfg.API.Bind, jobID)
				}
				return err
			}
			if !printed && !follow {
				fmt.Fprintln(out, "No log entries available")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	cmd.Flags().StringVar(&jobID, "job", "", "Only show logs for this job")
	return cmd
}

func formatLogEvent(evt api.LogEvent) string {
	ts := evt.Timestamp
	if parsed, err := time.Parse(time.RFC3339Nano, evt.Timestamp); err == nil {
		ts = parsed.Local().Format("2006-01-02 15:04:05")
	}
	level := strings.ToUpper(strings.TrimSpace(evt.Level))
	if level == "" {
		level = "INFO"
	}
	parts := []string{ts, level}
	if component := strings.TrimSpace(evt.Component); component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	line := strings.Join(parts, " ")
	if subject := composeSubject(evt.JobID, evt.Stage); subject != "" {
		line += " " + subject
	}
	if message := strings.TrimSpace(evt.Message); message != "" {
		line += " - " + message
	}
	if len(evt.Fields) == 0 {
		return line
	}
	keys := make([]string, 0, len(evt.Fields))
	for key := range evt.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var builder strings.Builder
	builder.WriteString(line)
	for _, key := range keys {
		value := strings.TrimSpace(evt.Fields[key])
		if value == "" {
			continue
		}
		builder.WriteString("\n    - ")
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(value)
	}
	return builder.String()
}

func composeSubject(jobID, stage string) string {
	stage = strings.TrimSpace(stage)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	switch {
	case jobID != "" && stage != "":
		return fmt.Sprintf("Job %s (%s)", jobID, stage)
	case jobID != "":
		return "Job " + jobID
	default:
		return stage
	}
}
