package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"talknote/internal/config"
	"talknote/internal/daemonrun"
	"talknote/internal/ledger"
	"talknote/internal/logging"
	"talknote/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var owner, quality, target string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run <file-or-url>",
		Short: "Process one recording in the foreground and print its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateCredentials(); err != nil {
				return err
			}

			level := "warn"
			if verbose {
				level = cfg.Logging.Level
			}
			logger, err := logging.New(logging.Options{
				Level:  level,
				Format: "console",
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ctx.withStore(func(cfg *config.Config, store *ledger.Store) error {
				orch := daemonrun.NewOrchestrator(cfg, store, nil, logger)
				req := workflow.Request{
					Source:         args[0],
					Owner:          owner,
					QualityPreset:  quality,
					TargetLanguage: target,
				}
				job, err := orch.Create(runCtx, req)
				if err != nil {
					return err
				}
				req.JobID = job.ID
				fmt.Fprintf(cmd.ErrOrStderr(), "Job %s started\n", job.ID)

				result, runErr := orch.Run(runCtx, req)
				if runErr != nil {
					return fmt.Errorf("job %s failed: %w", job.ID, runErr)
				}
				printRunSummary(cmd, job.ID, result)
				return nil
			})
		},
	}

	addOwnerFlag(cmd, &owner)
	cmd.Flags().StringVar(&quality, "quality", "", "Audio quality preset (low, medium, high)")
	cmd.Flags().StringVar(&target, "language", "", "Translate the final summary into this language")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")
	return cmd
}

func printRunSummary(cmd *cobra.Command, jobID string, result *ledger.Processing) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	lines := renderSectionHeader("Job "+jobID, colorize)
	lines = append(lines, processingLines(result, colorize)...)
	fmt.Fprintln(out, strings.Join(lines, "\n"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, reportText(result))
}

func processingLines(result *ledger.Processing, colorize bool) []string {
	if result == nil {
		return nil
	}
	var lines []string
	if a := result.Audio; a != nil {
		chunks := "-"
		if a.ChunkCount != nil {
			chunks = strconv.Itoa(*a.ChunkCount)
		}
		lines = append(lines, renderStatusLine("Audio", statusInfo,
			fmt.Sprintf("preset %s, %s chunk(s)", a.QualityPreset, chunks), colorize))
	}
	if l := result.Language; l != nil {
		lines = append(lines, renderStatusLine("Language", statusInfo,
			fmt.Sprintf("%s (translated: %s)", l.DetectedLanguage, yesNo(l.WasTranslated)), colorize))
	}
	if s := result.Screening; s != nil && s.Warning != "" {
		lines = append(lines, renderStatusLine("Screening", statusWarn, s.Warning, colorize))
	}
	return lines
}

// reportText prefers the translated summary when one was requested.
func reportText(result *ledger.Processing) string {
	if result == nil || result.Summary == nil {
		return ""
	}
	if tr := result.Summary.TranslatedReport; tr != nil && strings.TrimSpace(tr.Text) != "" {
		return tr.Text
	}
	return result.Summary.FullReport
}

