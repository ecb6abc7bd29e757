package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"talknote/internal/api"
	"talknote/internal/config"
	"talknote/internal/ledger"
)

const (
	jobsSheet   = "Jobs"
	eventsSheet = "Events"
)

func newJobsExportCommand(ctx *commandContext) *cobra.Command {
	var owner, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an owner's visible jobs and their step logs to a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(outPath)
			if target == "" {
				return fmt.Errorf("--out is required")
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			return ctx.withStore(func(_ *config.Config, store *ledger.Store) error {
				count, err := exportJobs(cmd.Context(), store, owner, expanded)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d job(s) to %s\n", count, expanded)
				return nil
			})
		},
	}
	addOwnerFlag(cmd, &owner)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination .xlsx file")
	return cmd
}

// exportJobs writes a Jobs sheet with one row per job and an Events sheet
// with one row per step.
func exportJobs(ctx context.Context, store *ledger.Store, owner, path string) (int, error) {
	jobs, err := store.ListVisible(ctx, owner)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", jobsSheet); err != nil {
		return 0, fmt.Errorf("name jobs sheet: %w", err)
	}
	if _, err := f.NewSheet(eventsSheet); err != nil {
		return 0, fmt.Errorf("create events sheet: %w", err)
	}

	jobHeader := []any{"ID", "Name", "Source", "Status", "Created", "Updated", "Quality", "Chunks", "Language", "Translated", "Error", "Summary"}
	if err := f.SetSheetRow(jobsSheet, "A1", &jobHeader); err != nil {
		return 0, fmt.Errorf("write jobs header: %w", err)
	}
	eventHeader := []any{"Job ID", "Stage", "Step", "Outcome", "Start", "End", "Duration (s)", "Note"}
	if err := f.SetSheetRow(eventsSheet, "A1", &eventHeader); err != nil {
		return 0, fmt.Errorf("write events header: %w", err)
	}

	eventRow := 2
	for i, job := range jobs {
		events, err := store.Events(ctx, job.ID)
		if err != nil {
			return 0, err
		}
		job.Events = events
		view := api.FromJob(job)

		row := jobRow(view)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := f.SetSheetRow(jobsSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("write job %s: %w", job.ID, err)
		}

		for _, event := range view.Events {
			values := []any{view.ID, event.Stage, event.Step, event.Outcome, event.StartTime, event.EndTime, event.DurationSeconds, event.Message}
			cell, err := excelize.CoordinatesToCellName(1, eventRow)
			if err != nil {
				return 0, err
			}
			if err := f.SetSheetRow(eventsSheet, cell, &values); err != nil {
				return 0, fmt.Errorf("write events for %s: %w", job.ID, err)
			}
			eventRow++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("save %s: %w", path, err)
	}
	return len(jobs), nil
}

func jobRow(job api.Job) []any {
	var quality, chunks, language, translated, failure string
	p := job.Processing
	if p.Audio != nil {
		quality = p.Audio.QualityPreset
		if p.Audio.ChunkCount != nil {
			chunks = fmt.Sprint(*p.Audio.ChunkCount)
		}
	}
	if p.Language != nil {
		language = p.Language.DetectedLanguage
		translated = yesNo(p.Language.WasTranslated)
	}
	if job.Error != nil {
		failure = job.Error.Stage + ": " + job.Error.Message
	}
	return []any{
		job.ID,
		api.SourceName(job.Source.Value),
		job.Source.Value,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
		quality,
		chunks,
		language,
		translated,
		failure,
		reportText(&p),
	}
}
