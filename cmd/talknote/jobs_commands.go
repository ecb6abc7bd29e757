package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"talknote/internal/api"
	"talknote/internal/config"
	"talknote/internal/ledger"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage recorded jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsHideCommand(ctx))
	jobsCmd.AddCommand(newJobsHideAllCommand(ctx))
	jobsCmd.AddCommand(newJobsExportCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible jobs for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *ledger.Store) error {
				jobs, err := store.ListVisible(cmd.Context(), owner)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(jobs) == 0 {
					fmt.Fprintf(out, "No jobs for %s\n", owner)
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, entry := range api.FromJobsHistory(jobs) {
					rows = append(rows, []string{entry.ID, entry.Name, entry.Date, entry.Status, entry.Preview})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Name", "Created", "Status", "Preview"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	addOwnerFlag(cmd, &owner)
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a job with its step log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *ledger.Store) error {
				job, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				view := api.FromJob(job)
				switch strings.ToLower(strings.TrimSpace(format)) {
				case "json":
					return writeJSON(cmd, view)
				case "yaml", "yml":
					return writeYAML(cmd, view)
				case "", "table":
					renderJob(cmd, view)
					return nil
				default:
					return fmt.Errorf("unsupported format %q (use table, json, or yaml)", format)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json, or yaml")
	return cmd
}

func renderJob(cmd *cobra.Command, job api.Job) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	lines := renderSectionHeader("Job "+job.ID, colorize)
	lines = append(lines,
		renderStatusLine("Status", jobStatusKind(job.Status), job.Status, colorize),
		renderStatusLine("Owner", statusInfo, job.Owner, colorize),
		renderStatusLine("Source", statusInfo, fmt.Sprintf("%s (%s)", job.Source.Value, job.Source.Kind), colorize),
		renderStatusLine("Created", statusInfo, job.CreatedAt, colorize),
	)
	if job.Error != nil {
		lines = append(lines, renderStatusLine("Error", statusError,
			fmt.Sprintf("%s: %s", job.Error.Stage, job.Error.Message), colorize))
	}
	lines = append(lines, processingLines(&job.Processing, colorize)...)
	fmt.Fprintln(out, strings.Join(lines, "\n"))

	if len(job.Events) > 0 {
		rows := make([][]string, 0, len(job.Events))
		for _, event := range job.Events {
			rows = append(rows, []string{
				event.Stage,
				event.Step,
				event.Outcome,
				fmt.Sprintf("%.2fs", event.DurationSeconds),
				event.Message,
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Stage", "Step", "Outcome", "Duration", "Note"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	if report := reportText(&job.Processing); report != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, report)
	}
}

func newJobsHideCommand(ctx *commandContext) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "hide <job-id>",
		Short: "Hide one job from the owner's listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *ledger.Store) error {
				hidden, err := store.Hide(cmd.Context(), args[0], owner)
				if err != nil {
					return err
				}
				if !hidden {
					return fmt.Errorf("job %s not found for owner %s", args[0], owner)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Hid job %s\n", args[0])
				return nil
			})
		},
	}
	addOwnerFlag(cmd, &owner)
	return cmd
}

func newJobsHideAllCommand(ctx *commandContext) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "hide-all",
		Short: "Hide every job of an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *ledger.Store) error {
				count, err := store.HideAll(cmd.Context(), owner)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Hid %d job(s) for %s\n", count, owner)
				return nil
			})
		},
	}
	addOwnerFlag(cmd, &owner)
	return cmd
}
