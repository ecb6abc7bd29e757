package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"talknote/internal/api"
	"talknote/internal/config"
	"talknote/internal/ledger"
	"talknote/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current status of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *ledger.Store) error {
				view, err := workflow.LoadStatus(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.FromStatusView(view))
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				lines := []string{renderStatusLine("Status", jobStatusKind(string(view.Status)), string(view.Status), colorize)}
				if view.Error != "" {
					lines = append(lines, renderStatusLine("Error", statusError, view.Error, colorize))
				}
				lines = append(lines, processingLines(view.Result, colorize)...)
				fmt.Fprintln(out, strings.Join(lines, "\n"))
				if report := reportText(view.Result); report != "" {
					fmt.Fprintln(out)
					fmt.Fprintln(out, report)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print {status, result, error} as JSON")
	return cmd
}
