package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"talknote/internal/deps"
	"talknote/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var online bool
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools, directories, and service settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "missing"
				switch {
				case status.Available:
					state = "ok"
				case status.Optional:
					state = "optional, missing"
				}
				rows = append(rows, []string{status.Name, status.Command, state, status.Description})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Command", "State", "Purpose"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			results := preflight.RunAll(cmd.Context(), cfg)
			if online {
				results = append(results, preflight.CheckLLM(cmd.Context(), "LLM API", cfg.LLM))
			}
			lines := renderSectionHeader("Preflight", colorize)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			missing := deps.Missing(statuses)
			failed := preflight.Failed(results)
			if len(missing) > 0 || len(failed) > 0 {
				return fmt.Errorf("%d required dependency(ies) missing, %d check(s) failed", len(missing), len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "Also probe the LLM API with a test request")
	return cmd
}
