package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"speakerid/internal/deps"
	"speakerid/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether directories and external tools are ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			out := cmd.OutOrStdout()

			results := preflight.RunAll(cfg)
			statuses := preflight.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(results)+len(statuses))
			for _, r := range results {
				rows = append(rows, []string{r.Name, passLabel(r.Passed, false), r.Detail})
			}
			for _, s := range statuses {
				detail := s.Detail
				if s.Description != "" {
					detail = s.Description + " (" + detail + ")"
				}
				rows = append(rows, []string{s.Name, passLabel(s.Available, s.Optional), detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Status", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
				tableOptions{colorize: shouldColorize(out), wrapColumn: 3},
			))

			failed := len(preflight.Failed(results)) + len(deps.Missing(statuses))
			if failed > 0 {
				return fmt.Errorf("%d readiness checks failed", failed)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func passLabel(passed, optional bool) string {
	switch {
	case passed:
		return "ok"
	case optional:
		return "missing (optional)"
	default:
		return "FAILED"
	}
}
