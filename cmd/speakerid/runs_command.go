package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"speakerid/internal/history"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var transcriptArg string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent assign and channels runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			var runs []history.Run
			if transcriptArg != "" {
				path, err := resolvePath(transcriptArg)
				if err != nil {
					return fmt.Errorf("resolve transcript path: %w", err)
				}
				runs, err = store.ForTranscript(runCtx, path)
				if err != nil {
					return err
				}
			} else {
				runs, err = store.List(runCtx, limit)
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					shortID(run.ID),
					string(run.Mode),
					string(run.Status),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					formatRunDuration(run),
					strconv.Itoa(run.Counts.Assigned),
					strconv.Itoa(run.Counts.Unresolved),
					filepath.Base(run.TranscriptPath),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Mode", "Status", "Started", "Duration", "Assigned", "Unresolved", "Transcript"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				tableOptions{colorize: shouldColorize(out)},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&transcriptArg, "transcript", "", "Only show runs for this transcript")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output runs as JSON")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRunDuration(run history.Run) string {
	if run.FinishedAt.IsZero() {
		return "-"
	}
	return run.Duration().Round(time.Millisecond).String()
}
