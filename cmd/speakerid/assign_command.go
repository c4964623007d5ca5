package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"speakerid/internal/assign"
	"speakerid/internal/config"
	"speakerid/internal/history"
	"speakerid/internal/pipeline"
	"speakerid/internal/services"
)

func newAssignCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var workers int
	var jsonOut bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "assign <transcript.json> <audio.wav>",
		Short: "Label unlabeled segments by voice similarity to seed labels",
		Long: `Build a reference voice for every speaker that labels at least one
segment, then compare each unlabeled segment against every reference and
assign the best match when it clears the verification threshold.

The transcript is rewritten in place only after every segment was considered.

Examples:
  speakerid assign interview.json interview.wav
  speakerid assign --threshold 0.35 --workers 4 interview.json interview.wav`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Assignment.VerificationThreshold = threshold
			}
			if cmd.Flags().Changed("workers") {
				if workers < 1 {
					return fmt.Errorf("--workers must be at least 1")
				}
				cfg.Assignment.Workers = workers
			}
			transcriptPath, audioPath, err := resolveInputs(args[0], args[1])
			if err != nil {
				return err
			}

			return ctx.withEngine(cmd, needVerifier, func(runCtx context.Context, engine *pipeline.Engine) error {
				result, err := engine.AssignSpeakers(runCtx, transcriptPath, audioPath)
				if errors.Is(err, services.ErrNoReferenceSpeakers) {
					return reportIdle(cmd, result.RunID, jsonOut)
				}
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, result)
				}
				renderAssignResult(cmd, result, verbose)
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", assign.DefaultThreshold, "Score a best match must exceed to be assigned")
	cmd.Flags().IntVar(&workers, "workers", 1, "Segments scored concurrently")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the assignment report as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every segment decision")
	return cmd
}

func renderAssignResult(cmd *cobra.Command, result pipeline.AssignResult, verbose bool) {
	out := cmd.OutOrStdout()
	report := result.Report
	fmt.Fprintf(out, "Run %s\n", result.RunID)
	fmt.Fprintf(out, "Reference speakers: %s\n", strings.Join(result.Speakers, ", "))
	fmt.Fprintf(out, "Assigned: %d  Unresolved: %d  Skipped: %d  Already labeled: %d\n",
		report.Assigned, report.Unresolved, report.Skipped, report.AlreadyLabeled)
	if report.ScoringFailures > 0 {
		fmt.Fprintf(out, "Scoring failures: %d of %d comparisons\n", report.ScoringFailures, report.Comparisons)
	}
	if !verbose || len(report.Decisions) == 0 {
		return
	}

	rows := make([][]string, 0, len(report.Decisions))
	for _, d := range report.Decisions {
		best := "-"
		if len(d.Scores) > 0 {
			best = strconv.FormatFloat(d.Best, 'f', 3, 64)
		}
		speaker := d.Speaker
		if speaker == "" {
			speaker = "-"
		}
		rows = append(rows, []string{strconv.Itoa(d.SegmentID), string(d.Outcome), speaker, best, d.Reason})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Segment", "Outcome", "Speaker", "Best", "Reason"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
		tableOptions{colorize: shouldColorize(out), wrapColumn: 5},
	))
}

// resolveInputs expands user paths for a transcript and its audio.
func resolveInputs(transcriptArg, audioArg string) (string, string, error) {
	transcriptPath, err := resolvePath(transcriptArg)
	if err != nil {
		return "", "", fmt.Errorf("resolve transcript path: %w", err)
	}
	audioPath, err := resolvePath(audioArg)
	if err != nil {
		return "", "", fmt.Errorf("resolve audio path: %w", err)
	}
	return transcriptPath, audioPath, nil
}

// resolvePath expands ~ and makes the path absolute so lock files and run
// history refer to one file regardless of the working directory.
func resolvePath(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("path is required")
	}
	return config.ExpandPath(arg)
}

type idleReport struct {
	RunID   string         `json:"run_id,omitempty"`
	Status  history.Status `json:"status"`
	Message string         `json:"message"`
}

// reportIdle prints the nothing-to-do outcome of a run whose transcript has
// no labeled speakers.
func reportIdle(cmd *cobra.Command, runID string, jsonOut bool) error {
	const message = "no reference speakers, label segments first"
	if jsonOut {
		return writeJSON(cmd, idleReport{RunID: runID, Status: history.StatusIdle, Message: message})
	}
	if runID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s\n", runID)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Nothing to do: %s\n", message)
	return nil
}
