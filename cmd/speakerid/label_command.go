package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"speakerid/internal/pipeline"
)

func newLabelCommand(ctx *commandContext) *cobra.Command {
	var clearLabel bool

	cmd := &cobra.Command{
		Use:   "label <transcript.json> <segment-id> [speaker]",
		Short: "Set or clear the speaker of one segment",
		Long: `Seed a speaker label on a segment so the assign and channels commands
can use it as a reference.

Examples:
  speakerid label interview.json 3 Doctor
  speakerid label --clear interview.json 3`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return fmt.Errorf("resolve transcript path: %w", err)
			}
			segmentID, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("invalid segment id %q", args[1])
			}
			speaker := ""
			if len(args) == 3 {
				speaker = strings.TrimSpace(args[2])
			}
			switch {
			case clearLabel && speaker != "":
				return fmt.Errorf("--clear cannot be combined with a speaker name")
			case !clearLabel && speaker == "":
				return fmt.Errorf("speaker name is required (use --clear to remove a label)")
			}

			return ctx.withEngine(cmd, 0, func(runCtx context.Context, engine *pipeline.Engine) error {
				if err := engine.Label(runCtx, path, segmentID, speaker); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if speaker == "" {
					fmt.Fprintf(out, "Cleared speaker of segment %d\n", segmentID)
				} else {
					fmt.Fprintf(out, "Segment %d labeled %s\n", segmentID, speaker)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearLabel, "clear", false, "Remove the segment's speaker label")
	return cmd
}
