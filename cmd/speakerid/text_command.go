package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"speakerid/internal/pipeline"
)

func newTextCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text <transcript.json> <segment-id> <text>",
		Short: "Replace the transcribed text of one segment",
		Long: `Correct the text of a segment. The channels command aligns channels on
the reference's longest labeled utterance by exact text, so fixing that
utterance here lets a channel anchor.

The text is stored exactly as given.

Examples:
  speakerid text interview.json 3 "Good morning, what brings you in today?"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return fmt.Errorf("resolve transcript path: %w", err)
			}
			segmentID, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("invalid segment id %q", args[1])
			}
			text := args[2]

			return ctx.withEngine(cmd, 0, func(runCtx context.Context, engine *pipeline.Engine) error {
				if err := engine.SetText(runCtx, path, segmentID, text); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Segment %d text updated\n", segmentID)
				return nil
			})
		},
	}
	return cmd
}
