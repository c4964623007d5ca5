package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"speakerid/internal/pipeline"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <segments.json> <transcript.json>",
		Short: "Create a transcript from an exported list of labeled segments",
		Long: `Read a JSON array of segments, each carrying speaker, start, end and
text, and write it as a transcript with ids numbered by position. The result
can be labeled further or used as the reference for assign and channels.

Examples:
  speakerid import labels.json interview.json
  speakerid import --force labels.json interview.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := resolvePath(args[0])
			if err != nil {
				return fmt.Errorf("resolve segments path: %w", err)
			}
			target, err := resolvePath(args[1])
			if err != nil {
				return fmt.Errorf("resolve transcript path: %w", err)
			}

			return ctx.withEngine(cmd, 0, func(runCtx context.Context, engine *pipeline.Engine) error {
				tr, err := engine.ImportSegments(runCtx, source, target, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d segments (%d unlabeled) into %s\n",
					len(tr.Segments), tr.Unlabeled(), target)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing transcript")
	return cmd
}
