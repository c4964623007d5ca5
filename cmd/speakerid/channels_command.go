package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"speakerid/internal/channelmap"
	"speakerid/internal/pipeline"
	"speakerid/internal/services"
)

func newChannelsCommand(ctx *commandContext) *cobra.Command {
	var allowUnanchored bool
	var matchThreshold int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "channels <transcript.json> <audio.wav>",
		Short: "Map per-speaker channels to seed labels and merge them",
		Long: `Split a multi-channel recording into one mono file per channel,
transcribe every channel, and map each labeled speaker of the reference
transcript to the channel that carries their words. Channels are aligned to
the reference timeline on its longest utterance, stamped with their speaker,
and merged into <transcript>_speaker_results.json. The reference transcript
itself is left unchanged.

Examples:
  speakerid channels interview.json interview.wav
  speakerid channels --allow-unanchored interview.json interview.wav`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cmd.Flags().Changed("allow-unanchored") {
				cfg.Channels.AllowUnanchored = allowUnanchored
			}
			if cmd.Flags().Changed("match-threshold") {
				if matchThreshold < 0 || matchThreshold >= 100 {
					return fmt.Errorf("--match-threshold must be between 0 and 99")
				}
				cfg.Channels.TextMatchThreshold = matchThreshold
			}
			transcriptPath, audioPath, err := resolveInputs(args[0], args[1])
			if err != nil {
				return err
			}

			return ctx.withEngine(cmd, needTranscriber, func(runCtx context.Context, engine *pipeline.Engine) error {
				result, err := engine.IdentifyChannels(runCtx, transcriptPath, audioPath)
				if errors.Is(err, services.ErrNoReferenceSpeakers) {
					return reportIdle(cmd, result.RunID, jsonOut)
				}
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, result)
				}
				renderChannelsResult(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&allowUnanchored, "allow-unanchored", false, "Exclude channels that cannot be aligned instead of failing")
	cmd.Flags().IntVar(&matchThreshold, "match-threshold", channelmap.DefaultThreshold, "Fuzzy text score (0-100) a channel must exceed to match a speaker")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the run summary as JSON")
	return cmd
}

func renderChannelsResult(cmd *cobra.Command, result pipeline.ChannelsResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s\n", result.RunID)

	speakers := make([]string, 0, len(result.Mapping))
	for speaker := range result.Mapping {
		speakers = append(speakers, speaker)
	}
	sort.Slice(speakers, func(i, j int) bool { return result.Mapping[speakers[i]] < result.Mapping[speakers[j]] })

	byIndex := make(map[int]int, len(result.Channels))
	for i, ch := range result.Channels {
		byIndex[ch.Index] = i
	}
	rows := make([][]string, 0, len(speakers))
	for _, speaker := range speakers {
		index := result.Mapping[speaker]
		row := []string{strconv.Itoa(index), speaker, "no", "-", "0", "0"}
		if i, ok := byIndex[index]; ok {
			ch := result.Channels[i]
			row[2] = yesNo(ch.Anchored)
			if ch.Anchored {
				row[3] = strconv.FormatFloat(ch.Shift, 'f', 2, 64) + "s"
			}
			row[4] = strconv.Itoa(ch.Kept)
			row[5] = strconv.Itoa(ch.Dropped)
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Channel", "Speaker", "Anchored", "Shift", "Kept", "Dropped"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
		tableOptions{colorize: shouldColorize(out)},
	))
	fmt.Fprintf(out, "Wrote %d segments to %s\n", result.Segments, result.OutputPath)
}
