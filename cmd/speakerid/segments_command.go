package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"speakerid/internal/textutil"
	"speakerid/internal/transcript"
)

// segmentView is the listing form of a segment.
type segmentView struct {
	ID      int     `json:"id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	var labeled bool
	var find string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "segments <transcript.json>",
		Short: "List transcript segments and their speakers",
		Long: `List segments that carry text, in stored order. With --labeled only
segments that already have a speaker are listed, sorted by start time, which
is the set the assign and channels commands use as seed labels. --find keeps
segments whose text contains the query's characters in order, ignoring case,
which helps locate an utterance to label or correct.

Examples:
  speakerid segments interview.json
  speakerid segments --find "good morning" interview.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolvePath(args[0])
			if err != nil {
				return fmt.Errorf("resolve transcript path: %w", err)
			}
			tr, err := transcript.Load(path)
			if err != nil {
				return err
			}

			views := listSegments(tr, labeled, find)
			if jsonOut {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				if labeled {
					fmt.Fprintln(out, "No labeled segments")
				} else {
					fmt.Fprintln(out, "No segments")
				}
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				speaker := v.Speaker
				if speaker == "" {
					speaker = "-"
				}
				rows = append(rows, []string{
					strconv.Itoa(v.ID),
					formatSeconds(v.Start),
					formatSeconds(v.End),
					speaker,
					v.Text,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Start", "End", "Speaker", "Text"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
				tableOptions{colorize: shouldColorize(out), wrapColumn: 5},
			))
			speakers := tr.Speakers()
			fmt.Fprintf(out, "%d segments, %d unlabeled, speakers: %s\n", len(tr.Segments), tr.Unlabeled(), joinOrDash(speakers))
			return nil
		},
	}

	cmd.Flags().BoolVar(&labeled, "labeled", false, "Only list labeled segments, sorted by start time")
	cmd.Flags().StringVar(&find, "find", "", "Only list segments whose text loosely contains this query")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output segments as JSON")
	return cmd
}

func listSegments(tr *transcript.Transcript, labeled bool, find string) []segmentView {
	var segments []transcript.Segment
	if labeled {
		segments = tr.Labeled()
		sort.SliceStable(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	} else {
		segments = tr.Segments
	}
	views := make([]segmentView, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if !hasWords(text) || !textutil.MatchesQuery(find, text) {
			continue
		}
		views = append(views, segmentView{
			ID:      seg.ID,
			Start:   seg.Start,
			End:     seg.End,
			Text:    text,
			Speaker: seg.Speaker,
		})
	}
	return views
}

// hasWords reports whether text is more than whitespace and periods.
func hasWords(text string) bool {
	return strings.TrimSpace(strings.ReplaceAll(text, ".", "")) != ""
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
