package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"speakerid/internal/anchor"
	"speakerid/internal/audio"
	"speakerid/internal/channelmap"
	"speakerid/internal/history"
	"speakerid/internal/logging"
	"speakerid/internal/merge"
	"speakerid/internal/reference"
	"speakerid/internal/services"
	"speakerid/internal/textutil"
	"speakerid/internal/transcript"
)

// ChannelsResult summarizes a multi-channel identification run.
type ChannelsResult struct {
	RunID      string                 `json:"run_id"`
	OutputPath string                 `json:"output_path,omitempty"`
	Mapping    map[string]int         `json:"mapping,omitempty"`
	Channels   []anchor.ChannelResult `json:"channels,omitempty"`
	Segments   int                    `json:"segments"`
	Merged     *transcript.Transcript `json:"-"`
}

// IdentifyChannels maps each channel of the recording at audioPath to a
// speaker labeled in the transcript at transcriptPath, aligns the channel
// transcripts to it, and writes the merged result. The input transcript is
// not modified.
func (e *Engine) IdentifyChannels(ctx context.Context, transcriptPath, audioPath string) (ChannelsResult, error) {
	r, err := e.begin(ctx, history.ModeChannels, transcriptPath, audioPath)
	if err != nil {
		return ChannelsResult{}, err
	}
	result := ChannelsResult{RunID: r.id}
	var counts history.Counts
	defer func() { e.end(r, result.OutputPath, counts, err) }()

	if e.transcriber == nil {
		err = services.Wrap(services.ErrConfiguration, "channels", "transcribe", "no transcriber configured", nil)
		return result, err
	}

	ctx = services.WithStage(r.ctx, "load")
	ref, err := transcript.Load(transcriptPath)
	if err != nil {
		return result, err
	}
	textRefs := reference.BuildText(ref)
	if len(textRefs) == 0 {
		err = services.Wrap(services.ErrNoReferenceSpeakers, "channels", "references", "reference transcript has no labeled segments", nil)
		return result, err
	}

	ctx = services.WithStage(ctx, "extract")
	paths, err := e.extractChannels(ctx, audioPath)
	if err != nil {
		return result, err
	}
	counts.Channels = len(paths)

	ctx = services.WithStage(ctx, "transcribe")
	channels := make([]channelmap.Channel, 0, len(paths))
	for i, path := range paths {
		chCtx := services.WithChannel(ctx, i)
		tr, tErr := e.transcriber.Transcribe(chCtx, path)
		if tErr != nil {
			err = fmt.Errorf("transcribe channel %d: %w", i, tErr)
			return result, err
		}
		channels = append(channels, channelmap.Channel{Index: i, Transcript: tr})
	}

	ctx = services.WithStage(ctx, "map")
	mapper := channelmap.NewMapper(e.cfg.Channels.TextMatchThreshold, logging.WithContext(ctx, e.logger))
	mapping, err := mapper.Map(textRefs, channels)
	if err != nil {
		return result, err
	}
	channelmap.Stamp(mapping, channels)
	result.Mapping = mapping.SpeakerToChannel

	ctx = services.WithStage(ctx, "anchor")
	anchored := make([]anchor.Channel, len(channels))
	stamped := make([]*transcript.Transcript, len(channels))
	for i, ch := range channels {
		anchored[i] = anchor.Channel{Index: ch.Index, Transcript: ch.Transcript}
		stamped[i] = ch.Transcript
	}
	alignment, err := anchor.Align(ref, anchored, anchor.Options{
		AllowUnanchored: e.cfg.Channels.AllowUnanchored,
		Logger:          logging.WithContext(ctx, e.logger),
	})
	if err != nil {
		return result, err
	}
	result.Channels = alignment.Channels

	ctx = services.WithStage(ctx, "merge")
	merged := merge.Merge(stamped)
	result.Merged = merged
	result.Segments = len(merged.Segments)
	counts.Segments = len(merged.Segments)
	counts.Assigned = len(merged.Segments)

	outputPath := transcript.ResultsPath(transcriptPath, e.cfg.Channels.ResultsSuffix)
	if err = transcript.Save(outputPath, merged); err != nil {
		return result, err
	}
	result.OutputPath = outputPath
	logging.WithContext(ctx, e.logger).Info("merged result written",
		logging.String("path", outputPath),
		logging.Int("segments", result.Segments),
	)
	return result, nil
}

// extractChannels writes each channel of the recording as a mono WAV under
// the work directory, reusing files from earlier runs.
func (e *Engine) extractChannels(ctx context.Context, audioPath string) ([]string, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "channels", "extract", audioPath, err)
		}
		return nil, fmt.Errorf("stat audio: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	dir := filepath.Join(e.cfg.Paths.WorkDir, "channels", fmt.Sprintf("%s-%d", textutil.SanitizeToken(base), info.Size()))

	if cached := cachedChannels(dir); len(cached) > 0 {
		logging.WithContext(ctx, e.logger).Info("reusing extracted channels",
			logging.String("dir", dir),
			logging.Int("channels", len(cached)),
		)
		return cached, nil
	}

	rec, err := audio.LoadWAV(audioPath)
	if err != nil {
		return nil, err
	}
	if rec.NumChannels() == 0 {
		return nil, services.Wrap(services.ErrInvalidAudio, "channels", "extract", "recording has no channels", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure channel dir: %w", err)
	}

	paths := make([]string, rec.NumChannels())
	for i, buf := range rec.Channels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paths[i] = channelPath(dir, i)
		tmp := paths[i] + ".partial"
		if err := audio.WriteWAV(tmp, buf); err != nil {
			return nil, fmt.Errorf("write channel %d: %w", i, err)
		}
		if err := os.Rename(tmp, paths[i]); err != nil {
			return nil, fmt.Errorf("finalize channel %d: %w", i, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, channelCountFile), []byte(fmt.Sprintf("%d\n", len(paths))), 0o644); err != nil {
		return nil, fmt.Errorf("record channel count: %w", err)
	}
	logging.WithContext(ctx, e.logger).Info("channels extracted",
		logging.String("dir", dir),
		logging.Int("channels", len(paths)),
		logging.Int("sample_rate", rec.SampleRate),
	)
	return paths, nil
}

// channelCountFile marks a completed extraction.
const channelCountFile = "channels.count"

func channelPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("channel_%d.wav", index))
}

func cachedChannels(dir string) []string {
	data, err := os.ReadFile(filepath.Join(dir, channelCountFile))
	if err != nil {
		return nil
	}
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(string(data)), "%d", &n); err != nil || n <= 0 {
		return nil
	}
	paths := make([]string, n)
	for i := range paths {
		paths[i] = channelPath(dir, i)
		if _, err := os.Stat(paths[i]); err != nil {
			return nil
		}
	}
	return paths
}
