package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"speakerid/internal/logging"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

// Label sets the speaker of one segment and saves the transcript. An empty
// speaker clears the label.
func (e *Engine) Label(ctx context.Context, transcriptPath string, segmentID int, speaker string) error {
	err := editLocked(transcriptPath, "label", func(tr *transcript.Transcript) error {
		if err := tr.SetSpeaker(segmentID, speaker); err != nil {
			return fmt.Errorf("segment %d: %w", segmentID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.WithContext(ctx, e.logger).Info("segment labeled",
		logging.Int(logging.FieldSegmentID, segmentID),
		logging.String(logging.FieldSpeaker, strings.TrimSpace(speaker)),
	)
	return nil
}

// SetText replaces the text of one segment and saves the transcript.
func (e *Engine) SetText(ctx context.Context, transcriptPath string, segmentID int, text string) error {
	err := editLocked(transcriptPath, "text", func(tr *transcript.Transcript) error {
		if err := tr.SetText(segmentID, text); err != nil {
			return fmt.Errorf("segment %d: %w", segmentID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logging.WithContext(ctx, e.logger).Info("segment text updated",
		logging.Int(logging.FieldSegmentID, segmentID),
		logging.Int("chars", len([]rune(text))),
	)
	return nil
}

// ImportSegments reads an exported list of labeled segments from sourcePath
// and writes it as a normalized transcript to transcriptPath. An existing
// transcript is only replaced when overwrite is set.
func (e *Engine) ImportSegments(ctx context.Context, sourcePath, transcriptPath string, overwrite bool) (*transcript.Transcript, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "import", "read", sourcePath, err)
		}
		return nil, fmt.Errorf("read segments: %w", err)
	}
	tr, err := transcript.ParseLabeled(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sourcePath, err)
	}

	if err := os.MkdirAll(filepath.Dir(transcriptPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure transcript dir: %w", err)
	}
	unlock, err := lockTranscript(transcriptPath, "import")
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !overwrite {
		if _, statErr := os.Stat(transcriptPath); statErr == nil {
			return nil, services.Wrap(services.ErrValidation, "import", "write", transcriptPath+" already exists", nil)
		}
	}
	if err := transcript.Save(transcriptPath, tr); err != nil {
		return nil, err
	}
	logging.WithContext(ctx, e.logger).Info("segments imported",
		logging.String("source", sourcePath),
		logging.String("path", transcriptPath),
		logging.Int("segments", len(tr.Segments)),
		logging.Int("speakers", len(tr.Speakers())),
	)
	return tr, nil
}

// editLocked loads the transcript under its lock, applies edit, and saves.
func editLocked(transcriptPath, stage string, edit func(*transcript.Transcript) error) error {
	unlock, err := lockTranscript(transcriptPath, stage)
	if err != nil {
		return err
	}
	defer unlock()

	tr, err := transcript.Load(transcriptPath)
	if err != nil {
		return err
	}
	if err := edit(tr); err != nil {
		return err
	}
	return transcript.Save(transcriptPath, tr)
}

func lockTranscript(transcriptPath, stage string) (func(), error) {
	lock := flock.New(transcriptPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire transcript lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrBusy, stage, "lock", transcriptPath, nil)
	}
	return func() { _ = lock.Unlock() }, nil
}
