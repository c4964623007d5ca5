package audio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"speakerid/internal/services"
)

// pcmFormat is the WAVE_FORMAT_PCM tag.
const pcmFormat = 1

// DefaultBitDepth is used when writing WAV files.
const DefaultBitDepth = 16

// LoadWAV reads a PCM WAV file into a Recording.
func LoadWAV(path string) (*Recording, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "audio", "load", path, err)
		}
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	rec, err := DecodeWAV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// DecodeWAV decodes PCM WAV data, de-interleaving channels and normalizing
// samples to [-1, 1].
func DecodeWAV(r io.ReadSeeker) (*Recording, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, services.Wrap(services.ErrInvalidAudio, "audio", "decode", "not a valid wav file", nil)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, services.Wrap(services.ErrInvalidAudio, "audio", "decode", "read pcm data", err)
	}

	channels := int(dec.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels <= 0 {
		return nil, services.Wrap(services.ErrInvalidAudio, "audio", "decode", "wav reports zero channels", nil)
	}
	rate := int(dec.SampleRate)
	if rate <= 0 {
		return nil, services.Wrap(services.ErrInvalidAudio, "audio", "decode", "wav reports zero sample rate", nil)
	}
	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, services.Wrap(services.ErrInvalidAudio, "audio", "decode", fmt.Sprintf("unsupported bit depth %d", bitDepth), nil)
	}

	scale := float32(math.Exp2(float64(bitDepth - 1)))
	frames := len(buf.Data) / channels
	rec := &Recording{Channels: make([]Buffer, channels), SampleRate: rate}
	for ch := range rec.Channels {
		rec.Channels[ch] = Buffer{Samples: make([]float32, frames), SampleRate: rate}
	}
	for frame := 0; frame < frames; frame++ {
		base := frame * channels
		for ch := 0; ch < channels; ch++ {
			rec.Channels[ch].Samples[frame] = float32(buf.Data[base+ch]) / scale
		}
	}
	return rec, nil
}

// WriteWAV writes one or more equal-rate buffers as an interleaved 16-bit PCM
// WAV file. Shorter channels are padded with silence.
func WriteWAV(path string, channels ...Buffer) error {
	if len(channels) == 0 {
		return errors.New("write wav: no channels")
	}
	rate := channels[0].SampleRate
	frames := 0
	for i, ch := range channels {
		if ch.SampleRate != rate {
			return fmt.Errorf("write wav: channel %d has sample rate %d, expected %d", i, ch.SampleRate, rate)
		}
		frames = max(frames, len(ch.Samples))
	}
	if rate <= 0 {
		return fmt.Errorf("write wav: invalid sample rate %d", rate)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write wav: ensure dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write wav: create: %w", err)
	}

	data := make([]int, frames*len(channels))
	peak := float32(math.Exp2(DefaultBitDepth-1) - 1)
	for ch, buf := range channels {
		for i, sample := range buf.Samples {
			data[i*len(channels)+ch] = int(clamp(sample) * peak)
		}
	}

	enc := wav.NewEncoder(file, rate, DefaultBitDepth, len(channels), pcmFormat)
	intBuf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: len(channels), SampleRate: rate},
		Data:           data,
		SourceBitDepth: DefaultBitDepth,
	}
	if err := enc.Write(intBuf); err != nil {
		_ = file.Close()
		return fmt.Errorf("write wav: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("write wav: finalize: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write wav: close: %w", err)
	}
	return nil
}

func clamp(v float32) float32 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
