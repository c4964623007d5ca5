package audio

import (
	"fmt"

	"speakerid/internal/services"
)

// DefaultMinDuration is the shortest slice, in seconds, accepted by Slice.
const DefaultMinDuration = 0.1

// Buffer is mono PCM audio. Callers must treat Samples as read-only once a
// buffer is shared.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Len returns the number of samples.
func (b Buffer) Len() int {
	return len(b.Samples)
}

// Duration returns the buffer length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Slice returns the samples between start and end seconds. The returned
// buffer shares memory with b.
func (b Buffer) Slice(start, end, minDuration float64) (Buffer, error) {
	if b.SampleRate <= 0 {
		return Buffer{}, invalid("sample rate %d", b.SampleRate)
	}
	sr := float64(b.SampleRate)
	startSample := int(start * sr)
	endSample := int(end * sr)

	switch {
	case startSample >= endSample:
		return Buffer{}, invalid("start sample %d not before end sample %d", startSample, endSample)
	case startSample < 0:
		return Buffer{}, invalid("start sample %d is negative", startSample)
	case endSample > len(b.Samples):
		return Buffer{}, invalid("end sample %d beyond %d samples", endSample, len(b.Samples))
	}

	minSamples := int(minDuration * sr)
	if n := endSample - startSample; n < minSamples {
		return Buffer{}, invalid("slice of %d samples shorter than %d", n, minSamples)
	}
	return Buffer{Samples: b.Samples[startSample:endSample:endSample], SampleRate: b.SampleRate}, nil
}

// Concat joins buffers into one newly allocated buffer. All inputs must share
// the sample rate; an empty input yields an empty buffer.
func Concat(parts ...Buffer) (Buffer, error) {
	if len(parts) == 0 {
		return Buffer{}, nil
	}
	rate := parts[0].SampleRate
	total := 0
	for i, part := range parts {
		if part.SampleRate != rate {
			return Buffer{}, fmt.Errorf("concat: part %d has sample rate %d, expected %d", i, part.SampleRate, rate)
		}
		total += len(part.Samples)
	}
	out := make([]float32, 0, total)
	for _, part := range parts {
		out = append(out, part.Samples...)
	}
	return Buffer{Samples: out, SampleRate: rate}, nil
}

func invalid(format string, args ...any) error {
	return services.Wrap(services.ErrInvalidSegment, "audio", "slice", fmt.Sprintf(format, args...), nil)
}
