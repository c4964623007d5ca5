package audio

import "fmt"

// Recording is multi-channel audio with one mono buffer per channel.
type Recording struct {
	Channels   []Buffer
	SampleRate int
}

// NumChannels returns the channel count.
func (r *Recording) NumChannels() int {
	if r == nil {
		return 0
	}
	return len(r.Channels)
}

// Channel returns the buffer for a zero-based channel index.
func (r *Recording) Channel(index int) (Buffer, error) {
	if r == nil || index < 0 || index >= len(r.Channels) {
		return Buffer{}, fmt.Errorf("channel %d out of range (%d channels)", index, r.NumChannels())
	}
	return r.Channels[index], nil
}

// Mono averages all channels into one buffer. A single-channel recording is
// returned without copying.
func (r *Recording) Mono() Buffer {
	switch r.NumChannels() {
	case 0:
		return Buffer{SampleRate: r.rate()}
	case 1:
		return r.Channels[0]
	}
	n := len(r.Channels[0].Samples)
	for _, ch := range r.Channels[1:] {
		if len(ch.Samples) < n {
			n = len(ch.Samples)
		}
	}
	out := make([]float32, n)
	scale := 1 / float32(len(r.Channels))
	for i := range out {
		var sum float32
		for _, ch := range r.Channels {
			sum += ch.Samples[i]
		}
		out[i] = sum * scale
	}
	return Buffer{Samples: out, SampleRate: r.SampleRate}
}

func (r *Recording) rate() int {
	if r == nil {
		return 0
	}
	return r.SampleRate
}
