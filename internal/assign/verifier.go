package assign

import (
	"context"

	"speakerid/internal/audio"
)

// Verifier scores how likely two buffers contain the same speaker. Higher is
// more similar; the scale is the verifier's own.
type Verifier interface {
	Similarity(ctx context.Context, segment, reference audio.Buffer) (float64, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, segment, reference audio.Buffer) (float64, error)

// Similarity calls f.
func (f VerifierFunc) Similarity(ctx context.Context, segment, reference audio.Buffer) (float64, error) {
	return f(ctx, segment, reference)
}
