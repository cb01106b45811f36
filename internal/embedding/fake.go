package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// FakeEmbedder is a deterministic in-memory Embedder used by tests and the
// godog BDD suite: it never makes a network call, and the same text always
// produces the same vector, so pipeline tests are fully reproducible.
type FakeEmbedder struct {
	Dimension int
}

// NewFakeEmbedder builds a FakeEmbedder producing vectors of the given
// dimension.
func NewFakeEmbedder(dimension int) *FakeEmbedder {
	return &FakeEmbedder{Dimension: dimension}
}

// Embed deterministically derives a vector from text's hash (not
// normalized; each component lies in [-1, 1]): each component is a sine
// of a per-component seed, so semantically similar
// strings have no special relationship (this is a test double, not a real
// embedding model) but identical strings always produce identical vectors.
func (f *FakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, f.Dimension)
	if text == "" {
		return vec, nil
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	for i := range vec {
		// Mix the base seed with the component index for a spread of
		// values rather than a repeating pattern.
		mixed := seed ^ (uint64(i) * 0x9E3779B97F4A7C15)
		vec[i] = float32(math.Sin(float64(mixed%1000000) / 100000.0))
	}
	return vec, nil
}

// Ping always succeeds: the fake has no network dependency to fail.
func (f *FakeEmbedder) Ping(ctx context.Context) error {
	return nil
}
