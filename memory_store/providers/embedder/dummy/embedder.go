package dummy

import (
	"context"
	"math"

	"github.com/w-h-a/memory/memory_store/providers/embedder"
)

// dummyEmbedder produces a deterministic, normalized vector derived from
// the text length. It carries no semantic signal and exists for tests
// and for degraded startup when no real model is configured.
type dummyEmbedder struct {
	options embedder.Options
}

func (e *dummyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	textLen := float32(len(text))

	vec := make([]float32, e.options.Size)
	for i := range vec {
		vec[i] = float32(math.Sin(float64(float32(i)*0.1+textLen*0.01))) * 0.5
	}

	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / magnitude)
		}
	}

	return vec, nil
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	return &dummyEmbedder{
		options: options,
	}
}
