package embedder

import (
	"context"
	"errors"
)

// ErrEmbedding marks failures to produce a vector so callers can tell a
// model or inference problem apart from a storage problem.
var ErrEmbedding = errors.New("embedding generation failed")

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
