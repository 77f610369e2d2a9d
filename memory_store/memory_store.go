package memorystore

import "context"

// MemoryStore is the single surface callers use to persist and query
// memories. Implementations are interchangeable and selected once at
// startup; only latency, durability, and ranking exactness differ
// between them.
type MemoryStore interface {
	// Exists reports whether a memory with the given content hash is
	// already stored. It only errors on transport failure.
	Exists(ctx context.Context, contentHash string) (bool, error)
	// Store persists a new memory. It returns accepted=false with an
	// explanatory message when the content hash is already present;
	// duplicates are rejected, never merged. If the memory carries no
	// embedding one is generated from its content before persisting.
	Store(ctx context.Context, memory *Memory) (bool, string, error)
	// Retrieve ranks stored memories against the query embedding and
	// returns at most topN results in descending relevance order.
	// Ordering among equal scores is implementation-defined.
	Retrieve(ctx context.Context, queryEmbedding []float32, topN int) ([]MemoryQueryResult, error)
	// SearchByTag returns every memory carrying at least one of the
	// given tags. An empty tag set matches nothing.
	SearchByTag(ctx context.Context, tags []string) ([]Memory, error)
	// Delete removes a memory by content hash. It returns removed=false
	// with an explanatory message when the hash is absent; that is not
	// an error condition.
	Delete(ctx context.Context, contentHash string) (bool, string, error)
}
