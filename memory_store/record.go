package memorystore

// Memory is the stored content unit. Once stored it is immutable except
// for deletion; there is no update-in-place.
type Memory struct {
	Content          string            `json:"content"`
	ContentHash      string            `json:"content_hash"`
	Tags             []string          `json:"tags"`
	MemoryType       string            `json:"memory_type,omitempty"`
	TimestampSeconds int64             `json:"timestamp_seconds"`
	Metadata         map[string]string `json:"metadata"`
	// Embedding is held in memory and persisted by backends but never
	// serialized into human-facing summaries.
	Embedding []float32 `json:"-"`
}

// MemoryQueryResult pairs a memory with its similarity to a query
// embedding; higher is more relevant.
type MemoryQueryResult struct {
	Memory         Memory  `json:"memory"`
	RelevanceScore float32 `json:"relevance_score"`
}
