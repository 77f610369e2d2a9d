package chroma

import (
	memorystore "github.com/w-h-a/memory/memory_store"
	getsafe "github.com/w-h-a/memory/util/get_safe"
)

type collectionInfo struct {
	Name string `json:"name"`
}

type createCollectionRequest struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

type getRequest struct {
	Ids     []string       `json:"ids,omitempty"`
	Where   map[string]any `json:"where,omitempty"`
	Include []string       `json:"include,omitempty"`
}

type getResponse struct {
	Ids        []string         `json:"ids"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
	Embeddings [][]float32      `json:"embeddings"`
}

type addRequest struct {
	Ids        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
	Documents  []string         `json:"documents"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

// Query responses nest every field one level deep, one inner slice per
// query embedding in the batch. We always send a batch of one.
type queryResponse struct {
	Ids        [][]string         `json:"ids"`
	Documents  [][]string         `json:"documents"`
	Metadatas  [][]map[string]any `json:"metadatas"`
	Distances  [][]float64        `json:"distances"`
	Embeddings [][][]float32      `json:"embeddings"`
}

type deleteRequest struct {
	Ids []string `json:"ids"`
}

const userMetadataPrefix = "metadata_"

// formatMetadata flattens a memory into the collection's string-keyed
// metadata map. The protocol has no nested values, so tags become a
// JSON array field and user metadata keys are re-prefixed to keep them
// clear of the reserved field names.
func formatMetadata(memory *memorystore.Memory) map[string]any {
	metadata := map[string]any{
		"content_hash":      memory.ContentHash,
		"timestamp_seconds": memory.TimestampSeconds,
		"tags":              append([]string{}, memory.Tags...),
	}

	if len(memory.MemoryType) > 0 {
		metadata["memory_type"] = memory.MemoryType
	}

	for key, value := range memory.Metadata {
		metadata[userMetadataPrefix+key] = value
	}

	return metadata
}

// parseMemory reverses formatMetadata. Prefixed fields are stripped back
// into the user metadata map; unprefixed fields other than the reserved
// ones are ignored.
func parseMemory(id string, document string, metadata map[string]any, embedding []float32) memorystore.Memory {
	userMetadata := map[string]string{}
	for key, value := range metadata {
		if len(key) <= len(userMetadataPrefix) || key[:len(userMetadataPrefix)] != userMetadataPrefix {
			continue
		}
		if s, ok := value.(string); ok {
			userMetadata[key[len(userMetadataPrefix):]] = s
		}
	}

	tags := getsafe.Strings(metadata, "tags")
	if tags == nil {
		tags = []string{}
	}

	return memorystore.Memory{
		Content:          document,
		ContentHash:      id,
		Tags:             tags,
		MemoryType:       getsafe.String(metadata, "memory_type"),
		TimestampSeconds: getsafe.Int64(metadata, "timestamp_seconds"),
		Metadata:         userMetadata,
		Embedding:        embedding,
	}
}
