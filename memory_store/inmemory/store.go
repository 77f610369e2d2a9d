package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	memorystore "github.com/w-h-a/memory/memory_store"
	"github.com/w-h-a/memory/memory_store/providers/embedder"
)

// inMemoryStore keeps every memory in a single table guarded by one
// lock. Retrieval is an exact linear scan over all stored embeddings;
// ordering among equal relevance scores follows map iteration order and
// is therefore not deterministic.
type inMemoryStore struct {
	options  memorystore.Options
	memories map[string]memorystore.Memory
	mtx      sync.RWMutex
}

func (s *inMemoryStore) Exists(ctx context.Context, contentHash string) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	_, exists := s.memories[contentHash]

	return exists, nil
}

func (s *inMemoryStore) Store(ctx context.Context, memory *memorystore.Memory) (bool, string, error) {
	// The duplicate check and the insert happen under the same held
	// lock: of two concurrent stores for the same hash, exactly one
	// wins and the other observes the duplicate.
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.memories[memory.ContentHash]; exists {
		return false, "Duplicate content detected", nil
	}

	// The stored copy must not share state with the caller, who is free
	// to reuse the slices and map afterward.
	cpy := *memory
	cpy.Tags = append([]string(nil), memory.Tags...)
	if memory.Metadata != nil {
		cpy.Metadata = make(map[string]string, len(memory.Metadata))
		for k, v := range memory.Metadata {
			cpy.Metadata[k] = v
		}
	}

	if cpy.Embedding == nil {
		vec, err := s.options.Embedder.Embed(ctx, cpy.Content)
		if err != nil {
			return false, "", fmt.Errorf("%w: %v", embedder.ErrEmbedding, err)
		}
		cpy.Embedding = vec
	} else {
		cpy.Embedding = append([]float32(nil), cpy.Embedding...)
	}

	if size := s.options.EmbeddingSize; size > 0 && len(cpy.Embedding) != size {
		return false, "", fmt.Errorf("embedding has %d components, expected %d", len(cpy.Embedding), size)
	}

	s.memories[cpy.ContentHash] = cpy

	return true, fmt.Sprintf("Successfully stored memory with hash: %s", cpy.ContentHash), nil
}

func (s *inMemoryStore) Retrieve(ctx context.Context, queryEmbedding []float32, topN int) ([]memorystore.MemoryQueryResult, error) {
	if topN < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	results := make([]memorystore.MemoryQueryResult, 0, len(s.memories))

	for _, mem := range s.memories {
		if mem.Embedding == nil {
			continue
		}
		score := memorystore.CosineSimilarity(queryEmbedding, mem.Embedding)
		results = append(results, memorystore.MemoryQueryResult{
			Memory:         mem,
			RelevanceScore: float32(score),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if len(results) > topN {
		results = results[:topN]
	}

	return results, nil
}

func (s *inMemoryStore) SearchByTag(ctx context.Context, tags []string) ([]memorystore.Memory, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		wanted[tag] = struct{}{}
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var matches []memorystore.Memory

	for _, mem := range s.memories {
		for _, tag := range mem.Tags {
			if _, ok := wanted[tag]; ok {
				matches = append(matches, mem)
				break
			}
		}
	}

	return matches, nil
}

func (s *inMemoryStore) Delete(ctx context.Context, contentHash string) (bool, string, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, exists := s.memories[contentHash]; !exists {
		return false, fmt.Sprintf("No memory found with hash: %s", contentHash), nil
	}

	delete(s.memories, contentHash)

	return true, fmt.Sprintf("Successfully deleted memory with hash: %s", contentHash), nil
}

func NewStore(opts ...memorystore.Option) memorystore.MemoryStore {
	options := memorystore.NewOptions(opts...)

	s := &inMemoryStore{
		options:  options,
		memories: map[string]memorystore.Memory{},
		mtx:      sync.RWMutex{},
	}

	return s
}
