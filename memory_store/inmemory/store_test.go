package inmemory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	memorystore "github.com/w-h-a/memory/memory_store"
	"github.com/w-h-a/memory/memory_store/providers/embedder"
)

// stubEmbedder returns canned vectors keyed by text.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func newMemory(content string, tags []string, vector []float32) *memorystore.Memory {
	return &memorystore.Memory{
		Content:          content,
		ContentHash:      memorystore.GenerateContentHash(content, nil),
		Tags:             tags,
		TimestampSeconds: 1700000000,
		Metadata:         map[string]string{},
		Embedding:        vector,
	}
}

func TestStore_StoreDuplicateSearchDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memorystore.WithEmbedder(&stubEmbedder{}))

	mem := newMemory("The sky is blue", []string{"fact", "sky"}, nil)

	accepted, message, err := store.Store(ctx, mem)
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Contains(t, message, mem.ContentHash)

	exists, err := store.Exists(ctx, mem.ContentHash)
	require.NoError(t, err)
	assert.True(t, exists)

	// same content, same identity
	accepted, message, err = store.Store(ctx, newMemory("The sky is blue", []string{"fact", "sky"}, nil))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Contains(t, message, "Duplicate")

	matches, err := store.SearchByTag(ctx, []string{"sky"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, mem.ContentHash, matches[0].ContentHash)

	removed, message, err := store.Delete(ctx, mem.ContentHash)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Contains(t, message, "Successfully deleted")

	removed, message, err = store.Delete(ctx, mem.ContentHash)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Contains(t, message, "No memory found")

	exists, err = store.Exists(ctx, mem.ContentHash)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_ConcurrentStoresOneWins(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memorystore.WithEmbedder(&stubEmbedder{}))

	const writers = 16

	var wg sync.WaitGroup
	var accepted atomic.Int32

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := store.Store(ctx, newMemory("The sky is blue", []string{"fact"}, nil))
			assert.NoError(t, err)
			if ok {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())

	// losers did not leave extra rows behind
	results, err := store.Retrieve(ctx, []float32{1, 0, 0}, writers)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestStore_CopiesCallerState(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memorystore.WithEmbedder(&stubEmbedder{}))

	mem := newMemory("hello", []string{"original"}, []float32{1, 0, 0})
	mem.Metadata = map[string]string{"topic": "go"}

	accepted, _, err := store.Store(ctx, mem)
	require.NoError(t, err)
	require.True(t, accepted)

	// mutations after Store must not reach the stored copy
	mem.Tags[0] = "mutated"
	mem.Metadata["topic"] = "mutated"
	mem.Embedding[0] = 0

	matches, err := store.SearchByTag(ctx, []string{"original"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "go", matches[0].Metadata["topic"])

	matches, err = store.SearchByTag(ctx, []string{"mutated"})
	require.NoError(t, err)
	assert.Empty(t, matches)

	results, err := store.Retrieve(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, float64(results[0].RelevanceScore), 1e-6)
}

func TestStore_GeneratesMissingEmbedding(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memorystore.WithEmbedder(&stubEmbedder{
		vectors: map[string][]float32{"hello": {0, 1, 0}},
	}))

	accepted, _, err := store.Store(ctx, newMemory("hello", nil, nil))
	require.NoError(t, err)
	require.True(t, accepted)

	results, err := store.Retrieve(ctx, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, float64(results[0].RelevanceScore), 1e-6)
}

func TestStore_EmbeddingFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memorystore.WithEmbedder(&stubEmbedder{err: errors.New("model not found")}))

	_, _, err := store.Store(ctx, newMemory("hello", nil, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, embedder.ErrEmbedding))
}

func TestStore_RejectsMismatchedEmbeddingSize(t *testing.T) {
	ctx := context.Background()
	store := NewStore(
		memorystore.WithEmbedder(&stubEmbedder{}),
		memorystore.WithEmbeddingSize(3),
	)

	_, _, err := store.Store(ctx, newMemory("hello", nil, []float32{1, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 3")
}

func TestRetrieve_RankedAndTruncated(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memorystore.WithEmbedder(&stubEmbedder{}))

	vectors := map[string][]float32{
		"close":   {1, 0.1, 0},
		"closer":  {1, 0.01, 0},
		"distant": {0, 0, 1},
	}
	for content, vec := range vectors {
		accepted, _, err := store.Store(ctx, newMemory(content, nil, vec))
		require.NoError(t, err)
		require.True(t, accepted)
	}

	query := []float32{1, 0, 0}

	results, err := store.Retrieve(ctx, query, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "closer", results[0].Memory.Content)
	assert.Equal(t, "close", results[1].Memory.Content)
	assert.GreaterOrEqual(t, results[0].RelevanceScore, results[1].RelevanceScore)

	// topN larger than the table returns everything, still ordered
	results, err = store.Retrieve(ctx, query, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].RelevanceScore, results[i].RelevanceScore)
	}

	// non-positive topN returns nothing
	results, err = store.Retrieve(ctx, query, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchByTag_EmptyQueryMatchesNothing(t *testing.T) {
	ctx := context.Background()
	store := NewStore(memorystore.WithEmbedder(&stubEmbedder{}))

	accepted, _, err := store.Store(ctx, newMemory("tagged", []string{"x"}, nil))
	require.NoError(t, err)
	require.True(t, accepted)

	matches, err := store.SearchByTag(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = store.SearchByTag(ctx, []string{"y"})
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = store.SearchByTag(ctx, []string{"y", "x"})
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
