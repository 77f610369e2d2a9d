package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	memorystore "github.com/w-h-a/memory/memory_store"
	"github.com/w-h-a/memory/memory_store/providers/embedder"
)

const defaultTopN = 5

// Service assembles memories from caller input and runs the store and
// retrieval flows against the configured backend. Duplicate and
// not-found outcomes are encoded in the return values, never as errors.
type Service struct {
	store    memorystore.MemoryStore
	embedder embedder.Embedder
}

func (s *Service) Store(ctx context.Context, content string, tags []string, memoryType string, metadata map[string]string) (bool, string, error) {
	if len(strings.TrimSpace(content)) == 0 {
		return false, "", errors.New("content is required")
	}

	if metadata == nil {
		metadata = map[string]string{}
	}

	if tags == nil {
		tags = []string{}
	}

	mem := &memorystore.Memory{
		Content:          content,
		ContentHash:      memorystore.GenerateContentHash(content, metadata),
		Tags:             tags,
		MemoryType:       memoryType,
		TimestampSeconds: time.Now().UTC().Unix(),
		Metadata:         metadata,
	}

	return s.store.Store(ctx, mem)
}

func (s *Service) Retrieve(ctx context.Context, query string, topN int) ([]memorystore.MemoryQueryResult, error) {
	if len(strings.TrimSpace(query)) == 0 {
		return nil, errors.New("query is required")
	}

	if topN < 1 {
		topN = defaultTopN
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedder.ErrEmbedding, err)
	}

	return s.store.Retrieve(ctx, vec, topN)
}

func (s *Service) SearchByTag(ctx context.Context, tags []string) ([]memorystore.Memory, error) {
	return s.store.SearchByTag(ctx, tags)
}

func (s *Service) Delete(ctx context.Context, contentHash string) (bool, string, error) {
	if len(strings.TrimSpace(contentHash)) == 0 {
		return false, "", errors.New("content hash is required")
	}

	return s.store.Delete(ctx, contentHash)
}

func (s *Service) Exists(ctx context.Context, contentHash string) (bool, error) {
	return s.store.Exists(ctx, contentHash)
}

func New(store memorystore.MemoryStore, e embedder.Embedder) *Service {
	return &Service{
		store:    store,
		embedder: e,
	}
}
