package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	memorystore "github.com/w-h-a/memory/memory_store"
	"github.com/w-h-a/memory/memory_store/providers/embedder"
)

// chromaStore maps the MemoryStore contract onto a named collection in
// a remote vector database. The remote object ID is the content hash.
//
// Duplicate detection is a point lookup followed by an upsert, two
// separate round trips: two concurrent stores racing on the same hash
// may both pass the lookup, and the second write overwrites the first
// by ID. That is the consistency bound of this backend.
type chromaStore struct {
	options memorystore.Options
	client  *http.Client
}

func (s *chromaStore) Exists(ctx context.Context, contentHash string) (bool, error) {
	req := getRequest{
		Ids: []string{contentHash},
	}

	var rsp getResponse

	path := fmt.Sprintf("/collections/%s/get", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return false, err
	}

	return len(rsp.Ids) > 0, nil
}

func (s *chromaStore) Store(ctx context.Context, memory *memorystore.Memory) (bool, string, error) {
	exists, err := s.Exists(ctx, memory.ContentHash)
	if err != nil {
		return false, "", err
	}

	if exists {
		return false, "Duplicate content detected", nil
	}

	vector := memory.Embedding
	if vector == nil {
		vector, err = s.options.Embedder.Embed(ctx, memory.Content)
		if err != nil {
			return false, "", fmt.Errorf("%w: %v", embedder.ErrEmbedding, err)
		}
	}

	if size := s.options.EmbeddingSize; size > 0 && len(vector) != size {
		return false, "", fmt.Errorf("embedding has %d components, expected %d", len(vector), size)
	}

	req := addRequest{
		Ids:        []string{memory.ContentHash},
		Embeddings: [][]float32{vector},
		Metadatas:  []map[string]any{formatMetadata(memory)},
		Documents:  []string{memory.Content},
	}

	path := fmt.Sprintf("/collections/%s/add", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return false, "", err
	}

	return true, fmt.Sprintf("Successfully stored memory with hash: %s", memory.ContentHash), nil
}

func (s *chromaStore) Retrieve(ctx context.Context, queryEmbedding []float32, topN int) ([]memorystore.MemoryQueryResult, error) {
	if topN < 1 {
		return nil, nil
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{queryEmbedding},
		NResults:        topN,
		Include:         []string{"metadatas", "documents", "embeddings", "distances"},
	}

	var rsp queryResponse

	path := fmt.Sprintf("/collections/%s/query", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return nil, err
	}

	if len(rsp.Ids) == 0 {
		return nil, nil
	}

	ids := rsp.Ids[0]

	results := make([]memorystore.MemoryQueryResult, 0, len(ids))

	for i, id := range ids {
		var document string
		if len(rsp.Documents) > 0 && i < len(rsp.Documents[0]) {
			document = rsp.Documents[0][i]
		}

		metadata := map[string]any{}
		if len(rsp.Metadatas) > 0 && i < len(rsp.Metadatas[0]) && rsp.Metadatas[0][i] != nil {
			metadata = rsp.Metadatas[0][i]
		}

		var vector []float32
		if len(rsp.Embeddings) > 0 && i < len(rsp.Embeddings[0]) {
			vector = rsp.Embeddings[0][i]
		}

		var distance float64
		if len(rsp.Distances) > 0 && i < len(rsp.Distances[0]) {
			distance = rsp.Distances[0][i]
		}

		results = append(results, memorystore.MemoryQueryResult{
			Memory: parseMemory(id, document, metadata, vector),
			// 1 - distance holds for the cosine metric the collection
			// is created with; other metrics would need a different
			// transform.
			RelevanceScore: float32(1.0 - distance),
		})
	}

	return results, nil
}

func (s *chromaStore) SearchByTag(ctx context.Context, tags []string) ([]memorystore.Memory, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	conditions := make([]map[string]any, 0, len(tags))
	for _, tag := range tags {
		conditions = append(conditions, map[string]any{
			"$contains": map[string]any{
				"path":  "tags",
				"value": tag,
			},
		})
	}

	where := conditions[0]
	if len(conditions) > 1 {
		where = map[string]any{
			"$or": conditions,
		}
	}

	req := getRequest{
		Where:   where,
		Include: []string{"metadatas", "documents", "embeddings"},
	}

	var rsp getResponse

	path := fmt.Sprintf("/collections/%s/get", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, &rsp); err != nil {
		return nil, err
	}

	memories := make([]memorystore.Memory, 0, len(rsp.Ids))

	for i, id := range rsp.Ids {
		var document string
		if i < len(rsp.Documents) {
			document = rsp.Documents[i]
		}

		metadata := map[string]any{}
		if i < len(rsp.Metadatas) && rsp.Metadatas[i] != nil {
			metadata = rsp.Metadatas[i]
		}

		var vector []float32
		if i < len(rsp.Embeddings) {
			vector = rsp.Embeddings[i]
		}

		memories = append(memories, parseMemory(id, document, metadata, vector))
	}

	return memories, nil
}

func (s *chromaStore) Delete(ctx context.Context, contentHash string) (bool, string, error) {
	exists, err := s.Exists(ctx, contentHash)
	if err != nil {
		return false, "", err
	}

	if !exists {
		return false, fmt.Sprintf("No memory found with hash: %s", contentHash), nil
	}

	req := deleteRequest{
		Ids: []string{contentHash},
	}

	path := fmt.Sprintf("/collections/%s/delete", url.PathEscape(s.options.Collection))

	if err := s.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return false, "", err
	}

	return true, fmt.Sprintf("Successfully deleted memory with hash: %s", contentHash), nil
}

func (s *chromaStore) do(ctx context.Context, method string, path string, req any, rsp any) error {
	u := s.options.Location + path

	var buf io.Reader
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, u, buf)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 300 {
		return fmt.Errorf("chroma http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func (s *chromaStore) configure(ctx context.Context) error {
	exists, err := s.collectionExists(ctx)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	if err := s.createCollection(ctx); err != nil {
		// Another creator may have won the race; the end state we need
		// is an existing collection regardless of who created it.
		exists, checkErr := s.collectionExists(ctx)
		if checkErr == nil && exists {
			slog.WarnContext(ctx, "collection was created concurrently", "collection", s.options.Collection, "error", err)
			return nil
		}
		return err
	}

	return nil
}

func (s *chromaStore) collectionExists(ctx context.Context) (bool, error) {
	var collections []collectionInfo

	if err := s.do(ctx, http.MethodGet, "/collections", nil, &collections); err != nil {
		return false, err
	}

	for _, collection := range collections {
		if collection.Name == s.options.Collection {
			return true, nil
		}
	}

	return false, nil
}

func (s *chromaStore) createCollection(ctx context.Context) error {
	req := createCollectionRequest{
		Name: s.options.Collection,
		Metadata: map[string]any{
			"distance_metric": s.options.Distance,
		},
	}

	return s.do(ctx, http.MethodPost, "/collections", req, nil)
}

func NewStore(opts ...memorystore.Option) (memorystore.MemoryStore, error) {
	options := memorystore.NewOptions(opts...)

	if len(options.Location) == 0 || len(options.Collection) == 0 {
		return nil, errors.New("chroma store requires a location and a collection name")
	}

	if _, err := url.ParseRequestURI(options.Location); err != nil {
		return nil, fmt.Errorf("invalid chroma location %q: %w", options.Location, err)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	s := &chromaStore{
		options: options,
		client:  client,
	}

	if err := s.configure(options.Context); err != nil {
		return nil, err
	}

	return s, nil
}
