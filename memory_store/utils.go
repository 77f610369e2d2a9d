package memorystore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strings"
)

// Metadata keys that vary between otherwise identical memories and are
// therefore excluded from identity hashing.
var volatileKeys = map[string]struct{}{
	"timestamp":    {},
	"content_hash": {},
	"embedding":    {},
}

// GenerateContentHash derives a memory's identity from its normalized
// content plus its non-volatile metadata. Two memories with the same
// trimmed, lower-cased content and the same non-volatile metadata always
// collide, regardless of metadata insertion order.
func GenerateContentHash(content string, metadata map[string]string) string {
	normalized := strings.ToLower(strings.TrimSpace(content))

	filtered := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if _, volatile := volatileKeys[k]; volatile {
			continue
		}
		filtered[k] = v
	}

	// encoding/json sorts map keys, which makes this serialization
	// canonical across processes.
	canonical, _ := json.Marshal(filtered)

	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write(canonical)

	return hex.EncodeToString(h.Sum(nil))
}

// CosineSimilarity is dot(a,b)/(|a|*|b|), defined as 0 when either
// vector has zero norm or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
