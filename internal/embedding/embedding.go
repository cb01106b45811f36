// Package embedding implements the embedding service adapter: mapping text
// to a dense vector through an injected Embedder capability, computing
// cosine similarity, and performing the global top-K search over the
// catalog.
//
// Cosine and zero-vector conventions grounded on
// original_source/backend/app/services/embedding_service.py.
package embedding

import (
	"context"
	"math"
	"sort"
	"strings"

	"movie-recommend-engine/internal/domain/movie"
	"movie-recommend-engine/internal/domain/shared"
	pkgerrors "movie-recommend-engine/pkg/errors"
)

// Embedder is the injected capability boundary for the external embedding
// provider. It is the one suspension point in the whole pipeline (every
// other stage is pure CPU). Production code uses the resty-backed
// HTTPEmbedder (client.go); tests use a deterministic in-memory fake.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Hit is one search result: a candidate movie ID with its cosine score
// against the query vector.
type Hit struct {
	MovieID shared.MovieID
	Score   float64
}

// Embed returns the zero vector for empty/whitespace text without calling
// the provider, otherwise it delegates to the embedder. A provider failure
// is wrapped as EmbeddingUnavailable, the one error kind this boundary may
// raise.
func Embed(ctx context.Context, embedder Embedder, text string, dimension int) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, dimension), nil
	}

	vec, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil, pkgerrors.NewEmbeddingUnavailable("embedding provider call failed", err)
	}
	return vec, nil
}

// CosineSimilarity computes cosine similarity between two vectors of equal
// length. Returns 0 if either vector has zero norm (the convention this
// module inherits from the source's embedding_service.py), never NaN.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CatalogEntry is the minimal view Search needs of an indexed movie: its ID
// and stored embedding vector.
type CatalogEntry struct {
	MovieID shared.MovieID
	Vector  []float32
}

// Search embeds the query text, scores every catalog entry by cosine
// similarity, discards anything below minSimilarity, and returns the top
// topK by descending score with ties broken by ascending movie ID.
func Search(ctx context.Context, embedder Embedder, queryText string, entries []CatalogEntry, dimension int, topK int, minSimilarity float64) ([]Hit, error) {
	queryVec, err := Embed(ctx, embedder, queryText, dimension)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(entries))
	for _, e := range entries {
		score := CosineSimilarity(queryVec, e.Vector)
		if score < minSimilarity {
			continue
		}
		hits = append(hits, Hit{MovieID: e.MovieID, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].MovieID.Value() < hits[j].MovieID.Value()
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// EntriesFromCatalog adapts a movie/embedding catalog slice into the
// CatalogEntry shape Search needs.
func EntriesFromCatalog(embeddings []movie.Embedding) []CatalogEntry {
	entries := make([]CatalogEntry, len(embeddings))
	for i, e := range embeddings {
		entries[i] = CatalogEntry{MovieID: e.MovieID, Vector: e.Vector}
	}
	return entries
}
