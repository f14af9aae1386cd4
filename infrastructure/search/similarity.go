// Package search implements the vector index on SQLite (JSON columns,
// in-process cosine ranking) and PostgreSQL (pgvector).
package search

import (
	"math"
	"sort"

	"github.com/vitae-dev/vitae/domain/search"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical), or 0 if either
// vector has zero magnitude or the lengths differ.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// storedVector is one candidate loaded for in-process ranking.
type storedVector struct {
	id        int64
	projectID int64
	embedding []float64
}

// topKSimilar ranks stored vectors against the query and returns the k
// nearest as results, sorted by similarity descending.
func topKSimilar(query []float64, vectors []storedVector, k int) []search.Result {
	if len(vectors) == 0 || k <= 0 {
		return []search.Result{}
	}

	results := make([]search.Result, 0, len(vectors))
	for _, v := range vectors {
		results = append(results, search.NewResult(v.id, v.projectID, CosineSimilarity(query, v.embedding)))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}
