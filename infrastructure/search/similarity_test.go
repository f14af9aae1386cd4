package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 0.0001)
		})
	}
}

func TestTopKSimilar(t *testing.T) {
	vectors := []storedVector{
		{id: 1, projectID: 1, embedding: []float64{1, 0}},
		{id: 2, projectID: 1, embedding: []float64{0, 1}},
		{id: 3, projectID: 2, embedding: []float64{0.7, 0.7}},
	}

	results := topKSimilar([]float64{1, 0}, vectors, 2)
	assert.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ID())
	assert.Equal(t, int64(3), results[1].ID())

	assert.Empty(t, topKSimilar([]float64{1, 0}, nil, 2))
	assert.Empty(t, topKSimilar([]float64{1, 0}, vectors, 0))
	assert.Len(t, topKSimilar([]float64{1, 0}, vectors, 10), 3)
}
