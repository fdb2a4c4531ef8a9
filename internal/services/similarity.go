package services

import (
	"context"
	"fmt"
	"math"
	"strings"
)

type SimilarityScorer interface {
	Score(ctx context.Context, textA, textB string) (float64, error)
}

type similarityScorer struct {
	embedder Embedder
}

func NewSimilarityScorer(embedder Embedder) SimilarityScorer {
	return &similarityScorer{embedder: embedder}
}

// Score implements SimilarityScorer: the dot product of the two normalized
// embeddings, in [-1, 1].
func (s *similarityScorer) Score(ctx context.Context, textA, textB string) (float64, error) {
	if strings.TrimSpace(textA) == "" || strings.TrimSpace(textB) == "" {
		return 0, invalidInput("Both texts are required for similarity scoring")
	}

	vectors, err := s.embedder.Embed(ctx, []string{textA, textB})
	if err != nil {
		return 0, upstream("Error processing request", err)
	}
	if len(vectors) != 2 {
		return 0, upstream("Error processing request", fmt.Errorf("expected 2 embeddings, got %d", len(vectors)))
	}

	return Cosine(vectors[0], vectors[1])
}

// Cosine normalizes both vectors and returns their dot product.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, upstream("Error processing request", fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, upstream("Error processing request", fmt.Errorf("zero-length embedding"))
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, score)), nil
}
