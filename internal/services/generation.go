package services

import (
	"context"
	"iter"
	"strings"

	"google.golang.org/genai"
)

// TextGenerator produces text for a system instruction and one user message
// as a lazy sequence of chunks. Buffered callers use Collect.
type TextGenerator interface {
	Stream(ctx context.Context, system, message string) iter.Seq2[string, error]
}

// StructuredGenerator asks the model for a JSON document matching schema.
type StructuredGenerator interface {
	GenerateJSON(ctx context.Context, system, message string, schema *genai.Schema) (string, error)
}

// Embedder returns one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Collect concatenates every chunk of the sequence.
func Collect(chunks iter.Seq2[string, error]) (string, error) {
	var sb strings.Builder
	for chunk, err := range chunks {
		if err != nil {
			return "", err
		}
		sb.WriteString(chunk)
	}
	return sb.String(), nil
}
