package services

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"

	"google.golang.org/genai"

	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/repositories"
)

type generatorCall struct {
	System  string
	Message string
}

// fakeGenerator replays scripted chunks. When err is set it is yielded after
// the chunks.
type fakeGenerator struct {
	mu     sync.Mutex
	chunks []string
	err    error
	calls  []generatorCall
}

func (f *fakeGenerator) Stream(_ context.Context, system, message string) iter.Seq2[string, error] {
	f.mu.Lock()
	f.calls = append(f.calls, generatorCall{System: system, Message: message})
	chunks, err := f.chunks, f.err
	f.mu.Unlock()

	return func(yield func(string, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStructured struct {
	raw   string
	err   error
	calls int
}

func (f *fakeStructured) GenerateJSON(_ context.Context, _, _ string, _ *genai.Schema) (string, error) {
	f.calls++
	return f.raw, f.err
}

// fakeEmbedder maps known texts to vectors; unknown texts get fallback.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
	calls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
			continue
		}
		if f.fallback == nil {
			return nil, errors.New("no vector for text")
		}
		out[i] = f.fallback
	}
	return out, nil
}

type fakeSimilarity struct {
	score float64
	err   error
}

func (f *fakeSimilarity) Score(context.Context, string, string) (float64, error) {
	return f.score, f.err
}

func openTestStore(t *testing.T) repositories.RecordStore {
	t.Helper()

	store, err := repositories.OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// failingStore rejects every write.
type failingStore struct {
	repositories.RecordStore
}

func (failingStore) PutRecord(context.Context, *models.Record) error {
	return errors.New("disk full")
}
