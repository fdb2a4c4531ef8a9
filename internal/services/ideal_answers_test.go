package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"alfredoptarigan/interview-coach/internal/models"
)

const fourAnswers = `Answer 1: I would use a token bucket.
Answer 2: I would run EXPLAIN ANALYZE first.
Answer 3: In my last role I raised the disagreement early.
Answer 4: I led the billing rewrite at Acme.`

type fakeIndex struct {
	upserted []IndexedAnswer
	score    float64
	found    bool
	err      error
	queries  int
}

func (f *fakeIndex) InitCollection(context.Context) error { return nil }

func (f *fakeIndex) Upsert(_ context.Context, answers []IndexedAnswer) error {
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, answers...)
	return nil
}

func (f *fakeIndex) Similarity(context.Context, string, string, int, []float32) (float64, bool, error) {
	f.queries++
	return f.score, f.found, f.err
}

func newIdealFixture(t *testing.T, index AnswerIndex) (*interviewFixture, *fakeGenerator, *fakeEmbedder, IdealAnswerService) {
	t.Helper()

	f := newInterviewFixture(t)
	generator := &fakeGenerator{chunks: []string{fourAnswers}}
	embedder := &fakeEmbedder{fallback: []float32{1, 0}, vectors: map[string][]float32{
		"I used a sliding window": {0, 1},
	}}
	svc := NewIdealAnswerService(generator, embedder, index, f.svc, f.repo, f.analyses, nil)
	return f, generator, embedder, svc
}

func TestIdealAnswersGenerateAndIndex(t *testing.T) {
	index := &fakeIndex{}
	f, generator, _, svc := newIdealFixture(t, index)
	ctx := context.Background()

	set, err := svc.Generate(ctx, testUser, f.interview.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(set.Answers) != 4 || set.Answers[3].QuestionID != 4 {
		t.Fatalf("unexpected answers %+v", set.Answers)
	}
	if !strings.Contains(generator.calls[0].System, "STAR") {
		t.Fatal("system instruction should ask for STAR answers")
	}
	if !strings.Contains(generator.calls[0].Message, "Question 3 (behavioral)") {
		t.Fatalf("questions not passed to the generator: %s", generator.calls[0].Message)
	}
	if len(index.upserted) != 4 || index.upserted[0].InterviewID != f.interview.ID {
		t.Fatalf("unexpected indexed answers %+v", index.upserted)
	}

	again, err := svc.Generate(ctx, testUser, f.interview.ID)
	if err != nil {
		t.Fatalf("Generate again: %v", err)
	}
	if generator.callCount() != 1 || again.RawText != set.RawText {
		t.Fatal("expected stored ideal answers to be reused")
	}
}

func TestIdealAnswersIndexFailureIsSoft(t *testing.T) {
	f, _, _, svc := newIdealFixture(t, &fakeIndex{err: errors.New("qdrant down")})

	if _, err := svc.Generate(context.Background(), testUser, f.interview.ID); err != nil {
		t.Fatalf("Generate should survive index failure: %v", err)
	}
}

func TestCompareExplicitIdealAnswer(t *testing.T) {
	_, _, _, svc := newIdealFixture(t, nil)

	score, err := svc.Compare(context.Background(), testUser, models.AnswerComparisonRequest{
		Answer:      "I used a sliding window",
		IdealAnswer: "I would use a token bucket.",
	})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if math.Abs(score) > 1e-9 {
		t.Fatalf("expected orthogonal score 0, got %f", score)
	}
}

func TestCompareUsesIndexWhenFound(t *testing.T) {
	index := &fakeIndex{score: 0.42, found: true}
	f, _, _, svc := newIdealFixture(t, index)

	score, err := svc.Compare(context.Background(), testUser, models.AnswerComparisonRequest{
		Answer:      "anything",
		InterviewID: f.interview.ID,
		QuestionID:  1,
	})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if score != 0.42 || index.queries != 1 {
		t.Fatalf("expected indexed score, got %f after %d queries", score, index.queries)
	}
}

func TestCompareFallsBackToStoredAnswers(t *testing.T) {
	f, _, _, svc := newIdealFixture(t, nil)
	ctx := context.Background()

	if _, err := svc.Generate(ctx, testUser, f.interview.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	score, err := svc.Compare(ctx, testUser, models.AnswerComparisonRequest{
		Answer:      "same direction",
		InterviewID: f.interview.ID,
		QuestionID:  2,
	})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if math.Abs(score-1) > 1e-9 {
		t.Fatalf("expected score 1, got %f", score)
	}

	_, err = svc.Compare(ctx, models.User{ID: "intruder"}, models.AnswerComparisonRequest{
		Answer:      "x",
		InterviewID: f.interview.ID,
		QuestionID:  2,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another user, got %v", err)
	}
}

func TestCompareValidation(t *testing.T) {
	_, _, _, svc := newIdealFixture(t, nil)

	if _, err := svc.Compare(context.Background(), testUser, models.AnswerComparisonRequest{IdealAnswer: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing answer, got %v", err)
	}
	if _, err := svc.Compare(context.Background(), testUser, models.AnswerComparisonRequest{Answer: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing target, got %v", err)
	}
}

func TestReindexStoredAnswers(t *testing.T) {
	f, _, _, svc := newIdealFixture(t, nil)
	ctx := context.Background()
	if _, err := svc.Generate(ctx, testUser, f.interview.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := svc.Reindex(ctx, testUser); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without an index, got %v", err)
	}

	index := &fakeIndex{}
	reindexer := NewIdealAnswerService(&fakeGenerator{}, &fakeEmbedder{fallback: []float32{1, 0}}, index, f.svc, f.repo, f.analyses, nil)
	n, err := reindexer.Reindex(ctx, testUser)
	if err != nil {
		t.Fatalf("Reindex: %v", err)
	}
	if n != 1 || len(index.upserted) != 4 {
		t.Fatalf("expected one set of four answers, got %d sets and %d answers", n, len(index.upserted))
	}
}
