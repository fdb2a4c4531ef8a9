package session

import (
	"context"
	"errors"
	"testing"

	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/services"
)

type fakeBackend struct {
	interview *models.InterviewConfig
	questions []models.Question
	loadErr   error

	answers  []models.AnswerRequest
	feedback []models.AnswerFeedbackRequest
	statuses []models.InterviewStatus

	failAnswer   error
	failFeedback error
}

func (f *fakeBackend) Load(context.Context, string) (*models.InterviewConfig, []models.Question, error) {
	return f.interview, f.questions, f.loadErr
}

func (f *fakeBackend) SaveAnswer(_ context.Context, req models.AnswerRequest) error {
	if f.failAnswer != nil {
		return f.failAnswer
	}
	f.answers = append(f.answers, req)
	return nil
}

func (f *fakeBackend) SaveFeedback(_ context.Context, req models.AnswerFeedbackRequest) error {
	if f.failFeedback != nil {
		return f.failFeedback
	}
	f.feedback = append(f.feedback, req)
	return nil
}

func (f *fakeBackend) SetStatus(_ context.Context, _ string, status models.InterviewStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

type fakeSpeech struct {
	results []*models.SpeechAnalysis
	err     error
	calls   int
}

func (f *fakeSpeech) Analyze(context.Context, services.AudioClip) (*models.SpeechAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := f.results[(f.calls-1)%len(f.results)]
	return r, nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		interview: &models.InterviewConfig{ID: "user_1-interview-1", UserID: "user_1", Status: models.InterviewConfigured},
		questions: []models.Question{
			{ID: 1, Text: "What is a goroutine?", Type: models.QuestionTechnical},
			{ID: 2, Text: "Tell me about a conflict.", Type: models.QuestionBehavioral},
		},
	}
}

var clip = services.AudioClip{Filename: "answer.webm", Content: []byte("audio")}

func loadedSession(t *testing.T, backend *fakeBackend, speech *fakeSpeech) *Session {
	t.Helper()
	s := New(backend, speech, nil)
	if err := s.Load(context.Background(), backend.interview.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("expected ready, got %s", s.State())
	}
	return s
}

func record(t *testing.T, s *Session) {
	t.Helper()
	if err := s.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if _, err := s.StopRecording(context.Background(), clip); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
}

func TestFullInterview(t *testing.T) {
	backend := newBackend()
	speech := &fakeSpeech{results: []*models.SpeechAnalysis{{Transcript: "my answer", Emotion: "calm", Confidence: 0.9}}}
	s := loadedSession(t, backend, speech)
	ctx := context.Background()

	record(t, s)
	if s.State() != Idle || s.Transcript() != "my answer" {
		t.Fatalf("unexpected state after recording: %s %q", s.State(), s.Transcript())
	}

	advanced, err := s.Advance(ctx)
	if err != nil || !advanced {
		t.Fatalf("Advance: %v %v", advanced, err)
	}
	if s.State() != Ready || s.Index() != 1 || s.Transcript() != "" {
		t.Fatalf("expected next question ready with cleared transcript, got %s %d %q", s.State(), s.Index(), s.Transcript())
	}

	record(t, s)
	if _, err := s.Advance(ctx); err != nil {
		t.Fatalf("Advance last: %v", err)
	}
	if s.State() != Finished {
		t.Fatalf("expected finished, got %s", s.State())
	}

	if len(backend.answers) != 2 || len(backend.feedback) != 2 {
		t.Fatalf("expected 2 answers and 2 feedback, got %d and %d", len(backend.answers), len(backend.feedback))
	}
	if backend.answers[1].QuestionID != 2 || backend.answers[1].QuestionType != models.QuestionBehavioral {
		t.Fatalf("unexpected second answer %+v", backend.answers[1])
	}
	want := []models.InterviewStatus{models.InterviewInProgress, models.InterviewCompleted}
	if len(backend.statuses) != 2 || backend.statuses[0] != want[0] || backend.statuses[1] != want[1] {
		t.Fatalf("unexpected status transitions %v", backend.statuses)
	}
}

func TestAdvanceWithoutTranscriptIsNoop(t *testing.T) {
	backend := newBackend()
	s := loadedSession(t, backend, &fakeSpeech{results: []*models.SpeechAnalysis{{Transcript: "  "}}})

	advanced, err := s.Advance(context.Background())
	if err != nil || advanced {
		t.Fatalf("expected no-op, got %v %v", advanced, err)
	}

	record(t, s)
	advanced, err = s.Advance(context.Background())
	if err != nil || advanced {
		t.Fatalf("expected no-op for blank transcript, got %v %v", advanced, err)
	}
	if s.Index() != 0 || len(backend.answers) != 0 {
		t.Fatal("nothing should be persisted without a transcript")
	}
}

func TestAnswerWithoutEmotionSkipsFeedback(t *testing.T) {
	backend := newBackend()
	s := loadedSession(t, backend, &fakeSpeech{results: []*models.SpeechAnalysis{{Transcript: "answer"}}})

	record(t, s)
	if _, err := s.Advance(context.Background()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(backend.answers) != 1 || len(backend.feedback) != 0 {
		t.Fatalf("expected answer only, got %d answers %d feedback", len(backend.answers), len(backend.feedback))
	}
}

func TestPersistenceFailureRestoresState(t *testing.T) {
	backend := newBackend()
	backend.failFeedback = errors.New("DB Error")
	s := loadedSession(t, backend, &fakeSpeech{results: []*models.SpeechAnalysis{{Transcript: "kept", Emotion: "nervous", Confidence: 0.4}}})

	record(t, s)
	advanced, err := s.Advance(context.Background())
	if err == nil || advanced {
		t.Fatalf("expected failure, got %v %v", advanced, err)
	}
	if s.State() != Idle || s.Index() != 0 || s.Transcript() != "kept" {
		t.Fatalf("expected restored idle state with transcript, got %s %d %q", s.State(), s.Index(), s.Transcript())
	}
	if len(backend.statuses) != 0 {
		t.Fatal("status must not change when persistence fails")
	}

	backend.failFeedback = nil
	if advanced, err := s.Advance(context.Background()); err != nil || !advanced {
		t.Fatalf("retry should succeed: %v %v", advanced, err)
	}
}

func TestSpeechFailureClearsAnswer(t *testing.T) {
	backend := newBackend()
	speech := &fakeSpeech{results: []*models.SpeechAnalysis{{Transcript: "first", Emotion: "calm"}}}
	s := loadedSession(t, backend, speech)

	record(t, s)
	speech.err = errors.New("emotion service down")

	if err := s.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if _, err := s.StopRecording(context.Background(), clip); err == nil {
		t.Fatal("expected speech error")
	}
	if s.State() != Idle || s.Transcript() != "" {
		t.Fatalf("expected idle with cleared transcript, got %s %q", s.State(), s.Transcript())
	}
	if emotion, _ := s.Emotion(); emotion != "" {
		t.Fatalf("emotion not cleared: %q", emotion)
	}
	if speech.calls != 2 {
		t.Fatalf("speech must not be retried, got %d calls", speech.calls)
	}
}

func TestLoadWithoutInterview(t *testing.T) {
	s := New(newBackend(), &fakeSpeech{}, nil)

	if err := s.Load(context.Background(), ""); !errors.Is(err, ErrNoInterview) {
		t.Fatalf("expected ErrNoInterview, got %v", err)
	}
	if s.State() != Cancelled {
		t.Fatalf("expected cancelled, got %s", s.State())
	}
	if err := s.StartRecording(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestLoadFailureIsRetryable(t *testing.T) {
	backend := newBackend()
	backend.loadErr = errors.New("timeout")
	s := New(backend, &fakeSpeech{}, nil)

	if err := s.Load(context.Background(), "id"); err == nil {
		t.Fatal("expected load error")
	}
	if s.State() != Loading {
		t.Fatalf("expected loading, got %s", s.State())
	}

	backend.loadErr = nil
	if err := s.Load(context.Background(), "id"); err != nil {
		t.Fatalf("retry Load: %v", err)
	}

	empty := newBackend()
	empty.questions = nil
	if err := New(empty, &fakeSpeech{}, nil).Load(context.Background(), "id"); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestCancelDiscardsAnswer(t *testing.T) {
	backend := newBackend()
	s := loadedSession(t, backend, &fakeSpeech{results: []*models.SpeechAnalysis{{Transcript: "unsaved", Emotion: "calm"}}})

	record(t, s)
	s.Cancel()

	if s.State() != Cancelled || s.Transcript() != "" {
		t.Fatalf("unexpected state after cancel: %s %q", s.State(), s.Transcript())
	}
	if _, err := s.Advance(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if len(backend.answers) != 0 {
		t.Fatal("cancel must not persist anything")
	}
}

func TestResumedInterviewDoesNotResetStatus(t *testing.T) {
	backend := newBackend()
	backend.interview.Status = models.InterviewInProgress
	s := loadedSession(t, backend, &fakeSpeech{results: []*models.SpeechAnalysis{{Transcript: "answer"}}})

	record(t, s)
	if _, err := s.Advance(context.Background()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(backend.statuses) != 0 {
		t.Fatalf("expected no status change mid-interview, got %v", backend.statuses)
	}
}

func TestInvalidTransitions(t *testing.T) {
	s := loadedSession(t, newBackend(), &fakeSpeech{results: []*models.SpeechAnalysis{{Transcript: "a"}}})

	if _, err := s.StopRecording(context.Background(), clip); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("stop without start: expected ErrInvalidState, got %v", err)
	}
	if err := s.StartRecording(); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if err := s.StartRecording(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("double start: expected ErrInvalidState, got %v", err)
	}
	if _, err := s.Advance(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("advance while recording: expected ErrInvalidState, got %v", err)
	}
	if err := s.Load(context.Background(), "again"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reload: expected ErrInvalidState, got %v", err)
	}
}
