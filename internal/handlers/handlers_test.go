package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/repositories"
	"alfredoptarigan/interview-coach/internal/services"
)

// fakeGenerator replays chunks, then yields err when set.
type fakeGenerator struct {
	chunks []string
	err    error
	calls  atomic.Int32
}

func (f *fakeGenerator) Stream(context.Context, string, string) iter.Seq2[string, error] {
	f.calls.Add(1)
	chunks, err := f.chunks, f.err
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

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 1}
	}
	return out, nil
}

type fakeParser struct{}

func (fakeParser) ExtractText([]byte) (*services.PDFContent, error) {
	return &services.PDFContent{Text: "Jane Doe\nGo Engineer", PageCount: 1}, nil
}

// toggleStore fails writes once failWrites is set.
type toggleStore struct {
	repositories.RecordStore
	failWrites atomic.Bool
}

func (s *toggleStore) PutRecord(ctx context.Context, record *models.Record) error {
	if s.failWrites.Load() {
		return errors.New("connection refused")
	}
	return s.RecordStore.PutRecord(ctx, record)
}

type testEnv struct {
	app       *fiber.App
	store     *toggleStore
	feedback  *fakeGenerator
	questions *fakeGenerator
}

func newTestEnv(t *testing.T, speechURL string) *testEnv {
	t.Helper()

	sqlite, err := repositories.OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	env := &testEnv{
		store:     &toggleStore{RecordStore: sqlite},
		feedback:  &fakeGenerator{chunks: []string{"Match Score: 81/100\n", "## Resume Analysis\nSolid."}},
		questions: &fakeGenerator{chunks: []string{"Question 1: Explain interfaces in Go.\nQuestion 2: Tell me about a deadline you missed."}},
	}

	analyses := repositories.NewAnalysisRepository(env.store)
	interviews := repositories.NewInterviewRepository(env.store)

	feedbackSvc := services.NewFeedbackService(env.feedback, services.NewSimilarityScorer(fakeEmbedder{}), analyses, nil)
	analyticsSvc, err := services.NewAnalyticsService(analyses, services.MissingExclude, 50, nil)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	questionSvc := services.NewQuestionService(env.questions, analyses, interviews, nil)
	coach := services.NewAnswerCoach(&fakeGenerator{chunks: []string{"## Overall Score: 6/10"}}, nil, nil)
	interviewSvc := services.NewInterviewService(interviews, analyses, questionSvc, coach, nil)
	idealSvc := services.NewIdealAnswerService(&fakeGenerator{chunks: []string{"Answer 1: A.\nAnswer 2: B."}},
		fakeEmbedder{}, nil, interviewSvc, interviews, analyses, nil)

	objects, err := services.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	resumeSvc := services.NewResumeService(objects, fakeParser{}, 1<<20, nil)

	env.app = fiber.New()
	Register(env.app.Group("/api/v1"), Handlers{
		Auth:      NewGatewayAuthenticator("secret"),
		Feedback:  NewFeedbackHandler(feedbackSvc, analyticsSvc, nil),
		Question:  NewQuestionHandler(questionSvc, idealSvc, nil),
		Interview: NewInterviewHandler(interviewSvc, nil),
		Result:    NewResultHandler(interviewSvc, nil),
		Upload:    NewUploadHandler(resumeSvc, services.NewSpeechClient(speechURL, 0, nil), 1<<20, nil),
	})
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request, user string) (int, []byte) {
	t.Helper()

	req.Header.Set(HeaderGatewayToken, "secret")
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, body
}

func jsonRequest(method, path string, payload any) *http.Request {
	data, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func (e *testEnv) analyze(t *testing.T, user string) {
	t.Helper()
	code, body := e.do(t, jsonRequest(http.MethodPost, "/api/v1/feedback", models.FeedbackRequest{
		Resume:         "Go engineer",
		JobDescription: "Go backend role",
		JobTitle:       "Backend Engineer",
		CompanyName:    "Acme",
	}), user)
	if code != http.StatusOK {
		t.Fatalf("feedback: %d %s", code, body)
	}
}

func TestHealthNeedsNoUser(t *testing.T) {
	env := newTestEnv(t, "")

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestUnauthorizedBeforeWork(t *testing.T) {
	env := newTestEnv(t, "")

	code, _ := env.do(t, jsonRequest(http.MethodPost, "/api/v1/feedback", models.FeedbackRequest{Resume: "r", JobDescription: "j"}), "")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if env.feedback.calls.Load() != 0 {
		t.Fatal("generator called for an unauthenticated request")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/interviews", nil)
	req.Header.Set(HeaderUserID, "user_1")
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("interviews: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without gateway token, got %d", resp.StatusCode)
	}
}

func TestFeedbackBufferedAndStreamed(t *testing.T) {
	env := newTestEnv(t, "")
	payload := models.FeedbackRequest{Resume: "Go engineer", JobDescription: "Go backend role"}

	code, buffered := env.do(t, jsonRequest(http.MethodPost, "/api/v1/feedback", payload), "user_1")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, buffered)
	}

	code, streamed := env.do(t, jsonRequest(http.MethodPost, "/api/v1/feedback?stream=true", payload), "user_2")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", code, streamed)
	}

	if string(buffered) != string(streamed) || !strings.HasPrefix(string(buffered), "Match Score: 81/100") {
		t.Fatalf("buffered %q and streamed %q differ", buffered, streamed)
	}

	for _, user := range []string{"user_1", "user_2"} {
		_, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/feedback-history", nil), user)
		history := decode[[]models.AnalysisSummary](t, body)
		if len(history) != 1 || history[0].JobTitle != "Untitled Position" {
			t.Fatalf("unexpected history for %s: %s", user, body)
		}
		if history[0].MatchScore == nil || *history[0].MatchScore != 81 {
			t.Fatalf("unexpected match score for %s: %s", user, body)
		}
	}
}

func TestFeedbackGenerationFailureIsServerError(t *testing.T) {
	env := newTestEnv(t, "")
	env.feedback.chunks = nil
	env.feedback.err = errors.New("quota exceeded")
	payload := models.FeedbackRequest{Resume: "Go engineer", JobDescription: "Go backend role"}

	for _, path := range []string{"/api/v1/feedback", "/api/v1/feedback?stream=true"} {
		code, body := env.do(t, jsonRequest(http.MethodPost, path, payload), "user_1")
		if code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d: %s", path, code, body)
		}
		if got := decode[map[string]string](t, body); got["error"] != "Error generating feedback" {
			t.Fatalf("%s: unexpected error body %s", path, body)
		}
	}

	_, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/feedback-history", nil), "user_1")
	if history := decode[[]models.AnalysisSummary](t, body); len(history) != 0 {
		t.Fatalf("expected no history after failed generation, got %s", body)
	}
}

func TestQuestionsRejectCountsOverLimit(t *testing.T) {
	env := newTestEnv(t, "")
	env.analyze(t, "user_1")

	code, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/questions?technicalCount=30", nil), "user_1")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", code, body)
	}
	if env.questions.calls.Load() != 0 {
		t.Fatal("generator called for rejected counts")
	}
}

func TestFeedbackValidation(t *testing.T) {
	env := newTestEnv(t, "")

	code, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/feedback", models.FeedbackRequest{Resume: "only resume"}), "user_1")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", code, body)
	}
}

func TestQuestionsWithoutAnalysis(t *testing.T) {
	env := newTestEnv(t, "")

	code, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/questions?technicalCount=2&behavioralCount=x", nil), "user_1")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	got := decode[map[string]string](t, body)
	if got["error"] != "No job description found. Please analyze a resume first." {
		t.Fatalf("unexpected error body %s", body)
	}
}

func TestQuestionsAfterAnalysis(t *testing.T) {
	env := newTestEnv(t, "")
	env.analyze(t, "user_1")

	code, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/questions?technicalCount=1&behavioralCount=1", nil), "user_1")
	if code != http.StatusOK || !strings.Contains(string(body), "Question 1:") {
		t.Fatalf("unexpected questions response %d: %s", code, body)
	}
}

func TestInterviewFlow(t *testing.T) {
	env := newTestEnv(t, "")
	env.analyze(t, "user_1")

	_, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/feedback-history", nil), "user_1")
	jobID := decode[[]models.AnalysisSummary](t, body)[0].ID

	code, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/interview-config", map[string]any{
		"jobId":          jobID,
		"technicalCount": 1,
	}), "user_1")
	if code != http.StatusOK {
		t.Fatalf("interview-config: %d %s", code, body)
	}
	created := decode[struct {
		Success     bool   `json:"success"`
		InterviewID string `json:"interviewId"`
	}](t, body)
	if !created.Success || created.InterviewID == "" {
		t.Fatalf("unexpected create response %s", body)
	}

	code, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/interview-questions?interviewId="+created.InterviewID, nil), "user_1")
	if code != http.StatusOK {
		t.Fatalf("interview-questions: %d %s", code, body)
	}
	loaded := decode[models.InterviewQuestionsResponse](t, body)
	if len(loaded.Questions) != 2 || loaded.InterviewConfig.BehavioralCount != 1 {
		t.Fatalf("expected default behavioral count and 2 questions, got %s", body)
	}

	code, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/interview-questions?interviewId="+created.InterviewID, nil), "user_2")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user, got %d", code)
	}

	code, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/interview-answer", models.AnswerRequest{
		InterviewID: created.InterviewID,
		QuestionID:  1,
		Answer:      "Interfaces are satisfied implicitly.",
	}), "user_1")
	if code != http.StatusOK {
		t.Fatalf("interview-answer: %d %s", code, body)
	}

	code, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/interview-feedback", models.AnswerFeedbackRequest{
		AnswerRequest:     models.AnswerRequest{InterviewID: created.InterviewID, QuestionID: 1, Answer: "Interfaces are satisfied implicitly."},
		Emotion:           "calm",
		EmotionConfidence: 0.9,
	}), "user_1")
	if code != http.StatusOK || !strings.Contains(string(body), "Overall Score: 6/10") {
		t.Fatalf("interview-feedback: %d %s", code, body)
	}

	code, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/interview-status", models.InterviewStatusRequest{
		InterviewID: created.InterviewID,
		Status:      models.InterviewCompleted,
	}), "user_1")
	if code != http.StatusOK {
		t.Fatalf("interview-status: %d %s", code, body)
	}

	code, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/interview-results?interviewId="+created.InterviewID, nil), "user_1")
	if code != http.StatusOK {
		t.Fatalf("interview-results: %d %s", code, body)
	}
	results := decode[models.InterviewResultsResponse](t, body)
	if results.InterviewConfig.Status != models.InterviewCompleted || len(results.Answers) != 1 || len(results.Feedback) != 1 {
		t.Fatalf("unexpected results %s", body)
	}

	code, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/ideal-answers?interviewId="+created.InterviewID, nil), "user_1")
	if code != http.StatusOK || !strings.HasPrefix(string(body), "Answer 1:") {
		t.Fatalf("ideal-answers: %d %s", code, body)
	}

	code, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/answer-comparison", models.AnswerComparisonRequest{
		Answer:      "mine",
		InterviewID: created.InterviewID,
		QuestionID:  2,
	}), "user_1")
	if code != http.StatusOK {
		t.Fatalf("answer-comparison: %d %s", code, body)
	}
	similarity := decode[map[string]float64](t, body)["similarity"]
	if similarity < 0.999 {
		t.Fatalf("expected similarity 1, got %f", similarity)
	}

	code, body = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/interviews", nil), "user_1")
	if code != http.StatusOK || len(decode[[]models.InterviewConfig](t, body)) != 1 {
		t.Fatalf("interviews: %d %s", code, body)
	}
}

func TestWriteEndpointsReportDBError(t *testing.T) {
	env := newTestEnv(t, "")
	env.analyze(t, "user_1")

	_, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/feedback-history", nil), "user_1")
	jobID := decode[[]models.AnalysisSummary](t, body)[0].ID

	env.store.failWrites.Store(true)
	code, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/interview-config", models.InterviewConfigRequest{
		JobID:           jobID,
		TechnicalCount:  1,
		BehavioralCount: 1,
	}), "user_1")
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}

	got := decode[map[string]any](t, body)
	if got["success"] != false || got["error"] != "DB Error" {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	env.analyze(t, "user_1")

	code, body := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil), "user_1")
	if code != http.StatusOK {
		t.Fatalf("analytics: %d %s", code, body)
	}

	analytics := decode[models.Analytics](t, body)
	if analytics.Count != 1 || analytics.AverageMatchScore == nil || *analytics.AverageMatchScore != 81 {
		t.Fatalf("unexpected analytics %s", body)
	}
}

func multipartRequest(t *testing.T, path, field, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadResume(t *testing.T) {
	env := newTestEnv(t, "")

	code, body := env.do(t, multipartRequest(t, "/api/v1/upload-resume", "file", "cv.pdf", []byte("%PDF-1.4")), "user_1")
	if code != http.StatusCreated {
		t.Fatalf("upload: %d %s", code, body)
	}
	resp := decode[models.UploadResponse](t, body)
	if resp.Text != "Jane Doe\nGo Engineer" || !strings.HasPrefix(resp.Key, "resumes/user_1/") {
		t.Fatalf("unexpected upload response %s", body)
	}

	code, _ = env.do(t, multipartRequest(t, "/api/v1/upload-resume", "file", "cv.txt", []byte("text")), "user_1")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-PDF, got %d", code)
	}
}

func TestSpeechToText(t *testing.T) {
	speech := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("audio"); err != nil {
			http.Error(w, "missing audio", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"transcript":"hello there","emotion":"happy"}`)
	}))
	defer speech.Close()

	env := newTestEnv(t, speech.URL)

	code, body := env.do(t, multipartRequest(t, "/api/v1/speech-to-text", "audio", "answer.webm", []byte("audio")), "user_1")
	if code != http.StatusOK {
		t.Fatalf("speech-to-text: %d %s", code, body)
	}
	got := decode[models.SpeechAnalysis](t, body)
	if got.Transcript != "hello there" || got.Emotion != "happy" || got.Confidence != 0.95 {
		t.Fatalf("unexpected analysis %s", body)
	}

	code, _ = env.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/speech-to-text", nil), "user_1")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 without audio, got %d", code)
	}
}
