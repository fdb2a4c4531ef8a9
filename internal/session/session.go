// Package session drives one spoken mock interview: load the questions,
// record an answer per question, and persist answers and coaching as the
// candidate advances. A Session is owned by a single goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/services"
)

type State int

const (
	Loading State = iota
	Ready
	Recording
	Idle
	Advancing
	Finished
	Cancelled
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Recording:
		return "recording"
	case Idle:
		return "idle"
	case Advancing:
		return "advancing"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrNoInterview  = errors.New("no interview selected")
	ErrNoQuestions  = errors.New("interview has no questions")
	ErrInvalidState = errors.New("operation not allowed in current state")
)

// Backend persists session progress for one user.
type Backend interface {
	Load(ctx context.Context, interviewID string) (*models.InterviewConfig, []models.Question, error)
	SaveAnswer(ctx context.Context, req models.AnswerRequest) error
	SaveFeedback(ctx context.Context, req models.AnswerFeedbackRequest) error
	SetStatus(ctx context.Context, interviewID string, status models.InterviewStatus) error
}

type Session struct {
	backend Backend
	speech  services.SpeechAnalyzer
	logger  *zap.Logger

	state     State
	interview *models.InterviewConfig
	questions []models.Question
	index     int
	started   bool

	transcript string
	emotion    string
	confidence float64
}

func New(backend Backend, speech services.SpeechAnalyzer, log *zap.Logger) *Session {
	return &Session{
		backend: backend,
		speech:  speech,
		logger:  logger.OrNop(log),
		state:   Loading,
	}
}

func (s *Session) expect(allowed ...State) error {
	for _, st := range allowed {
		if s.state == st {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidState, s.state)
}

// Load fetches the interview and its questions. An empty id ends the
// session; other failures leave it in Loading so the caller may retry.
func (s *Session) Load(ctx context.Context, interviewID string) error {
	if err := s.expect(Loading); err != nil {
		return err
	}

	if strings.TrimSpace(interviewID) == "" {
		s.state = Cancelled
		return ErrNoInterview
	}

	interview, questions, err := s.backend.Load(ctx, interviewID)
	if err != nil {
		return fmt.Errorf("failed to load interview: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	s.interview = interview
	s.questions = questions
	s.index = 0
	s.started = interview.Status != models.InterviewConfigured
	s.state = Ready

	s.logger.Info("🎙️ Interview session ready",
		zap.String(logger.FieldInterviewID, interview.ID),
		zap.Int("questions", len(questions)),
	)
	return nil
}

func (s *Session) StartRecording() error {
	if err := s.expect(Ready, Idle); err != nil {
		return err
	}
	s.state = Recording
	return nil
}

// StopRecording submits the clip for transcription and emotion detection.
// On failure the previous transcript is discarded and nothing is retried.
func (s *Session) StopRecording(ctx context.Context, clip services.AudioClip) (*models.SpeechAnalysis, error) {
	if err := s.expect(Recording); err != nil {
		return nil, err
	}
	s.state = Idle

	analysis, err := s.speech.Analyze(ctx, clip)
	if err != nil {
		s.clearAnswer()
		s.logger.Warn("⚠️ Speech analysis failed",
			zap.String(logger.FieldInterviewID, s.interview.ID),
			zap.Int("question_id", s.questions[s.index].ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.transcript = analysis.Transcript
	s.emotion = analysis.Emotion
	s.confidence = analysis.Confidence
	return analysis, nil
}

// Advance saves the current answer, and its coaching when an emotion was
// detected, then moves to the next question or finishes. It returns false
// without doing anything when there is no transcript. On a persistence
// failure the session returns to its previous state with the answer kept.
func (s *Session) Advance(ctx context.Context) (bool, error) {
	if err := s.expect(Ready, Idle); err != nil {
		return false, err
	}
	if strings.TrimSpace(s.transcript) == "" {
		return false, nil
	}

	prev := s.state
	s.state = Advancing

	if err := s.persistCurrent(ctx); err != nil {
		s.state = prev
		return false, err
	}
	s.started = true

	if s.index == len(s.questions)-1 {
		s.state = Finished
		s.logger.Info("🏁 Interview finished", zap.String(logger.FieldInterviewID, s.interview.ID))
		return true, nil
	}

	s.index++
	s.clearAnswer()
	s.state = Ready
	return true, nil
}

func (s *Session) persistCurrent(ctx context.Context) error {
	q := s.questions[s.index]
	answer := models.AnswerRequest{
		InterviewID:  s.interview.ID,
		QuestionID:   q.ID,
		QuestionText: q.Text,
		Answer:       s.transcript,
		QuestionType: q.Type,
	}

	if err := s.backend.SaveAnswer(ctx, answer); err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	if s.emotion != "" {
		err := s.backend.SaveFeedback(ctx, models.AnswerFeedbackRequest{
			AnswerRequest:     answer,
			Emotion:           s.emotion,
			EmotionConfidence: s.confidence,
		})
		if err != nil {
			return fmt.Errorf("failed to save feedback: %w", err)
		}
	}

	status := models.InterviewInProgress
	if s.index == len(s.questions)-1 {
		status = models.InterviewCompleted
	} else if s.started {
		return nil
	}

	if err := s.backend.SetStatus(ctx, s.interview.ID, status); err != nil {
		return fmt.Errorf("failed to update interview status: %w", err)
	}
	return nil
}

// Cancel ends the session. The unsaved answer is discarded.
func (s *Session) Cancel() {
	if s.state == Finished {
		return
	}
	s.clearAnswer()
	s.state = Cancelled
}

func (s *Session) clearAnswer() {
	s.transcript = ""
	s.emotion = ""
	s.confidence = 0
}

func (s *Session) State() State { return s.state }

func (s *Session) Interview() *models.InterviewConfig { return s.interview }

func (s *Session) Questions() []models.Question { return s.questions }

// Index is the zero-based position of the current question.
func (s *Session) Index() int { return s.index }

// Current returns the question being answered, if any.
func (s *Session) Current() (models.Question, bool) {
	if len(s.questions) == 0 {
		return models.Question{}, false
	}
	return s.questions[s.index], true
}

func (s *Session) Transcript() string { return s.transcript }

func (s *Session) Emotion() (string, float64) { return s.emotion, s.confidence }
