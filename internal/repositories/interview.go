package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"alfredoptarigan/interview-coach/internal/models"
)

type InterviewRepository interface {
	CreateConfig(ctx context.Context, config *models.InterviewConfig) error
	FindConfig(ctx context.Context, id string) (*models.InterviewConfig, error)
	ListConfigs(ctx context.Context, userID string, limit int) ([]models.InterviewConfig, error)
	UpdateStatus(ctx context.Context, id string, status models.InterviewStatus) (*models.InterviewConfig, error)

	SaveQuestionSet(ctx context.Context, set *models.QuestionSet) error
	FindQuestionSet(ctx context.Context, interviewID string) (*models.QuestionSet, error)

	SaveAnswer(ctx context.Context, answer *models.AnswerRecord) error
	ListAnswers(ctx context.Context, interviewID string) ([]models.AnswerRecord, error)

	SaveAnswerFeedback(ctx context.Context, feedback *models.AnswerFeedbackRecord) error
	ListAnswerFeedback(ctx context.Context, interviewID string) ([]models.AnswerFeedbackRecord, error)

	SaveIdealAnswers(ctx context.Context, set *models.IdealAnswerSet) error
	FindIdealAnswers(ctx context.Context, interviewID string) (*models.IdealAnswerSet, error)
}

func InterviewID(userID string, createdAt time.Time) string {
	return fmt.Sprintf("%s-interview-%d", userID, createdAt.UnixMilli())
}

func QuestionSetID(interviewID string) string {
	return interviewID + "-questions"
}

// StandaloneQuestionSetID keys question sets generated outside an interview.
func StandaloneQuestionSetID(userID string, createdAt time.Time) string {
	return fmt.Sprintf("%s-questions-%d", userID, createdAt.UnixMilli())
}

func answerPrefix(interviewID string) string {
	return interviewID + "-answer-"
}

func AnswerID(interviewID string, questionID int) string {
	return fmt.Sprintf("%s%d", answerPrefix(interviewID), questionID)
}

func feedbackPrefix(interviewID string) string {
	return interviewID + "-feedback-"
}

func AnswerFeedbackID(interviewID string, questionID int) string {
	return fmt.Sprintf("%s%d", feedbackPrefix(interviewID), questionID)
}

func IdealAnswersID(interviewID string) string {
	return interviewID + "-ideal-answers"
}

type interviewRepository struct {
	store RecordStore
	now   func() time.Time
}

func NewInterviewRepository(store RecordStore) InterviewRepository {
	return &interviewRepository{store: store, now: time.Now}
}

func (r *interviewRepository) stamp(t *time.Time) {
	if t.IsZero() {
		*t = r.now().UTC()
	}
}

// CreateConfig implements InterviewRepository.
func (r *interviewRepository) CreateConfig(ctx context.Context, config *models.InterviewConfig) error {
	if config.UserID == "" {
		return fmt.Errorf("interview user id is required")
	}
	r.stamp(&config.CreatedAt)
	if config.UpdatedAt.IsZero() {
		config.UpdatedAt = config.CreatedAt
	}
	if config.ID == "" {
		config.ID = InterviewID(config.UserID, config.CreatedAt)
	}
	if config.Status == "" {
		config.Status = models.InterviewConfigured
	}

	return putTyped(ctx, r.store, config.ID, config.UserID, models.KindInterviewConfig, config.CreatedAt, config)
}

// FindConfig implements InterviewRepository.
func (r *interviewRepository) FindConfig(ctx context.Context, id string) (*models.InterviewConfig, error) {
	return getTyped[models.InterviewConfig](ctx, r.store, id, models.KindInterviewConfig)
}

// ListConfigs implements InterviewRepository.
func (r *interviewRepository) ListConfigs(ctx context.Context, userID string, limit int) ([]models.InterviewConfig, error) {
	records, err := r.store.QueryByUser(ctx, userID, models.KindInterviewConfig, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	return decodeAll[models.InterviewConfig](records)
}

// UpdateStatus implements InterviewRepository.
func (r *interviewRepository) UpdateStatus(ctx context.Context, id string, status models.InterviewStatus) (*models.InterviewConfig, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid interview status %q", status)
	}

	config, err := r.FindConfig(ctx, id)
	if err != nil {
		return nil, err
	}

	config.Status = status
	config.UpdatedAt = r.now().UTC()

	if err := putTyped(ctx, r.store, config.ID, config.UserID, models.KindInterviewConfig, config.CreatedAt, config); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveQuestionSet implements InterviewRepository.
func (r *interviewRepository) SaveQuestionSet(ctx context.Context, set *models.QuestionSet) error {
	r.stamp(&set.CreatedAt)
	if set.ID == "" {
		if set.InterviewID != "" {
			set.ID = QuestionSetID(set.InterviewID)
		} else {
			set.ID = StandaloneQuestionSetID(set.UserID, set.CreatedAt)
		}
	}

	return putTyped(ctx, r.store, set.ID, set.UserID, models.KindQuestionSet, set.CreatedAt, set)
}

// FindQuestionSet implements InterviewRepository.
func (r *interviewRepository) FindQuestionSet(ctx context.Context, interviewID string) (*models.QuestionSet, error) {
	return getTyped[models.QuestionSet](ctx, r.store, QuestionSetID(interviewID), models.KindQuestionSet)
}

// SaveAnswer implements InterviewRepository. One record per question; a
// repeated submission replaces the earlier one.
func (r *interviewRepository) SaveAnswer(ctx context.Context, answer *models.AnswerRecord) error {
	r.stamp(&answer.CreatedAt)
	answer.ID = AnswerID(answer.InterviewID, answer.QuestionID)

	return putTyped(ctx, r.store, answer.ID, answer.UserID, models.KindAnswer, answer.CreatedAt, answer)
}

// ListAnswers implements InterviewRepository. Ordered by question id.
func (r *interviewRepository) ListAnswers(ctx context.Context, interviewID string) ([]models.AnswerRecord, error) {
	records, err := r.store.QueryByPrefix(ctx, answerPrefix(interviewID), models.KindAnswer, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	answers, err := decodeAll[models.AnswerRecord](records)
	if err != nil {
		return nil, err
	}

	sort.Slice(answers, func(i, j int) bool { return answers[i].QuestionID < answers[j].QuestionID })
	return answers, nil
}

// SaveAnswerFeedback implements InterviewRepository.
func (r *interviewRepository) SaveAnswerFeedback(ctx context.Context, feedback *models.AnswerFeedbackRecord) error {
	r.stamp(&feedback.CreatedAt)
	feedback.ID = AnswerFeedbackID(feedback.InterviewID, feedback.QuestionID)

	return putTyped(ctx, r.store, feedback.ID, feedback.UserID, models.KindAnswerFeedback, feedback.CreatedAt, feedback)
}

// ListAnswerFeedback implements InterviewRepository. Ordered by question id.
func (r *interviewRepository) ListAnswerFeedback(ctx context.Context, interviewID string) ([]models.AnswerFeedbackRecord, error) {
	records, err := r.store.QueryByPrefix(ctx, feedbackPrefix(interviewID), models.KindAnswerFeedback, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list answer feedback: %w", err)
	}

	feedback, err := decodeAll[models.AnswerFeedbackRecord](records)
	if err != nil {
		return nil, err
	}

	sort.Slice(feedback, func(i, j int) bool { return feedback[i].QuestionID < feedback[j].QuestionID })
	return feedback, nil
}

// SaveIdealAnswers implements InterviewRepository.
func (r *interviewRepository) SaveIdealAnswers(ctx context.Context, set *models.IdealAnswerSet) error {
	r.stamp(&set.CreatedAt)
	set.ID = IdealAnswersID(set.InterviewID)

	return putTyped(ctx, r.store, set.ID, set.UserID, models.KindIdealAnswers, set.CreatedAt, set)
}

// FindIdealAnswers implements InterviewRepository.
func (r *interviewRepository) FindIdealAnswers(ctx context.Context, interviewID string) (*models.IdealAnswerSet, error) {
	return getTyped[models.IdealAnswerSet](ctx, r.store, IdealAnswersID(interviewID), models.KindIdealAnswers)
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
