package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/repositories"
)

const msgInterviewNotFound = "Interview not found"

type InterviewService interface {
	CreateConfig(ctx context.Context, user models.User, req models.InterviewConfigRequest) (*models.InterviewConfig, error)
	ListInterviews(ctx context.Context, userID string) ([]models.InterviewConfig, error)
	// LoadInterview returns the interview and its questions, generating the
	// question set on first access.
	LoadInterview(ctx context.Context, user models.User, interviewID string) (*models.InterviewConfig, []models.Question, error)
	UpdateStatus(ctx context.Context, user models.User, interviewID string, status models.InterviewStatus) (*models.InterviewConfig, error)
	SaveAnswer(ctx context.Context, user models.User, req models.AnswerRequest) (*models.AnswerRecord, error)
	SubmitFeedback(ctx context.Context, user models.User, req models.AnswerFeedbackRequest) (*models.AnswerFeedbackRecord, error)
	Results(ctx context.Context, user models.User, interviewID string) (*models.InterviewResultsResponse, error)
}

type interviewService struct {
	interviews repositories.InterviewRepository
	analyses   repositories.AnalysisRepository
	questions  QuestionService
	coach      AnswerCoach
	logger     *zap.Logger
}

func NewInterviewService(
	interviews repositories.InterviewRepository,
	analyses repositories.AnalysisRepository,
	questions QuestionService,
	coach AnswerCoach,
	log *zap.Logger,
) InterviewService {
	return &interviewService{
		interviews: interviews,
		analyses:   analyses,
		questions:  questions,
		coach:      coach,
		logger:     logger.OrNop(log),
	}
}

func (s *interviewService) CreateConfig(ctx context.Context, user models.User, req models.InterviewConfigRequest) (*models.InterviewConfig, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return nil, invalidInput("Job ID is required")
	}
	technical, behavioral, err := NormalizeCounts(req.TechnicalCount, req.BehavioralCount)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analyses.FindByID(ctx, req.JobID)
	if err != nil && !repositories.IsNotFound(err) {
		return nil, persistence("DB Error", err)
	}
	if err != nil || analysis.UserID != user.ID {
		return nil, notFound("Job not found", err)
	}

	title := strings.TrimSpace(req.JobTitle)
	if title == "" {
		title = analysis.JobTitle
	}
	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		company = analysis.CompanyName
	}

	config := &models.InterviewConfig{
		UserID:          user.ID,
		JobID:           analysis.ID,
		JobTitle:        title,
		CompanyName:     company,
		TechnicalCount:  technical,
		BehavioralCount: behavioral,
		Status:          models.InterviewConfigured,
	}
	if err := s.interviews.CreateConfig(ctx, config); err != nil {
		s.logger.Error("❌ Failed to save interview config", zap.String(logger.FieldUserID, user.ID), zap.Error(err))
		return nil, persistence("DB Error", err)
	}

	s.logger.Info("✅ Interview configured",
		zap.String(logger.FieldUserID, user.ID),
		zap.String(logger.FieldInterviewID, config.ID),
	)
	return config, nil
}

func (s *interviewService) ListInterviews(ctx context.Context, userID string) ([]models.InterviewConfig, error) {
	configs, err := s.interviews.ListConfigs(ctx, userID, 0)
	if err != nil {
		return nil, persistence("Error fetching interviews", err)
	}
	return configs, nil
}

// owned loads an interview and hides other users' interviews behind NotFound.
func (s *interviewService) owned(ctx context.Context, user models.User, interviewID string) (*models.InterviewConfig, error) {
	if strings.TrimSpace(interviewID) == "" {
		return nil, invalidInput("Interview ID is required")
	}

	config, err := s.interviews.FindConfig(ctx, interviewID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, notFound(msgInterviewNotFound, err)
		}
		return nil, persistence("DB Error", err)
	}
	if config.UserID != user.ID {
		return nil, notFound(msgInterviewNotFound, nil)
	}
	return config, nil
}

func (s *interviewService) LoadInterview(ctx context.Context, user models.User, interviewID string) (*models.InterviewConfig, []models.Question, error) {
	config, err := s.owned(ctx, user, interviewID)
	if err != nil {
		return nil, nil, err
	}

	set, err := s.questionSet(ctx, config)
	if err != nil {
		return nil, nil, err
	}
	return config, set.Questions, nil
}

func (s *interviewService) questionSet(ctx context.Context, config *models.InterviewConfig) (*models.QuestionSet, error) {
	set, err := s.interviews.FindQuestionSet(ctx, config.ID)
	if err == nil {
		return set, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, persistence("DB Error", err)
	}
	return s.questions.GenerateForInterview(ctx, config)
}

func (s *interviewService) UpdateStatus(ctx context.Context, user models.User, interviewID string, status models.InterviewStatus) (*models.InterviewConfig, error) {
	if !status.Valid() {
		return nil, invalidInput("Invalid interview status")
	}

	config, err := s.owned(ctx, user, interviewID)
	if err != nil {
		return nil, err
	}
	if config.Status == status {
		return config, nil
	}
	if status.Before(config.Status) {
		return nil, invalidInput("Interview status cannot move backwards")
	}

	updated, err := s.interviews.UpdateStatus(ctx, config.ID, status)
	if err != nil {
		return nil, persistence("DB Error", err)
	}

	s.logger.Info("🔄 Interview status updated",
		zap.String(logger.FieldInterviewID, config.ID),
		zap.String("status", string(status)),
	)
	return updated, nil
}

// resolveQuestion checks the question exists in the interview and fills the
// stored text and type, ignoring what the client claimed.
func (s *interviewService) resolveQuestion(ctx context.Context, user models.User, req *models.AnswerRequest) error {
	req.Answer = strings.TrimSpace(req.Answer)
	if req.Answer == "" {
		return invalidInput("Answer is required")
	}

	config, err := s.owned(ctx, user, req.InterviewID)
	if err != nil {
		return err
	}

	set, err := s.interviews.FindQuestionSet(ctx, config.ID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return notFound("Interview questions not found", err)
		}
		return persistence("DB Error", err)
	}

	if req.QuestionID < 1 || req.QuestionID > len(set.Questions) {
		return invalidInput("Invalid question ID")
	}

	question := set.Questions[req.QuestionID-1]
	req.QuestionText = question.Text
	req.QuestionType = question.Type
	return nil
}

func (s *interviewService) SaveAnswer(ctx context.Context, user models.User, req models.AnswerRequest) (*models.AnswerRecord, error) {
	if err := s.resolveQuestion(ctx, user, &req); err != nil {
		return nil, err
	}

	answer := &models.AnswerRecord{
		UserID:       user.ID,
		InterviewID:  req.InterviewID,
		QuestionID:   req.QuestionID,
		QuestionText: req.QuestionText,
		AnswerText:   req.Answer,
		QuestionType: req.QuestionType,
	}
	if err := s.interviews.SaveAnswer(ctx, answer); err != nil {
		s.logger.Error("❌ Failed to save answer", zap.String(logger.FieldInterviewID, req.InterviewID), zap.Error(err))
		return nil, persistence("DB Error", err)
	}

	return answer, nil
}

func (s *interviewService) SubmitFeedback(ctx context.Context, user models.User, req models.AnswerFeedbackRequest) (*models.AnswerFeedbackRecord, error) {
	if err := s.resolveQuestion(ctx, user, &req.AnswerRequest); err != nil {
		return nil, err
	}
	req.Emotion = strings.TrimSpace(req.Emotion)
	if req.Emotion == "" {
		return nil, invalidInput("Emotion is required")
	}
	req.EmotionConfidence = ClampConfidence(req.EmotionConfidence)

	coaching, err := s.coach.Coach(ctx, req)
	if err != nil {
		s.logger.Error("❌ Answer feedback generation failed", zap.String(logger.FieldInterviewID, req.InterviewID), zap.Error(err))
		return nil, err
	}

	feedback := &models.AnswerFeedbackRecord{
		UserID:            user.ID,
		InterviewID:       req.InterviewID,
		QuestionID:        req.QuestionID,
		QuestionText:      req.QuestionText,
		AnswerText:        req.Answer,
		QuestionType:      req.QuestionType,
		Emotion:           req.Emotion,
		EmotionConfidence: req.EmotionConfidence,
		AIFeedback:        coaching.Feedback,
		Score:             coaching.Score,
	}
	if err := s.interviews.SaveAnswerFeedback(ctx, feedback); err != nil {
		s.logger.Error("❌ Failed to save answer feedback", zap.String(logger.FieldInterviewID, req.InterviewID), zap.Error(err))
		return nil, persistence("DB Error", err)
	}

	return feedback, nil
}

func (s *interviewService) Results(ctx context.Context, user models.User, interviewID string) (*models.InterviewResultsResponse, error) {
	config, err := s.owned(ctx, user, interviewID)
	if err != nil {
		return nil, err
	}

	answers, err := s.interviews.ListAnswers(ctx, config.ID)
	if err != nil {
		return nil, persistence("Error fetching interview results", err)
	}
	feedback, err := s.interviews.ListAnswerFeedback(ctx, config.ID)
	if err != nil {
		return nil, persistence("Error fetching interview results", err)
	}

	return &models.InterviewResultsResponse{
		InterviewConfig: config,
		Answers:         answers,
		Feedback:        feedback,
	}, nil
}

// UserInterviews binds an InterviewService to one caller, the shape an
// interview session drives.
type UserInterviews struct {
	svc  InterviewService
	user models.User
}

func NewUserInterviews(svc InterviewService, user models.User) *UserInterviews {
	return &UserInterviews{svc: svc, user: user}
}

func (u *UserInterviews) Load(ctx context.Context, interviewID string) (*models.InterviewConfig, []models.Question, error) {
	return u.svc.LoadInterview(ctx, u.user, interviewID)
}

func (u *UserInterviews) SaveAnswer(ctx context.Context, req models.AnswerRequest) error {
	_, err := u.svc.SaveAnswer(ctx, u.user, req)
	return err
}

func (u *UserInterviews) SaveFeedback(ctx context.Context, req models.AnswerFeedbackRequest) error {
	_, err := u.svc.SubmitFeedback(ctx, u.user, req)
	return err
}

func (u *UserInterviews) SetStatus(ctx context.Context, interviewID string, status models.InterviewStatus) error {
	_, err := u.svc.UpdateStatus(ctx, u.user, interviewID, status)
	return err
}
