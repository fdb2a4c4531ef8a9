package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/repositories"
)

const (
	DefaultQuestionCount = 1
	MaxQuestionCount     = 20
)

const msgNoJobDescription = "No job description found. Please analyze a resume first."

// QuestionInput selects the resume and job description to question against.
// When Resume or JobDescription is empty the user's latest analysis is used.
type QuestionInput struct {
	Resume          string
	JobDescription  string
	TechnicalCount  int
	BehavioralCount int
}

type QuestionService interface {
	Generate(ctx context.Context, user models.User, input QuestionInput) (*models.QuestionSet, error)
	GenerateForInterview(ctx context.Context, config *models.InterviewConfig) (*models.QuestionSet, error)
}

type questionService struct {
	generator TextGenerator
	analyses  repositories.AnalysisRepository
	sets      repositories.InterviewRepository
	prompts   *PromptBuilder
	logger    *zap.Logger
}

func NewQuestionService(
	generator TextGenerator,
	analyses repositories.AnalysisRepository,
	sets repositories.InterviewRepository,
	log *zap.Logger,
) QuestionService {
	return &questionService{
		generator: generator,
		analyses:  analyses,
		sets:      sets,
		prompts:   NewPromptBuilder(),
		logger:    logger.OrNop(log),
	}
}

// NormalizeCounts rejects negative counts, counts above MaxQuestionCount and
// an empty interview.
func NormalizeCounts(technical, behavioral int) (int, int, error) {
	if technical < 0 || behavioral < 0 {
		return 0, 0, invalidInput("Question counts must not be negative")
	}
	if technical > MaxQuestionCount || behavioral > MaxQuestionCount {
		return 0, 0, invalidInput(fmt.Sprintf("Question counts must not exceed %d", MaxQuestionCount))
	}
	if technical+behavioral == 0 {
		return 0, 0, invalidInput("At least one question is required")
	}
	return technical, behavioral, nil
}

func (s *questionService) Generate(ctx context.Context, user models.User, input QuestionInput) (*models.QuestionSet, error) {
	technical, behavioral, err := NormalizeCounts(input.TechnicalCount, input.BehavioralCount)
	if err != nil {
		return nil, err
	}

	resume := strings.TrimSpace(input.Resume)
	jobDescription := strings.TrimSpace(input.JobDescription)
	jobID := ""

	if resume == "" || jobDescription == "" {
		analysis, err := s.analyses.FindLatestByUser(ctx, user.ID)
		if err != nil {
			if repositories.IsNotFound(err) {
				return nil, notFound(msgNoJobDescription, err)
			}
			return nil, persistence("Error loading job description", err)
		}
		resume, jobDescription, jobID = analysis.ResumeText, analysis.JobDescription, analysis.ID
	}

	set := &models.QuestionSet{
		UserID:          user.ID,
		JobID:           jobID,
		TechnicalCount:  technical,
		BehavioralCount: behavioral,
	}
	if err := s.fill(ctx, set, resume, jobDescription); err != nil {
		return nil, err
	}

	return set, nil
}

// GenerateForInterview creates the question set of a configured interview
// from the analysis it was configured against.
func (s *questionService) GenerateForInterview(ctx context.Context, config *models.InterviewConfig) (*models.QuestionSet, error) {
	analysis, err := s.analyses.FindByID(ctx, config.JobID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, notFound(msgNoJobDescription, err)
		}
		return nil, persistence("Error loading job description", err)
	}

	set := &models.QuestionSet{
		UserID:          config.UserID,
		JobID:           config.JobID,
		InterviewID:     config.ID,
		TechnicalCount:  config.TechnicalCount,
		BehavioralCount: config.BehavioralCount,
	}
	if err := s.fill(ctx, set, analysis.ResumeText, analysis.JobDescription); err != nil {
		return nil, err
	}

	return set, nil
}

func (s *questionService) fill(ctx context.Context, set *models.QuestionSet, resume, jobDescription string) error {
	log := s.logger.With(zap.String(logger.FieldUserID, set.UserID))
	if set.InterviewID != "" {
		log = log.With(zap.String(logger.FieldInterviewID, set.InterviewID))
	}

	system := s.prompts.BuildQuestionSystem(set.TechnicalCount, set.BehavioralCount)
	text, err := Collect(s.generator.Stream(ctx, system, s.prompts.BuildQuestionMessage(resume, jobDescription)))
	if err != nil {
		log.Error("❌ Question generation failed", zap.Error(err))
		return upstream("Error generating questions", err)
	}

	set.RawText = text
	set.Questions = ParseQuestions(text, set.TechnicalCount, set.BehavioralCount)

	if want := set.TechnicalCount + set.BehavioralCount; len(set.Questions) != want {
		log.Warn("⚠️ Generated question count does not match request",
			zap.Int("want", want),
			zap.Int("got", len(set.Questions)),
		)
	}
	// An interview cannot run without questions; standalone sets keep the raw text.
	if len(set.Questions) == 0 && set.InterviewID != "" {
		return upstream("Error generating questions", fmt.Errorf("no questions parsed from %q", logger.TruncateForLog(text, 200)))
	}

	if err := s.sets.SaveQuestionSet(ctx, set); err != nil {
		log.Error("❌ Failed to save question set", zap.Error(err))
		return persistence("Error saving questions", err)
	}

	log.Info("✅ Questions generated", zap.String("question_set_id", set.ID), zap.Int("count", len(set.Questions)))
	return nil
}
