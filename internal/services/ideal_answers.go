package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/repositories"
)

type IdealAnswerService interface {
	// Generate returns the interview's ideal answers, generating and
	// indexing them on first request.
	Generate(ctx context.Context, user models.User, interviewID string) (*models.IdealAnswerSet, error)
	Compare(ctx context.Context, user models.User, req models.AnswerComparisonRequest) (float64, error)
	// Reindex re-embeds every stored ideal answer set of the user and
	// returns how many sets were indexed.
	Reindex(ctx context.Context, user models.User) (int, error)
}

type idealAnswerService struct {
	generator  TextGenerator
	embedder   Embedder
	similarity SimilarityScorer
	index      AnswerIndex
	interviews InterviewService
	repo       repositories.InterviewRepository
	analyses   repositories.AnalysisRepository
	prompts    *PromptBuilder
	logger     *zap.Logger
}

// NewIdealAnswerService wires the generator. index may be nil, in which case
// comparisons embed the stored ideal answer on each call.
func NewIdealAnswerService(
	generator TextGenerator,
	embedder Embedder,
	index AnswerIndex,
	interviews InterviewService,
	repo repositories.InterviewRepository,
	analyses repositories.AnalysisRepository,
	log *zap.Logger,
) IdealAnswerService {
	return &idealAnswerService{
		generator:  generator,
		embedder:   embedder,
		similarity: NewSimilarityScorer(embedder),
		index:      index,
		interviews: interviews,
		repo:       repo,
		analyses:   analyses,
		prompts:    NewPromptBuilder(),
		logger:     logger.OrNop(log),
	}
}

func (s *idealAnswerService) Generate(ctx context.Context, user models.User, interviewID string) (*models.IdealAnswerSet, error) {
	config, questions, err := s.interviews.LoadInterview(ctx, user, interviewID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindIdealAnswers(ctx, config.ID)
	if err == nil {
		return existing, nil
	}
	if !repositories.IsNotFound(err) {
		return nil, persistence("DB Error", err)
	}

	analysis, err := s.analyses.FindByID(ctx, config.JobID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, notFound(msgNoJobDescription, err)
		}
		return nil, persistence("DB Error", err)
	}

	log := s.logger.With(zap.String(logger.FieldUserID, user.ID), zap.String(logger.FieldInterviewID, config.ID))

	system := s.prompts.BuildIdealAnswerSystem(config.TechnicalCount, config.BehavioralCount)
	message := s.prompts.BuildIdealAnswerMessage(questions, analysis.ResumeText, analysis.JobDescription)
	text, err := Collect(s.generator.Stream(ctx, system, message))
	if err != nil {
		log.Error("❌ Ideal answer generation failed", zap.Error(err))
		return nil, upstream("Error generating ideal answers", err)
	}

	set := &models.IdealAnswerSet{
		UserID:      user.ID,
		InterviewID: config.ID,
		Answers:     ParseIdealAnswers(text),
		RawText:     text,
	}
	if len(set.Answers) != len(questions) {
		log.Warn("⚠️ Ideal answer count does not match questions",
			zap.Int("questions", len(questions)),
			zap.Int("answers", len(set.Answers)),
		)
	}

	if err := s.repo.SaveIdealAnswers(ctx, set); err != nil {
		log.Error("❌ Failed to save ideal answers", zap.Error(err))
		return nil, persistence("DB Error", err)
	}

	if err := s.indexAnswers(ctx, set); err != nil {
		log.Warn("⚠️ Failed to index ideal answers", zap.Error(err))
	}

	return set, nil
}

func (s *idealAnswerService) indexAnswers(ctx context.Context, set *models.IdealAnswerSet) error {
	if s.index == nil || len(set.Answers) == 0 {
		return nil
	}

	texts := make([]string, len(set.Answers))
	for i, a := range set.Answers {
		texts[i] = a.Text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	entries := make([]IndexedAnswer, len(set.Answers))
	for i, a := range set.Answers {
		entries[i] = IndexedAnswer{
			RecordID:    set.ID,
			UserID:      set.UserID,
			InterviewID: set.InterviewID,
			QuestionID:  a.QuestionID,
			Text:        a.Text,
			Vector:      vectors[i],
		}
	}

	return s.index.Upsert(ctx, entries)
}

// Reindex implements IdealAnswerService.
func (s *idealAnswerService) Reindex(ctx context.Context, user models.User) (int, error) {
	if s.index == nil {
		return 0, invalidInput("Answer index is not configured")
	}

	configs, err := s.repo.ListConfigs(ctx, user.ID, 0)
	if err != nil {
		return 0, persistence("DB Error", err)
	}

	log := s.logger.With(zap.String(logger.FieldUserID, user.ID))
	indexed := 0
	for _, config := range configs {
		set, err := s.repo.FindIdealAnswers(ctx, config.ID)
		if repositories.IsNotFound(err) {
			continue
		}
		if err != nil {
			return indexed, persistence("DB Error", err)
		}

		if err := s.indexAnswers(ctx, set); err != nil {
			log.Error("❌ Failed to index ideal answers", zap.String(logger.FieldInterviewID, config.ID), zap.Error(err))
			return indexed, upstream("Error indexing ideal answers", err)
		}
		indexed++
	}

	log.Info("✅ Ideal answers reindexed", zap.Int("interviews", indexed))
	return indexed, nil
}

// Compare scores a spoken answer against an explicit ideal answer, or
// against the stored ideal answer of an interview question.
func (s *idealAnswerService) Compare(ctx context.Context, user models.User, req models.AnswerComparisonRequest) (float64, error) {
	answer := strings.TrimSpace(req.Answer)
	if answer == "" {
		return 0, invalidInput("Answer is required")
	}

	if ideal := strings.TrimSpace(req.IdealAnswer); ideal != "" {
		return s.similarity.Score(ctx, answer, ideal)
	}

	if req.InterviewID == "" || req.QuestionID < 1 {
		return 0, invalidInput("Ideal answer or interview question is required")
	}

	if s.index != nil {
		score, found, err := s.indexedScore(ctx, user, req.InterviewID, req.QuestionID, answer)
		if err != nil {
			s.logger.Warn("⚠️ Answer index unavailable, using stored answers", zap.Error(err))
		} else if found {
			return score, nil
		}
	}

	set, err := s.repo.FindIdealAnswers(ctx, req.InterviewID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return 0, notFound("Ideal answers not found", err)
		}
		return 0, persistence("DB Error", err)
	}
	if set.UserID != user.ID {
		return 0, notFound("Ideal answers not found", nil)
	}

	for _, a := range set.Answers {
		if a.QuestionID == req.QuestionID {
			return s.similarity.Score(ctx, answer, a.Text)
		}
	}
	return 0, notFound("Ideal answer not found for question", nil)
}

func (s *idealAnswerService) indexedScore(ctx context.Context, user models.User, interviewID string, questionID int, answer string) (float64, bool, error) {
	vectors, err := s.embedder.Embed(ctx, []string{answer})
	if err != nil {
		return 0, false, err
	}
	if len(vectors) != 1 {
		return 0, false, nil
	}
	return s.index.Similarity(ctx, user.ID, interviewID, questionID, vectors[0])
}
