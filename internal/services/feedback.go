package services

import (
	"context"
	"iter"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/repositories"
)

type FeedbackService interface {
	// Prepare validates the request and computes the similarity score. The
	// returned job performs generation and persistence.
	Prepare(ctx context.Context, user models.User, req models.FeedbackRequest) (*FeedbackJob, error)
	// Generate runs a job in buffered mode.
	Generate(ctx context.Context, user models.User, req models.FeedbackRequest) (*models.AnalysisRecord, error)
	History(ctx context.Context, userID string, limit int) ([]models.AnalysisSummary, error)
}

type feedbackService struct {
	generator  TextGenerator
	similarity SimilarityScorer
	analyses   repositories.AnalysisRepository
	prompts    *PromptBuilder
	logger     *zap.Logger
}

func NewFeedbackService(
	generator TextGenerator,
	similarity SimilarityScorer,
	analyses repositories.AnalysisRepository,
	log *zap.Logger,
) FeedbackService {
	return &feedbackService{
		generator:  generator,
		similarity: similarity,
		analyses:   analyses,
		prompts:    NewPromptBuilder(),
		logger:     logger.OrNop(log),
	}
}

// FeedbackJob is one prepared analysis. Start or Run may be called once.
type FeedbackJob struct {
	svc        *feedbackService
	user       models.User
	req        models.FeedbackRequest
	similarity *float64
}

// Similarity is nil when the score could not be computed.
func (j *FeedbackJob) Similarity() *float64 {
	return j.similarity
}

func (s *feedbackService) Prepare(ctx context.Context, user models.User, req models.FeedbackRequest) (*FeedbackJob, error) {
	req.Resume = strings.TrimSpace(req.Resume)
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	if req.Resume == "" || req.JobDescription == "" {
		return nil, invalidInput("Resume and job description are required")
	}

	job := &FeedbackJob{svc: s, user: user, req: req}

	score, err := s.similarity.Score(ctx, req.Resume, req.JobDescription)
	if err != nil {
		s.logger.Warn("⚠️ Similarity unavailable, continuing without it",
			zap.String(logger.FieldUserID, user.ID),
			zap.Error(err),
		)
	} else {
		job.similarity = &score
	}

	return job, nil
}

// FeedbackStream is a generation whose first chunk, or clean end, has
// already arrived. Run must be called exactly once.
type FeedbackStream struct {
	job       *FeedbackJob
	ctx       context.Context
	log       *zap.Logger
	next      func() (string, error, bool)
	stop      func()
	first     string
	exhausted bool
}

// Start begins generation and waits for the first chunk, so a failure
// before any output is returned here as ErrUpstream and nothing is persisted.
func (j *FeedbackJob) Start(ctx context.Context) (*FeedbackStream, error) {
	s := j.svc
	log := s.logger.With(zap.String(logger.FieldUserID, j.user.ID))

	system := s.prompts.BuildFeedbackSystem(j.similarity)
	message := s.prompts.BuildFeedbackMessage(j.req.Resume, j.req.JobDescription)

	next, stop := iter.Pull2(s.generator.Stream(ctx, system, message))
	first, err, ok := next()
	if ok && err != nil {
		stop()
		log.Error("❌ Feedback generation failed", zap.Error(err))
		return nil, upstream("Error generating feedback", err)
	}

	return &FeedbackStream{
		job:       j,
		ctx:       ctx,
		log:       log,
		next:      next,
		stop:      stop,
		first:     first,
		exhausted: !ok,
	}, nil
}

// Run is Start followed by FeedbackStream.Run.
func (j *FeedbackJob) Run(ctx context.Context, emit func(chunk string) error) (*models.AnalysisRecord, error) {
	stream, err := j.Start(ctx)
	if err != nil {
		return nil, err
	}
	return stream.Run(emit)
}

// Run delivers the report to emit and persists the analysis once the text
// is complete. An emit failure stops delivery but not generation, so a
// disconnected client still gets its history entry. A generation failure
// persists nothing.
func (fs *FeedbackStream) Run(emit func(chunk string) error) (*models.AnalysisRecord, error) {
	defer fs.stop()

	var sb strings.Builder
	delivering := emit != nil
	deliver := func(chunk string) {
		sb.WriteString(chunk)
		if !delivering {
			return
		}
		if err := emit(chunk); err != nil {
			fs.log.Warn("⚠️ Client stopped receiving feedback", zap.Error(err))
			delivering = false
		}
	}

	if !fs.exhausted {
		deliver(fs.first)
		for {
			chunk, err, ok := fs.next()
			if !ok {
				break
			}
			if err != nil {
				fs.log.Error("❌ Feedback generation failed", zap.Error(err))
				return nil, upstream("Error generating feedback", err)
			}
			deliver(chunk)
		}
	}

	return fs.job.persist(fs.ctx, fs.log, sb.String())
}

func (j *FeedbackJob) persist(ctx context.Context, log *zap.Logger, text string) (*models.AnalysisRecord, error) {
	score := ParseMatchScore(text)
	if score == nil {
		log.Warn("⚠️ Match score missing or invalid in generated feedback",
			zap.String("preview", logger.TruncateForLog(text, 200)),
		)
	}

	analysis := &models.AnalysisRecord{
		UserID:          j.user.ID,
		UserEmail:       j.user.Email,
		ResumeText:      j.req.Resume,
		JobDescription:  j.req.JobDescription,
		JobTitle:        strings.TrimSpace(j.req.JobTitle),
		CompanyName:     strings.TrimSpace(j.req.CompanyName),
		MatchScore:      score,
		SimilarityScore: j.similarity,
		Feedback:        text,
	}

	if err := j.svc.analyses.Create(ctx, analysis); err != nil {
		log.Error("❌ Failed to save analysis", zap.Error(err))
		return nil, persistence("Error saving feedback", err)
	}

	log.Info("✅ Analysis saved",
		zap.String("analysis_id", analysis.ID),
		zap.Int("length", len(text)),
	)

	return analysis, nil
}

func (s *feedbackService) Generate(ctx context.Context, user models.User, req models.FeedbackRequest) (*models.AnalysisRecord, error) {
	job, err := s.Prepare(ctx, user, req)
	if err != nil {
		return nil, err
	}
	return job.Run(ctx, nil)
}

func (s *feedbackService) History(ctx context.Context, userID string, limit int) ([]models.AnalysisSummary, error) {
	analyses, err := s.analyses.ListByUser(ctx, userID, limit)
	if err != nil {
		s.logger.Error("❌ Failed to load feedback history", zap.String(logger.FieldUserID, userID), zap.Error(err))
		return nil, persistence("Error fetching feedback history", err)
	}

	summaries := make([]models.AnalysisSummary, 0, len(analyses))
	for i := range analyses {
		summaries = append(summaries, analyses[i].Summary())
	}
	return summaries, nil
}
