package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/repositories"
)

// MissingScorePolicy decides how records without a score enter an average.
type MissingScorePolicy string

const (
	// MissingExclude drops missing values from both sum and count.
	MissingExclude MissingScorePolicy = "exclude"
	// MissingZero counts missing values as 0.
	MissingZero MissingScorePolicy = "zero"
)

const MaxAnalyticsRecords = 50

type AnalyticsService interface {
	Aggregate(ctx context.Context, userID string) (*models.Analytics, error)
}

type analyticsService struct {
	analyses repositories.AnalysisRepository
	policy   MissingScorePolicy
	limit    int
	logger   *zap.Logger
}

func NewAnalyticsService(analyses repositories.AnalysisRepository, policy MissingScorePolicy, limit int, log *zap.Logger) (AnalyticsService, error) {
	switch policy {
	case "":
		policy = MissingExclude
	case MissingExclude, MissingZero:
	default:
		return nil, fmt.Errorf("unknown missing score policy %q", policy)
	}
	if limit <= 0 || limit > MaxAnalyticsRecords {
		limit = MaxAnalyticsRecords
	}

	return &analyticsService{
		analyses: analyses,
		policy:   policy,
		limit:    limit,
		logger:   logger.OrNop(log),
	}, nil
}

func (s *analyticsService) Aggregate(ctx context.Context, userID string) (*models.Analytics, error) {
	analyses, err := s.analyses.ListByUser(ctx, userID, s.limit)
	if err != nil {
		s.logger.Error("❌ Failed to load analytics", zap.String(logger.FieldUserID, userID), zap.Error(err))
		return nil, persistence("Error fetching analytics", err)
	}

	var match, similarity average
	series := make([]models.AnalyticsPoint, len(analyses))

	// Stored newest first, charted oldest first.
	for i := range analyses {
		a := &analyses[i]
		series[len(analyses)-1-i] = models.AnalyticsPoint{
			CreatedAt:       a.CreatedAt,
			JobTitle:        a.JobTitle,
			CompanyName:     a.CompanyName,
			MatchScore:      a.MatchScore,
			SimilarityScore: a.SimilarityScore,
		}

		if a.MatchScore != nil {
			match.add(float64(*a.MatchScore))
		} else if s.policy == MissingZero {
			match.add(0)
		}

		if a.SimilarityScore != nil {
			similarity.add(*a.SimilarityScore)
		} else if s.policy == MissingZero {
			similarity.add(0)
		}
	}

	return &models.Analytics{
		Count:                  len(analyses),
		AverageMatchScore:      match.value(),
		AverageSimilarityScore: similarity.value(),
		Series:                 series,
	}, nil
}

type average struct {
	sum float64
	n   int
}

func (a *average) add(v float64) {
	a.sum += v
	a.n++
}

func (a *average) value() *float64 {
	if a.n == 0 {
		return nil
	}
	v := a.sum / float64(a.n)
	return &v
}
