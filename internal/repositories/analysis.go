package repositories

import (
	"context"
	"fmt"
	"time"

	"alfredoptarigan/interview-coach/internal/models"
)

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.AnalysisRecord) error
	FindByID(ctx context.Context, id string) (*models.AnalysisRecord, error)
	FindLatestByUser(ctx context.Context, userID string) (*models.AnalysisRecord, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.AnalysisRecord, error)
}

type analysisRepository struct {
	store RecordStore
	now   func() time.Time
}

func NewAnalysisRepository(store RecordStore) AnalysisRepository {
	return &analysisRepository{store: store, now: time.Now}
}

// AnalysisID keys an analysis by its owner and creation time.
func AnalysisID(userID string, createdAt time.Time) string {
	return fmt.Sprintf("%s-%d", userID, createdAt.UnixMilli())
}

// Create implements AnalysisRepository. ID and CreatedAt are assigned when empty.
func (r *analysisRepository) Create(ctx context.Context, analysis *models.AnalysisRecord) error {
	if analysis.UserID == "" {
		return fmt.Errorf("analysis user id is required")
	}
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = r.now().UTC()
	}
	if analysis.ID == "" {
		analysis.ID = AnalysisID(analysis.UserID, analysis.CreatedAt)
	}

	return putTyped(ctx, r.store, analysis.ID, analysis.UserID, models.KindAnalysis, analysis.CreatedAt, analysis)
}

// FindByID implements AnalysisRepository.
func (r *analysisRepository) FindByID(ctx context.Context, id string) (*models.AnalysisRecord, error) {
	return getTyped[models.AnalysisRecord](ctx, r.store, id, models.KindAnalysis)
}

// FindLatestByUser implements AnalysisRepository.
func (r *analysisRepository) FindLatestByUser(ctx context.Context, userID string) (*models.AnalysisRecord, error) {
	analyses, err := r.ListByUser(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, fmt.Errorf("no analysis for user %s: %w", userID, ErrRecordNotFound)
	}
	return &analyses[0], nil
}

// ListByUser implements AnalysisRepository. Newest first.
func (r *analysisRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.AnalysisRecord, error) {
	records, err := r.store.QueryByUser(ctx, userID, models.KindAnalysis, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return decodeAll[models.AnalysisRecord](records)
}
