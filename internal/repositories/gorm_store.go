package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"alfredoptarigan/interview-coach/internal/models"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore backs the record store with a relational database through GORM.
// The records table must already be migrated (see config.InitDatabase).
func NewGormStore(db *gorm.DB) RecordStore {
	return &gormStore{db: db}
}

// PutRecord implements RecordStore.
func (g *gormStore) PutRecord(ctx context.Context, record *models.Record) error {
	err := g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}

	return nil
}

// GetRecord implements RecordStore.
func (g *gormStore) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	var record models.Record
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("record %s: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}

	return &record, nil
}

// QueryByUser implements RecordStore.
func (g *gormStore) QueryByUser(ctx context.Context, userID string, kind models.RecordKind, limit int) ([]models.Record, error) {
	query := g.db.WithContext(ctx).Where("user_id = ?", userID)
	return g.find(query, kind, limit)
}

// QueryByPrefix implements RecordStore.
func (g *gormStore) QueryByPrefix(ctx context.Context, prefix string, kind models.RecordKind, limit int) ([]models.Record, error) {
	query := g.db.WithContext(ctx).Where("starts_with(id, ?)", prefix)
	return g.find(query, kind, limit)
}

func (g *gormStore) find(query *gorm.DB, kind models.RecordKind, limit int) ([]models.Record, error) {
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	query = query.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.Record
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	return records, nil
}
