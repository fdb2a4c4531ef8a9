package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"alfredoptarigan/interview-coach/internal/models"
)

var ErrRecordNotFound = errors.New("record not found")

// RecordStore is the storage capability every backend provides. Query
// results are ordered newest first; a limit <= 0 means no limit and an empty
// kind matches every kind.
type RecordStore interface {
	PutRecord(ctx context.Context, record *models.Record) error
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	QueryByUser(ctx context.Context, userID string, kind models.RecordKind, limit int) ([]models.Record, error)
	QueryByPrefix(ctx context.Context, prefix string, kind models.RecordKind, limit int) ([]models.Record, error)
}

func putTyped(ctx context.Context, store RecordStore, id, userID string, kind models.RecordKind, createdAt time.Time, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	record := &models.Record{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		Payload:   string(payload),
		CreatedAt: createdAt.UTC(),
	}

	if err := store.PutRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to save %s: %w", kind, err)
	}

	return nil
}

func getTyped[T any](ctx context.Context, store RecordStore, id string, kind models.RecordKind) (*T, error) {
	record, err := store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	if record.Kind != kind {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrRecordNotFound)
	}

	return decodeTyped[T](record)
}

func decodeTyped[T any](record *models.Record) (*T, error) {
	var value T
	if err := json.Unmarshal([]byte(record.Payload), &value); err != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", record.Kind, record.ID, err)
	}
	return &value, nil
}

func decodeAll[T any](records []models.Record) ([]T, error) {
	values := make([]T, 0, len(records))
	for i := range records {
		value, err := decodeTyped[T](&records[i])
		if err != nil {
			return nil, err
		}
		values = append(values, *value)
	}
	return values, nil
}
