package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"

	"alfredoptarigan/interview-coach/internal/models"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS records (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_user_kind_created ON records (user_id, kind, created_at);`

// SQLiteStore is the embedded key-value deployment of RecordStore.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path. Pass ":memory:"
// for an in-memory database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and avoids
	// "database is locked" under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutRecord implements RecordStore.
func (s *SQLiteStore) PutRecord(ctx context.Context, record *models.Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO records (id, user_id, kind, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			kind = excluded.kind,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		record.ID, record.UserID, string(record.Kind), record.Payload, record.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to put record: %w", err)
	}

	return nil
}

// GetRecord implements RecordStore.
func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, kind, payload, created_at FROM records WHERE id = ?", id)

	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %s: %w", id, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}

	return record, nil
}

// QueryByUser implements RecordStore.
func (s *SQLiteStore) QueryByUser(ctx context.Context, userID string, kind models.RecordKind, limit int) ([]models.Record, error) {
	return s.query(ctx, "user_id = ?", []any{userID}, kind, limit)
}

// QueryByPrefix implements RecordStore. LIKE is case-insensitive in SQLite,
// so the prefix is compared with substr instead.
func (s *SQLiteStore) QueryByPrefix(ctx context.Context, prefix string, kind models.RecordKind, limit int) ([]models.Record, error) {
	return s.query(ctx, "substr(id, 1, ?) = ?", []any{utf8.RuneCountInString(prefix), prefix}, kind, limit)
}

func (s *SQLiteStore) query(ctx context.Context, where string, args []any, kind models.RecordKind, limit int) ([]models.Record, error) {
	var sb strings.Builder
	sb.WriteString("SELECT id, user_id, kind, payload, created_at FROM records WHERE ")
	sb.WriteString(where)

	if kind != "" {
		sb.WriteString(" AND kind = ?")
		args = append(args, string(kind))
	}

	sb.WriteString(" ORDER BY created_at DESC, id DESC")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		record    models.Record
		kind      string
		createdAt int64
	)
	if err := row.Scan(&record.ID, &record.UserID, &kind, &record.Payload, &createdAt); err != nil {
		return nil, err
	}
	record.Kind = models.RecordKind(kind)
	record.CreatedAt = time.Unix(0, createdAt).UTC()
	return &record, nil
}
