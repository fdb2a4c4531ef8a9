package services

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
)

type ResumeService interface {
	Upload(ctx context.Context, user models.User, filename string, data []byte) (*models.UploadResponse, error)
}

type resumeService struct {
	store       ObjectStore
	parser      PDFParserService
	maxFileSize int64
	logger      *zap.Logger
}

func NewResumeService(store ObjectStore, parser PDFParserService, maxFileSize int64, log *zap.Logger) ResumeService {
	return &resumeService{
		store:       store,
		parser:      parser,
		maxFileSize: maxFileSize,
		logger:      logger.OrNop(log),
	}
}

// Upload extracts the resume text and archives the original PDF.
func (s *resumeService) Upload(ctx context.Context, user models.User, filename string, data []byte) (*models.UploadResponse, error) {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return nil, invalidInput("Only PDF files are allowed")
	}
	if len(data) == 0 {
		return nil, invalidInput("File is empty")
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return nil, invalidInput("File is too large")
	}

	content, err := s.parser.ExtractText(data)
	if err != nil {
		s.logger.Warn("⚠️ Failed to extract resume text", zap.String("filename", filename), zap.Error(err))
		return nil, invalidInput("Could not read text from PDF")
	}

	key := ResumeKey(user.ID, filename)
	if err := s.store.Put(ctx, key, bytes.NewReader(data)); err != nil {
		s.logger.Error("❌ Failed to archive resume", zap.String("key", key), zap.Error(err))
		return nil, persistence("Failed to save file", err)
	}

	s.logger.Info("✅ Resume uploaded",
		zap.String(logger.FieldUserID, user.ID),
		zap.String("key", key),
		zap.Int("pages", content.PageCount),
	)

	return &models.UploadResponse{
		Key:          key,
		OriginalName: filename,
		Text:         content.Text,
		PageCount:    content.PageCount,
	}, nil
}
