package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/services"
)

type UploadHandler struct {
	resumes     services.ResumeService
	speech      services.SpeechAnalyzer
	maxFileSize int64
	logger      *zap.Logger
}

func NewUploadHandler(
	resumes services.ResumeService,
	speech services.SpeechAnalyzer,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		resumes:     resumes,
		speech:      speech,
		maxFileSize: maxFileSize,
		logger:      logger.OrNop(log),
	}
}

func readFormFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return io.ReadAll(src)
}

// HandleUpload handles POST /upload-resume.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded. Please upload a PDF as 'file'.")
	}

	if file.Size > h.maxFileSize {
		return badRequest(c, fmt.Sprintf("File too large. Max size: %d bytes", h.maxFileSize))
	}

	data, err := readFormFile(file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	resp, err := h.resumes.Upload(c.UserContext(), CurrentUser(c), file.Filename, data)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleSpeechToText handles POST /speech-to-text.
func (h *UploadHandler) HandleSpeechToText(c *fiber.Ctx) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return badRequest(c, "No audio file provided")
	}

	data, err := readFormFile(file)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	analysis, err := h.speech.Analyze(c.UserContext(), services.AudioClip{
		Filename: file.Filename,
		Content:  data,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(analysis)
}
