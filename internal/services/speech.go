package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
)

const (
	defaultTranscript = "Audio processed successfully"
	defaultConfidence = 0.95
)

// AudioClip is one recorded answer.
type AudioClip struct {
	Filename string
	Content  []byte
}

type SpeechAnalyzer interface {
	Analyze(ctx context.Context, clip AudioClip) (*models.SpeechAnalysis, error)
}

type speechClient struct {
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSpeechClient posts clips as multipart "audio" to the emotion
// recognition endpoint. A zero timeout leaves the transport default.
func NewSpeechClient(url string, timeout time.Duration, log *zap.Logger) SpeechAnalyzer {
	return &speechClient{
		url:     strings.TrimSpace(url),
		timeout: timeout,
		logger:  logger.OrNop(log),
	}
}

type speechResponse struct {
	Transcript string   `json:"transcript"`
	Emotion    string   `json:"emotion"`
	Confidence *float64 `json:"confidence"`
}

// Analyze implements SpeechAnalyzer. Failures are not retried.
func (s *speechClient) Analyze(ctx context.Context, clip AudioClip) (*models.SpeechAnalysis, error) {
	if len(clip.Content) == 0 {
		return nil, invalidInput("No audio file provided")
	}
	if s.url == "" {
		return nil, upstream("Error processing audio", errors.New("speech endpoint is not configured"))
	}
	if err := ctx.Err(); err != nil {
		return nil, upstream("Error processing audio", err)
	}

	name := clip.Filename
	if name == "" {
		name = "answer.webm"
	}

	agent := fiber.Post(s.url)
	if s.timeout > 0 {
		agent.Timeout(s.timeout)
	}
	agent.FileData(&fiber.FormFile{Fieldname: "audio", Name: name, Content: clip.Content}).
		MultipartForm(nil)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.logger.Error("❌ Speech request failed", zap.String("url", s.url), zap.Error(err))
		return nil, upstream("Error processing audio", err)
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		s.logger.Error("❌ Speech endpoint returned an error",
			zap.Int("status", code),
			zap.String("body", logger.TruncateForLog(string(body), 200)),
		)
		return nil, upstream("Error processing audio", fmt.Errorf("speech endpoint status %d", code))
	}

	var resp speechResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, upstream("Error processing audio", fmt.Errorf("failed to decode speech response: %w", err))
	}

	analysis := &models.SpeechAnalysis{
		Transcript: strings.TrimSpace(resp.Transcript),
		Emotion:    strings.TrimSpace(resp.Emotion),
		Confidence: defaultConfidence,
	}
	if analysis.Transcript == "" {
		analysis.Transcript = defaultTranscript
	}
	if resp.Confidence != nil && *resp.Confidence != 0 {
		analysis.Confidence = ClampConfidence(*resp.Confidence)
	}

	return analysis, nil
}

// ClampConfidence bounds an emotion confidence to [0, 1].
func ClampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
