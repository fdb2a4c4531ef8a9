package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/interview-coach/internal/logger"
)

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultEmbedModel = "text-embedding-004"

	// Roughly 10k tokens, the embedding model's input limit.
	maxEmbedRunes = 40000
)

// genaiModels is the subset of *genai.Models the service calls.
type genaiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type GeminiOptions struct {
	Model       string
	EmbedModel  string
	Temperature float32
	MaxRetries  int
}

// GeminiService implements TextGenerator, StructuredGenerator and Embedder.
type GeminiService struct {
	models      genaiModels
	modelName   string
	embedModel  string
	temperature float32
	maxRetries  int
	logger      *zap.Logger
}

var sleep = time.Sleep

func NewGeminiService(ctx context.Context, apiKey string, opts GeminiOptions, log *zap.Logger) (*GeminiService, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newGeminiService(client.Models, opts, log), nil
}

func newGeminiService(models genaiModels, opts GeminiOptions, log *zap.Logger) *GeminiService {
	if opts.Model = strings.TrimSpace(opts.Model); opts.Model == "" {
		opts.Model = defaultTextModel
	}
	if opts.EmbedModel = strings.TrimSpace(opts.EmbedModel); opts.EmbedModel == "" {
		opts.EmbedModel = defaultEmbedModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.3
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}

	return &GeminiService{
		models:      models,
		modelName:   opts.Model,
		embedModel:  opts.EmbedModel,
		temperature: opts.Temperature,
		maxRetries:  opts.MaxRetries,
		logger:      logger.WithCommonFields(log, "gemini", opts.Model),
	}
}

func (g *GeminiService) Model() string {
	return g.modelName
}

func (g *GeminiService) config(system string) *genai.GenerateContentConfig {
	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: 8192,
	}
	if system = strings.TrimSpace(system); system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return config
}

// Stream implements TextGenerator. A failed attempt is retried only while no
// chunk has been delivered, so the caller never sees duplicated text.
func (g *GeminiService) Stream(ctx context.Context, system, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		config := g.config(system)
		var lastErr error

		for attempt := 1; attempt <= g.maxRetries; attempt++ {
			delivered := false
			lastErr = nil

			for resp, err := range g.models.GenerateContentStream(ctx, g.modelName, genai.Text(message), config) {
				if err != nil {
					lastErr = err
					break
				}
				if resp == nil {
					continue
				}
				text := resp.Text()
				if text == "" {
					continue
				}
				delivered = true
				if !yield(text, nil) {
					return
				}
			}

			if lastErr == nil {
				return
			}
			if delivered || ctx.Err() != nil || attempt == g.maxRetries {
				break
			}

			g.logger.Warn("⚠️ Gemini stream failed, retrying",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			sleep(backoff(attempt))
		}

		yield("", fmt.Errorf("failed to generate text: %w", lastErr))
	}
}

// GenerateJSON implements StructuredGenerator.
func (g *GeminiService) GenerateJSON(ctx context.Context, system, message string, schema *genai.Schema) (string, error) {
	config := g.config(system)
	config.ResponseMIMEType = "application/json"
	config.ResponseSchema = schema

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(message), config)
		if err == nil {
			if resp == nil {
				return "", errors.New("no response generated (nil response)")
			}
			text := strings.TrimSpace(resp.Text())
			if text == "" {
				return "", errors.New("no text content in response")
			}
			return text, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		}
		if attempt < g.maxRetries {
			g.logger.Warn("⚠️ Gemini structured call failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
			sleep(backoff(attempt))
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", g.maxRetries, lastErr)
}

// Embed implements Embedder.
func (g *GeminiService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(truncateRunes(text, maxEmbedRunes), genai.RoleUser))
	}

	result, err := g.models.EmbedContent(ctx, g.embedModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("unexpected embedding result for %d inputs", len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, embedding := range result.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("empty embedding for input %d", i)
		}
		vectors[i] = embedding.Values
	}

	return vectors, nil
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt) * 500 * time.Millisecond
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
