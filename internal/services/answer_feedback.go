package services

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
)

// AnswerCoaching is the generated feedback for one spoken answer.
type AnswerCoaching struct {
	Feedback string
	Score    *int
}

type AnswerCoach interface {
	Coach(ctx context.Context, answer models.AnswerFeedbackRequest) (*AnswerCoaching, error)
}

type answerCoach struct {
	generator  TextGenerator
	structured StructuredGenerator
	prompts    *PromptBuilder
	logger     *zap.Logger
}

// NewAnswerCoach returns a coach that uses JSON mode when structured is
// non-nil and the markdown format otherwise.
func NewAnswerCoach(generator TextGenerator, structured StructuredGenerator, log *zap.Logger) AnswerCoach {
	return &answerCoach{
		generator:  generator,
		structured: structured,
		prompts:    NewPromptBuilder(),
		logger:     logger.OrNop(log),
	}
}

var answerFeedbackSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"feedback": {
			Type:        genai.TypeString,
			Description: "Markdown feedback with Content Analysis, Delivery & Emotion and Areas for Improvement sections",
		},
		"score": {
			Type:        genai.TypeInteger,
			Description: "Overall score from 1 to 10",
		},
	},
	Required: []string{"feedback", "score"},
}

type structuredCoaching struct {
	Feedback string `json:"feedback"`
	Score    *int   `json:"score"`
}

func (c *answerCoach) Coach(ctx context.Context, answer models.AnswerFeedbackRequest) (*AnswerCoaching, error) {
	prompt := c.prompts.BuildAnswerFeedbackPrompt(
		answer.QuestionText, answer.Answer, answer.QuestionType, answer.Emotion, answer.EmotionConfidence)

	if c.structured != nil {
		raw, err := c.structured.GenerateJSON(ctx, answerFeedbackSystem, prompt, answerFeedbackSchema)
		if err != nil {
			return nil, upstream("Error generating feedback", err)
		}
		return c.decodeStructured(raw), nil
	}

	text, err := Collect(c.generator.Stream(ctx, answerFeedbackSystem, prompt))
	if err != nil {
		return nil, upstream("Error generating feedback", err)
	}

	coaching := &AnswerCoaching{Feedback: text, Score: ParseOverallScore(text)}
	if coaching.Score == nil {
		c.logger.Warn("⚠️ Overall score missing in answer feedback",
			zap.String("preview", logger.TruncateForLog(text, 200)))
	}
	return coaching, nil
}

// decodeStructured falls back to the text shim when the model ignores the schema.
func (c *answerCoach) decodeStructured(raw string) *AnswerCoaching {
	var out structuredCoaching
	if err := json.Unmarshal([]byte(raw), &out); err != nil || strings.TrimSpace(out.Feedback) == "" {
		c.logger.Warn("⚠️ Structured answer feedback did not decode, using text", zap.Error(err))
		return &AnswerCoaching{Feedback: raw, Score: ParseOverallScore(raw)}
	}

	if out.Score != nil && (*out.Score < 0 || *out.Score > 10) {
		out.Score = nil
	}
	return &AnswerCoaching{Feedback: out.Feedback, Score: out.Score}
}
