package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/services"
)

type QuestionHandler struct {
	questions    services.QuestionService
	idealAnswers services.IdealAnswerService
	logger       *zap.Logger
}

func NewQuestionHandler(
	questions services.QuestionService,
	idealAnswers services.IdealAnswerService,
	log *zap.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		questions:    questions,
		idealAnswers: idealAnswers,
		logger:       logger.OrNop(log),
	}
}

// HandleQuestions handles GET /questions against the latest analysis.
func (h *QuestionHandler) HandleQuestions(c *fiber.Ctx) error {
	set, err := h.questions.Generate(c.UserContext(), CurrentUser(c), services.QuestionInput{
		TechnicalCount:  c.QueryInt("technicalCount", services.DefaultQuestionCount),
		BehavioralCount: c.QueryInt("behavioralCount", services.DefaultQuestionCount),
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(set.RawText)
}

// HandleIdealAnswers handles GET /ideal-answers.
func (h *QuestionHandler) HandleIdealAnswers(c *fiber.Ctx) error {
	interviewID := c.Query("interviewId")
	if interviewID == "" {
		return badRequest(c, "Interview ID is required")
	}

	set, err := h.idealAnswers.Generate(c.UserContext(), CurrentUser(c), interviewID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(set.RawText)
}

// HandleAnswerComparison handles POST /answer-comparison.
func (h *QuestionHandler) HandleAnswerComparison(c *fiber.Ctx) error {
	var req models.AnswerComparisonRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	similarity, err := h.idealAnswers.Compare(c.UserContext(), CurrentUser(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"similarity": similarity,
	})
}
