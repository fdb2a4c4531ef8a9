package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/services"
)

type InterviewHandler struct {
	interviews services.InterviewService
	logger     *zap.Logger
}

func NewInterviewHandler(interviews services.InterviewService, log *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		interviews: interviews,
		logger:     logger.OrNop(log),
	}
}

// interviewConfigPayload tells absent counts apart from explicit zeros.
type interviewConfigPayload struct {
	JobID           string `json:"jobId"`
	TechnicalCount  *int   `json:"technicalCount"`
	BehavioralCount *int   `json:"behavioralCount"`
	JobTitle        string `json:"jobTitle"`
	CompanyName     string `json:"companyName"`
}

func countOrDefault(v *int) int {
	if v == nil {
		return services.DefaultQuestionCount
	}
	return *v
}

// HandleCreateConfig handles POST /interview-config.
func (h *InterviewHandler) HandleCreateConfig(c *fiber.Ctx) error {
	var payload interviewConfigPayload
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	config, err := h.interviews.CreateConfig(c.UserContext(), CurrentUser(c), models.InterviewConfigRequest{
		JobID:           payload.JobID,
		TechnicalCount:  countOrDefault(payload.TechnicalCount),
		BehavioralCount: countOrDefault(payload.BehavioralCount),
		JobTitle:        payload.JobTitle,
		CompanyName:     payload.CompanyName,
	})
	if err != nil {
		return respondWriteError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"interviewId": config.ID,
	})
}

// HandleList handles GET /interviews.
func (h *InterviewHandler) HandleList(c *fiber.Ctx) error {
	configs, err := h.interviews.ListInterviews(c.UserContext(), CurrentUser(c).ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(configs)
}

// HandleQuestions handles GET /interview-questions.
func (h *InterviewHandler) HandleQuestions(c *fiber.Ctx) error {
	config, questions, err := h.interviews.LoadInterview(c.UserContext(), CurrentUser(c), c.Query("interviewId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(models.InterviewQuestionsResponse{
		Questions:       questions,
		InterviewConfig: config,
	})
}

// HandleStatus handles POST /interview-status.
func (h *InterviewHandler) HandleStatus(c *fiber.Ctx) error {
	var req models.InterviewStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	config, err := h.interviews.UpdateStatus(c.UserContext(), CurrentUser(c), req.InterviewID, req.Status)
	if err != nil {
		return respondWriteError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"status":  config.Status,
	})
}

// HandleAnswer handles POST /interview-answer.
func (h *InterviewHandler) HandleAnswer(c *fiber.Ctx) error {
	var req models.AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	if _, err := h.interviews.SaveAnswer(c.UserContext(), CurrentUser(c), req); err != nil {
		return respondWriteError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}

// HandleFeedback handles POST /interview-feedback.
func (h *InterviewHandler) HandleFeedback(c *fiber.Ctx) error {
	var req models.AnswerFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	feedback, err := h.interviews.SubmitFeedback(c.UserContext(), CurrentUser(c), req)
	if err != nil {
		return respondWriteError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"feedback": feedback.AIFeedback,
		"score":    feedback.Score,
	})
}
