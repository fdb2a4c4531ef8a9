package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/services"
)

type ResultHandler struct {
	interviews services.InterviewService
	logger     *zap.Logger
}

func NewResultHandler(interviews services.InterviewService, log *zap.Logger) *ResultHandler {
	return &ResultHandler{
		interviews: interviews,
		logger:     logger.OrNop(log),
	}
}

// HandleGetResult handles GET /interview-results.
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	interviewID := c.Query("interviewId")
	if interviewID == "" {
		return badRequest(c, "Interview ID is required")
	}

	results, err := h.interviews.Results(c.UserContext(), CurrentUser(c), interviewID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(results)
}
