package handlers

import (
	"bufio"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/services"
)

const historyLimit = 50

type FeedbackHandler struct {
	feedback  services.FeedbackService
	analytics services.AnalyticsService
	logger    *zap.Logger
}

func NewFeedbackHandler(
	feedback services.FeedbackService,
	analytics services.AnalyticsService,
	log *zap.Logger,
) *FeedbackHandler {
	return &FeedbackHandler{
		feedback:  feedback,
		analytics: analytics,
		logger:    logger.OrNop(log),
	}
}

// HandleFeedback handles POST /feedback. With ?stream=true the report is
// written as it is generated.
func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var req models.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	user := CurrentUser(c)
	ctx := c.UserContext()

	job, err := h.feedback.Prepare(ctx, user, req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	if !c.QueryBool("stream") {
		analysis, err := job.Run(ctx, nil)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return c.SendString(analysis.Feedback)
	}

	// The status is committed once the stream writer is installed, so the
	// first chunk is awaited here and an early failure still gets a 5xx.
	stream, err := job.Start(ctx)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	// A failure after the first chunk can only end the body early.
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		emit := func(chunk string) error {
			if _, err := w.WriteString(chunk); err != nil {
				return err
			}
			return w.Flush()
		}

		if _, err := stream.Run(emit); err != nil {
			h.logger.Error("❌ Streaming feedback failed",
				zap.String(logger.FieldUserID, user.ID),
				zap.Error(err),
			)
		}
	})

	return nil
}

// HandleHistory handles GET /feedback-history.
func (h *FeedbackHandler) HandleHistory(c *fiber.Ctx) error {
	history, err := h.feedback.History(c.UserContext(), CurrentUser(c).ID, historyLimit)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(history)
}

// HandleAnalytics handles GET /analytics.
func (h *FeedbackHandler) HandleAnalytics(c *fiber.Ctx) error {
	analytics, err := h.analytics.Aggregate(c.UserContext(), CurrentUser(c).ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(analytics)
}
