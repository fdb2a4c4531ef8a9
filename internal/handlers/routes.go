package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth      Authenticator
	Feedback  *FeedbackHandler
	Question  *QuestionHandler
	Interview *InterviewHandler
	Result    *ResultHandler
	Upload    *UploadHandler
}

// Register mounts the API on router. Everything except /health requires a user.
func Register(router fiber.Router, h Handlers) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api := router.Group("", RequireUser(h.Auth))

	api.Post("/upload-resume", h.Upload.HandleUpload)
	api.Post("/speech-to-text", h.Upload.HandleSpeechToText)

	api.Post("/feedback", h.Feedback.HandleFeedback)
	api.Get("/feedback-history", h.Feedback.HandleHistory)
	api.Get("/analytics", h.Feedback.HandleAnalytics)

	api.Get("/questions", h.Question.HandleQuestions)
	api.Get("/ideal-answers", h.Question.HandleIdealAnswers)
	api.Post("/answer-comparison", h.Question.HandleAnswerComparison)

	api.Post("/interview-config", h.Interview.HandleCreateConfig)
	api.Get("/interviews", h.Interview.HandleList)
	api.Get("/interview-questions", h.Interview.HandleQuestions)
	api.Post("/interview-status", h.Interview.HandleStatus)
	api.Post("/interview-answer", h.Interview.HandleAnswer)
	api.Post("/interview-feedback", h.Interview.HandleFeedback)
	api.Get("/interview-results", h.Result.HandleGetResult)
}
