package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/config"
	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/repositories"
	"alfredoptarigan/interview-coach/internal/services"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Re-embed a user's stored ideal answers into Qdrant",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return reindex(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	reindexCmd.Flags().StringP("user", "u", "", "id of the user whose ideal answers are indexed")
	reindexCmd.MarkFlagRequired("user")
}

func reindex(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	zl, err := logger.New(jsonLogs, debugLogs)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer zl.Sync()

	userID, _ := cmd.Flags().GetString("user")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Qdrant.URL == "" {
		return fmt.Errorf("QDRANT_URL is required")
	}

	store, closeStore, err := config.OpenStore(cfg, zl)
	if err != nil {
		return err
	}
	defer closeStore()

	gemini, err := services.NewGeminiService(ctx, cfg.Gemini.APIKey, services.GeminiOptions{
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		MaxRetries: cfg.Gemini.MaxRetries,
	}, zl)
	if err != nil {
		return err
	}

	index, err := services.NewQdrantAnswerIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, cfg.Qdrant.VectorSize, zl)
	if err != nil {
		return err
	}
	if err := index.InitCollection(ctx); err != nil {
		return err
	}

	analyses := repositories.NewAnalysisRepository(store)
	interviews := repositories.NewInterviewRepository(store)
	questions := services.NewQuestionService(gemini, analyses, interviews, zl)
	interviewService := services.NewInterviewService(interviews, analyses, questions, services.NewAnswerCoach(gemini, nil, zl), zl)
	ideal := services.NewIdealAnswerService(gemini, gemini, index, interviewService, interviews, analyses, zl)

	zl.Info("🚀 Starting ideal answer reindex", zap.String(logger.FieldUserID, userID))
	n, err := ideal.Reindex(ctx, models.User{ID: userID})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed ideal answers of %d interviews\n", n)
	return nil
}
