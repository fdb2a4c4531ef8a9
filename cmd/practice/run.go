package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/config"
	"alfredoptarigan/interview-coach/internal/logger"
	"alfredoptarigan/interview-coach/internal/models"
	"alfredoptarigan/interview-coach/internal/repositories"
	"alfredoptarigan/interview-coach/internal/services"
	"alfredoptarigan/interview-coach/internal/session"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".webm": true,
	".mp3":  true,
	".ogg":  true,
	".m4a":  true,
}

var errOutOfAudio = errors.New("ran out of audio clips before the last question")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Answer every question of an interview with the clips in a directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("user", "u", "", "id of the user owning the interview")
	runCmd.Flags().String("email", "", "email of the user")
	runCmd.Flags().StringP("interview", "i", "", "interview id")
	runCmd.Flags().StringP("audio", "a", ".", "directory with one audio clip per answer, taken in name order")

	runCmd.MarkFlagRequired("user")
	runCmd.MarkFlagRequired("interview")
}

func run(cmd *cobra.Command) error {
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
	email, _ := cmd.Flags().GetString("email")
	interviewID, _ := cmd.Flags().GetString("interview")
	audioDir, _ := cmd.Flags().GetString("audio")

	clips, err := audioClips(audioDir)
	if err != nil {
		return err
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Speech.URL == "" {
		return fmt.Errorf("EMOTION_RECOGNITION_API_URL is required")
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

	var structured services.StructuredGenerator
	if cfg.Gemini.StructuredOutput {
		structured = gemini
	}

	analyses := repositories.NewAnalysisRepository(store)
	interviews := repositories.NewInterviewRepository(store)
	questions := services.NewQuestionService(gemini, analyses, interviews, zl)
	interviewService := services.NewInterviewService(interviews, analyses, questions, services.NewAnswerCoach(gemini, structured, zl), zl)

	user := models.User{ID: userID, Email: email}
	sess := session.New(
		services.NewUserInterviews(interviewService, user),
		services.NewSpeechClient(cfg.Speech.URL, cfg.Speech.Timeout, zl),
		zl,
	)

	if err := sess.Load(ctx, interviewID); err != nil {
		return err
	}

	if err := drive(ctx, sess, clips, cmd.OutOrStdout()); err != nil {
		zl.Error("❌ Practice session stopped", zap.String(logger.FieldInterviewID, interviewID), zap.Error(err))
		return err
	}

	results, err := interviewService.Results(ctx, user, interviewID)
	if err != nil {
		return err
	}
	printResults(cmd.OutOrStdout(), results)
	return nil
}

// audioClips lists the audio files of dir in name order.
func audioClips(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no audio clips in %s", dir)
	}
	return paths, nil
}

// drive records one clip per question. A clip that yields no transcript
// or fails analysis is skipped and the next clip answers the same question.
func drive(ctx context.Context, sess *session.Session, clips []string, out io.Writer) error {
	for _, path := range clips {
		q, ok := sess.Current()
		if !ok || sess.State() == session.Finished {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read clip: %w", err)
		}

		if err := sess.StartRecording(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Question %d (%s): %s\n", q.ID, q.Type, q.Text)

		analysis, err := sess.StopRecording(ctx, services.AudioClip{Filename: filepath.Base(path), Content: content})
		if err != nil {
			fmt.Fprintf(out, "  skipped %s: %v\n", filepath.Base(path), err)
			continue
		}
		fmt.Fprintf(out, "  %s [%s %.0f%%]\n", analysis.Transcript, analysis.Emotion, analysis.Confidence*100)

		advanced, err := sess.Advance(ctx)
		if err != nil {
			return err
		}
		if !advanced {
			fmt.Fprintf(out, "  skipped %s: empty transcript\n", filepath.Base(path))
		}
		if sess.State() == session.Finished {
			return nil
		}
	}

	sess.Cancel()
	return errOutOfAudio
}

func printResults(out io.Writer, results *models.InterviewResultsResponse) {
	fmt.Fprintf(out, "\n%s at %s: %s\n", results.InterviewConfig.JobTitle, results.InterviewConfig.CompanyName, results.InterviewConfig.Status)
	for _, f := range results.Feedback {
		score := "n/a"
		if f.Score != nil {
			score = fmt.Sprintf("%d/10", *f.Score)
		}
		fmt.Fprintf(out, "\nQuestion %d, score %s\n%s\n", f.QuestionID, score, f.AIFeedback)
	}
}
