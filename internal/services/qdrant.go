package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"alfredoptarigan/interview-coach/internal/logger"
)

// IndexedAnswer is one ideal answer with its embedding.
type IndexedAnswer struct {
	RecordID    string
	UserID      string
	InterviewID string
	QuestionID  int
	Text        string
	Vector      []float32
}

// AnswerIndex stores ideal-answer embeddings for answer comparison.
type AnswerIndex interface {
	InitCollection(ctx context.Context) error
	Upsert(ctx context.Context, answers []IndexedAnswer) error
	// Similarity scores vector against the indexed ideal answer of one
	// question. found is false when nothing is indexed for it.
	Similarity(ctx context.Context, userID, interviewID string, questionID int, vector []float32) (score float64, found bool, err error)
}

type qdrantAnswerIndex struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
	logger         *zap.Logger
}

func NewQdrantAnswerIndex(urlStr, apiKey, collectionName string, vectorSize uint64, log *zap.Logger) (AnswerIndex, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	if vectorSize == 0 {
		vectorSize = 768
	}

	return &qdrantAnswerIndex{
		client:         client,
		collectionName: collectionName,
		vectorSize:     vectorSize,
		logger:         logger.OrNop(log),
	}, nil
}

// InitCollection implements AnswerIndex.
func (q *qdrantAnswerIndex) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		q.logger.Info("✅ Collection already exists", zap.String("collection", q.collectionName))
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.logger.Info("✅ Qdrant collection created", zap.String("collection", q.collectionName))
	return nil
}

// PointID derives a stable point id so re-indexing an answer replaces it.
func PointID(recordID string, questionID int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", recordID, questionID))).String()
}

// Upsert implements AnswerIndex.
func (q *qdrantAnswerIndex) Upsert(ctx context.Context, answers []IndexedAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(answers))
	for _, a := range answers {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(a.RecordID, a.QuestionID)),
			Vectors: qdrant.NewVectors(a.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"record_id":    a.RecordID,
				"user_id":      a.UserID,
				"interview_id": a.InterviewID,
				"question_id":  a.QuestionID,
				"text":         a.Text,
			}),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// Similarity implements AnswerIndex.
func (q *qdrantAnswerIndex) Similarity(ctx context.Context, userID, interviewID string, questionID int, vector []float32) (float64, bool, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("user_id", userID),
			qdrant.NewMatch("interview_id", interviewID),
			qdrant.NewMatchInt("question_id", int64(questionID)),
		},
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(1)),
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to search: %w", err)
	}
	if len(points) == 0 {
		return 0, false, nil
	}

	return float64(points[0].Score), true, nil
}
