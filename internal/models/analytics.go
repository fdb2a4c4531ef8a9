package models

import "time"

type AnalyticsPoint struct {
	CreatedAt       time.Time `json:"created_at"`
	JobTitle        string    `json:"job_title,omitempty"`
	CompanyName     string    `json:"company_name,omitempty"`
	MatchScore      *int      `json:"match_score,omitempty"`
	SimilarityScore *float64  `json:"similarity_score,omitempty"`
}

type Analytics struct {
	Count                  int              `json:"count"`
	AverageMatchScore      *float64         `json:"average_match_score"`
	AverageSimilarityScore *float64         `json:"average_similarity_score"`
	Series                 []AnalyticsPoint `json:"series"`
}
