package models

import "time"

// AnalysisRecord is written once per resume analysis and never updated.
type AnalysisRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	UserEmail       string    `json:"userEmail,omitempty"`
	ResumeText      string    `json:"resumeText"`
	JobDescription  string    `json:"jobDescription"`
	JobTitle        string    `json:"jobTitle"`
	CompanyName     string    `json:"companyName"`
	MatchScore      *int      `json:"matchScore,omitempty"`
	SimilarityScore *float64  `json:"similarityScore,omitempty"`
	Feedback        string    `json:"feedback"`
	CreatedAt       time.Time `json:"createdAt"`
}

// AnalysisSummary is the feedback-history view of an AnalysisRecord.
type AnalysisSummary struct {
	ID              string    `json:"id"`
	JobTitle        string    `json:"jobTitle"`
	CompanyName     string    `json:"companyName"`
	Feedback        string    `json:"feedback"`
	MatchScore      *int      `json:"matchScore,omitempty"`
	SimilarityScore *float64  `json:"similarityScore,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (a *AnalysisRecord) Summary() AnalysisSummary {
	title := a.JobTitle
	if title == "" {
		title = "Untitled Position"
	}
	company := a.CompanyName
	if company == "" {
		company = "Unknown Company"
	}

	return AnalysisSummary{
		ID:              a.ID,
		JobTitle:        title,
		CompanyName:     company,
		Feedback:        a.Feedback,
		MatchScore:      a.MatchScore,
		SimilarityScore: a.SimilarityScore,
		CreatedAt:       a.CreatedAt,
	}
}
