package models

import "time"

type InterviewStatus string

const (
	InterviewConfigured InterviewStatus = "configured"
	InterviewInProgress InterviewStatus = "in_progress"
	InterviewCompleted  InterviewStatus = "completed"
)

func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewConfigured, InterviewInProgress, InterviewCompleted:
		return true
	}
	return false
}

// rank orders statuses so a session never moves an interview backwards.
func (s InterviewStatus) rank() int {
	switch s {
	case InterviewInProgress:
		return 1
	case InterviewCompleted:
		return 2
	}
	return 0
}

// Before reports whether s comes earlier than other in the interview lifecycle.
func (s InterviewStatus) Before(other InterviewStatus) bool {
	return s.rank() < other.rank()
}

type QuestionType string

const (
	QuestionTechnical  QuestionType = "technical"
	QuestionBehavioral QuestionType = "behavioral"
)

type InterviewConfig struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	JobID           string          `json:"jobId"`
	JobTitle        string          `json:"jobTitle"`
	CompanyName     string          `json:"companyName"`
	TechnicalCount  int             `json:"technicalCount"`
	BehavioralCount int             `json:"behavioralCount"`
	Status          InterviewStatus `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (c *InterviewConfig) TotalQuestions() int {
	return c.TechnicalCount + c.BehavioralCount
}

type Question struct {
	ID   int          `json:"id"`
	Text string       `json:"text"`
	Type QuestionType `json:"type"`
}

type QuestionSet struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	JobID           string     `json:"jobId"`
	InterviewID     string     `json:"interviewId,omitempty"`
	Questions       []Question `json:"questions"`
	RawText         string     `json:"rawText"`
	TechnicalCount  int        `json:"technicalCount"`
	BehavioralCount int        `json:"behavioralCount"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type AnswerRecord struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	InterviewID  string       `json:"interviewId"`
	QuestionID   int          `json:"questionId"`
	QuestionText string       `json:"questionText"`
	AnswerText   string       `json:"answer"`
	QuestionType QuestionType `json:"questionType"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type AnswerFeedbackRecord struct {
	ID                string       `json:"id"`
	UserID            string       `json:"userId"`
	InterviewID       string       `json:"interviewId"`
	QuestionID        int          `json:"questionId"`
	QuestionText      string       `json:"questionText"`
	AnswerText        string       `json:"answer"`
	QuestionType      QuestionType `json:"questionType"`
	Emotion           string       `json:"emotion"`
	EmotionConfidence float64      `json:"emotionConfidence"`
	AIFeedback        string       `json:"aiFeedback"`
	Score             *int         `json:"score,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
}

type IdealAnswer struct {
	QuestionID int    `json:"questionId"`
	Text       string `json:"text"`
}

type IdealAnswerSet struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	InterviewID string        `json:"interviewId"`
	Answers     []IdealAnswer `json:"answers"`
	RawText     string        `json:"rawText"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// SpeechAnalysis is what the speech/emotion collaborator returns for one clip.
type SpeechAnalysis struct {
	Transcript string  `json:"transcript"`
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
}
