package models

import (
	"time"
)

type RecordKind string

const (
	KindAnalysis        RecordKind = "analysis"
	KindQuestionSet     RecordKind = "question_set"
	KindInterviewConfig RecordKind = "interview_config"
	KindAnswer          RecordKind = "answer"
	KindAnswerFeedback  RecordKind = "answer_feedback"
	KindIdealAnswers    RecordKind = "ideal_answers"
)

// Record is the single item shape every store backend persists. Typed
// records are encoded into Payload as JSON.
type Record struct {
	ID        string     `gorm:"type:text;primaryKey" json:"id"`
	UserID    string     `gorm:"type:text;not null;index:idx_records_user_kind_created,priority:1" json:"user_id"`
	Kind      RecordKind `gorm:"type:text;not null;index:idx_records_user_kind_created,priority:2" json:"kind"`
	Payload   string     `gorm:"type:text;not null" json:"payload"`
	CreatedAt time.Time  `gorm:"not null;index:idx_records_user_kind_created,priority:3" json:"created_at"`
}

func (Record) TableName() string {
	return "records"
}
