package models

type FeedbackRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
	JobTitle       string `json:"jobTitle"`
	CompanyName    string `json:"companyName"`
}

type InterviewConfigRequest struct {
	JobID           string `json:"jobId"`
	TechnicalCount  int    `json:"technicalCount"`
	BehavioralCount int    `json:"behavioralCount"`
	JobTitle        string `json:"jobTitle"`
	CompanyName     string `json:"companyName"`
}

type InterviewStatusRequest struct {
	InterviewID string          `json:"interviewId"`
	Status      InterviewStatus `json:"status"`
}

type AnswerRequest struct {
	InterviewID  string       `json:"interviewId"`
	QuestionID   int          `json:"questionId"`
	QuestionText string       `json:"questionText"`
	Answer       string       `json:"answer"`
	QuestionType QuestionType `json:"questionType"`
}

type AnswerFeedbackRequest struct {
	AnswerRequest
	Emotion           string  `json:"emotion"`
	EmotionConfidence float64 `json:"emotionConfidence"`
}

type AnswerComparisonRequest struct {
	Answer      string `json:"answer"`
	IdealAnswer string `json:"idealAnswer"`
	InterviewID string `json:"interviewId"`
	QuestionID  int    `json:"questionId"`
}

type InterviewQuestionsResponse struct {
	Questions       []Question       `json:"questions"`
	InterviewConfig *InterviewConfig `json:"interviewConfig"`
}

type InterviewResultsResponse struct {
	InterviewConfig *InterviewConfig       `json:"interviewConfig"`
	Answers         []AnswerRecord         `json:"answers"`
	Feedback        []AnswerFeedbackRecord `json:"feedback"`
}

type UploadResponse struct {
	Key          string `json:"key"`
	OriginalName string `json:"original_name"`
	Text         string `json:"text"`
	PageCount    int    `json:"page_count"`
}
