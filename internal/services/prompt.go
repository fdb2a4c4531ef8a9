package services

import (
	"fmt"
	"math"
	"strings"

	"alfredoptarigan/interview-coach/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildFeedbackSystem creates the system instruction for resume-to-job feedback.
// The similarity line is only requested when a score is known.
func (pb *PromptBuilder) BuildFeedbackSystem(similarity *float64) string {
	var header strings.Builder
	header.WriteString("Match Score: XX/100")
	if similarity != nil {
		header.WriteString(fmt.Sprintf("\nSemantic Similarity Score: %.2f", *similarity))
	}

	return fmt.Sprintf(`You are ApplyAI, an intelligent resume review assistant.

Your response MUST start with exactly these lines, replacing XX with an integer from 0 to 100 that rates how well the resume fits the job:
%s

Then write exactly three markdown sections, in this order:

## Resume Analysis
Strengths and weaknesses of the resume. Comment on action verbs, technologies, metrics and clarity.

## Job Alignment
How the candidate's experience maps to the requirements of the job description, including missing requirements.

## Suggested Improvements
Concrete rewrites of weak bullet points. Use strong action verbs, technical terms and measurable outcomes.

Format rules:
- Use markdown headings (##, ###)
- Use bullet points for lists
- Use `+"`backticks`"+` for technical terms

General rules:
- Be concise but thorough
- Only analyze the provided materials. Never generalize; only refer to the given resume and job description.
- Never fabricate achievements; base all suggestions strictly on the original resume.
- Do not output the Match Score line more than once.`, header.String())
}

func (pb *PromptBuilder) BuildFeedbackMessage(resume, jobDescription string) string {
	return fmt.Sprintf("Resume: %s\n\nJob Description: %s", resume, jobDescription)
}

// BuildQuestionSystem creates the system instruction for interview question generation.
func (pb *PromptBuilder) BuildQuestionSystem(technicalCount, behavioralCount int) string {
	return fmt.Sprintf(`You are an expert interviewer with PHD level theoretical and practical knowledge of how to conduct interviews. Generate %d technical questions and %d behavioral questions based solely on the resume and job description.

Guidelines:
- Technical questions should focus on skills and technologies mentioned in the resume and job description
- Behavioral questions should focus on past experiences and soft skills
- Questions should be challenging but fair
- Each question should be unique and specific
- Technical questions should test both knowledge and problem-solving ability
- Behavioral questions should explore leadership, teamwork, and problem-solving scenarios
- List all technical questions first, then all behavioral questions

Format your response as exactly %d lines and nothing else:
Question 1: [Question 1]
Question 2: [Question 2]
.
.
.
Question %d: [Question %d]
`, technicalCount, behavioralCount, technicalCount+behavioralCount,
		technicalCount+behavioralCount, technicalCount+behavioralCount)
}

func (pb *PromptBuilder) BuildQuestionMessage(resume, jobDescription string) string {
	return fmt.Sprintf("Resume Text: %s\n\nJob Description: %s", resume, jobDescription)
}

// BuildIdealAnswerSystem creates the system instruction for model answers.
func (pb *PromptBuilder) BuildIdealAnswerSystem(technicalCount, behavioralCount int) string {
	return fmt.Sprintf(`You are an expert career coach with a Ph.D. in organizational psychology and 15+ years of experience helping candidates ace interviews. Generate ideal answers for the following %d technical and %d behavioral interview questions based exclusively on the candidate's resume and job description.

Inputs Provided:
- Full resume text
- Complete job description
- Pre-generated list of questions (%d technical, %d behavioral)

Guidelines:
1. Technical Answers:
   - Demonstrate deep knowledge of tools/concepts mentioned in the resume/job description
   - Include problem-solving logic (e.g., "First I'd verify X, then optimize Y using Z")
   - Incorporate resume specifics (projects, tools, certifications)

2. Behavioral Answers:
   - Mandatory STAR structure (Situation, Task, Action, Result) woven into cohesive paragraphs
   - Highlight soft skills from job description (leadership, conflict resolution, etc.)
   - Quantify results when possible (e.g., "reduced latency by 30%%")

3. General Rules:
   - Answers must be 4-6 sentences in paragraph form
   - Use resume-specific details (company names, projects, technologies)
   - Never invent facts absent from resume/job description
   - Technical answers should include troubleshooting steps where applicable

Output Format:
Answer [Question Number]: [Full paragraph answer]
`, technicalCount, behavioralCount, technicalCount, behavioralCount)
}

func (pb *PromptBuilder) BuildIdealAnswerMessage(questions []models.Question, resume, jobDescription string) string {
	var sb strings.Builder
	for _, q := range questions {
		sb.WriteString(fmt.Sprintf("Question %d (%s): %s\n", q.ID, q.Type, q.Text))
	}
	return fmt.Sprintf("\n\n%s\nResume Text: %s\n\nJob Description: %s", sb.String(), resume, jobDescription)
}

const answerFeedbackSystem = "You are an expert interview coach providing constructive feedback."

// BuildAnswerFeedbackPrompt grounds the coaching request in the question, the
// spoken answer and the detected emotion.
func (pb *PromptBuilder) BuildAnswerFeedbackPrompt(questionText, answer string, questionType models.QuestionType, emotion string, confidence float64) string {
	return fmt.Sprintf(`You are an expert interview coach. Analyze this interview answer and provide constructive feedback.

Question: %s
Answer: %s
Detected Emotion: %s (confidence: %d%%)
Question Type: %s

Provide feedback in this format:
## Content Analysis
[Evaluate the substance and relevance of the answer]

## Delivery & Emotion
[Comment on the emotional delivery and confidence level]

## Areas for Improvement
[Specific suggestions for better answers]

## Overall Score: X/10
[Rate the answer from 1-10]

Keep feedback constructive and actionable.`,
		questionText, answer, emotion, int(math.Round(confidence*100)), questionType)
}
