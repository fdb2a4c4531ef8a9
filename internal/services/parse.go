package services

import (
	"regexp"
	"strconv"
	"strings"

	"alfredoptarigan/interview-coach/internal/models"
)

var (
	matchScorePattern   = regexp.MustCompile(`Match Score: (\d+)`)
	questionLabel       = regexp.MustCompile(`^Question(?:\s*\d+|\b)\s*(?:\([^)]*\))?\s*[:.\-]?\s*`)
	idealAnswerLabel    = regexp.MustCompile(`(?m)^[ \t]*Answer\s+(\d+)\s*:[ \t]*`)
	overallScorePattern = regexp.MustCompile(`Overall Score:\s*(\d+)\s*/\s*10`)
)

// ParseMatchScore extracts the 0-100 match score. It returns nil when the
// line is absent, out of range, or repeated with conflicting values.
func ParseMatchScore(text string) *int {
	matches := matchScorePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var score int
	for i, m := range matches {
		v, err := strconv.Atoi(m[1])
		if err != nil || v < 0 || v > 100 {
			return nil
		}
		if i > 0 && v != score {
			return nil
		}
		score = v
	}

	return &score
}

// ParseQuestions keeps every line starting with "Question", strips a label
// such as "Question 2 (Technical):" when present, and types the lines by
// position: the first technicalCount are technical, the rest behavioral,
// whatever the model labelled them. Lines beyond the requested total are dropped.
func ParseQuestions(text string, technicalCount, behavioralCount int) []models.Question {
	total := technicalCount + behavioralCount
	questions := make([]models.Question, 0, total)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Question") {
			continue
		}

		body := line
		if loc := questionLabel.FindStringIndex(line); loc != nil {
			body = strings.TrimSpace(line[loc[1]:])
		}
		if body == "" {
			continue
		}
		if len(questions) == total {
			break
		}

		kind := models.QuestionBehavioral
		if len(questions) < technicalCount {
			kind = models.QuestionTechnical
		}

		questions = append(questions, models.Question{
			ID:   len(questions) + 1,
			Text: body,
			Type: kind,
		})
	}

	return questions
}

// ParseIdealAnswers splits "Answer N: ..." paragraphs. An answer runs until
// the next label or the end of the text.
func ParseIdealAnswers(text string) []models.IdealAnswer {
	locs := idealAnswerLabel.FindAllStringSubmatchIndex(text, -1)
	answers := make([]models.IdealAnswer, 0, len(locs))

	for i, loc := range locs {
		id, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}

		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		body := strings.TrimSpace(text[loc[1]:end])
		if body == "" {
			continue
		}

		answers = append(answers, models.IdealAnswer{QuestionID: id, Text: body})
	}

	return answers
}

// ParseOverallScore extracts the "Overall Score: X/10" rating of answer feedback.
func ParseOverallScore(text string) *int {
	m := overallScorePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil || v < 0 || v > 10 {
		return nil
	}
	return &v
}
