package assessments

import (
	"encoding/json"
	"fmt"
	"time"
)

type Difficulty string

const (
	DifficultyJunior Difficulty = "junior"
	DifficultyMiddle Difficulty = "middle"
	DifficultySenior Difficulty = "senior"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyJunior, DifficultyMiddle, DifficultySenior:
		return true
	}
	return false
}

// Mix selects which question types are requested.
type Mix string

const (
	MixMixed Mix = "mixed"
	MixMCQ   Mix = "mcq"
	MixOpen  Mix = "open"
)

func (m Mix) Valid() bool {
	switch m {
	case MixMixed, MixMCQ, MixOpen:
		return true
	}
	return false
}

// Question types as they appear on the wire.
const (
	TypeMCQ  = "mcq"
	TypeOpen = "open"
)

// Question is either an MCQ or an Open question.
type Question interface {
	QuestionID() string
	Type() string
	question()
}

// MCQ is a multiple choice question. The correct option lives in the
// assessment's answer key, never here.
type MCQ struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// Open is an open-ended question graded against its rubric.
type Open struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Rubric Rubric `json:"rubric"`
}

type Rubric struct {
	KeyPoints []string `json:"keyPoints"`
	Scoring   string   `json:"scoring"`
}

func (q MCQ) QuestionID() string  { return q.ID }
func (q MCQ) Type() string        { return TypeMCQ }
func (MCQ) question()             {}
func (q Open) QuestionID() string { return q.ID }
func (q Open) Type() string       { return TypeOpen }
func (Open) question()            {}

func (q MCQ) MarshalJSON() ([]byte, error) {
	type plain MCQ
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypeMCQ, plain(q)})
}

func (q Open) MarshalJSON() ([]byte, error) {
	type plain Open
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypeOpen, plain(q)})
}

// Questions is a list of questions with a tagged JSON encoding.
type Questions []Question

func (qs *Questions) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Questions, 0, len(raw))
	for i, item := range raw {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		switch head.Type {
		case TypeMCQ:
			var q MCQ
			if err := json.Unmarshal(item, &q); err != nil {
				return fmt.Errorf("question %d: %w", i, err)
			}
			out = append(out, q)
		case TypeOpen:
			var q Open
			if err := json.Unmarshal(item, &q); err != nil {
				return fmt.Errorf("question %d: %w", i, err)
			}
			out = append(out, q)
		default:
			return fmt.Errorf("question %d: %w %q", i, ErrUnknownQuestion, head.Type)
		}
	}
	*qs = out
	return nil
}

// AnswerKeyEntry holds the correct option of one MCQ.
type AnswerKeyEntry struct {
	ID           string `json:"id"`
	CorrectIndex int    `json:"correctIndex"`
	Explanation  string `json:"explanation,omitempty"`
}

// Answer is one graded answer of a submission.
type Answer struct {
	ID       string          `json:"id"`
	Answer   json.RawMessage `json:"answer"`
	Score    float64         `json:"score"`
	Feedback string          `json:"feedback"`
}

// BreakdownItem is the per-question grading result.
type BreakdownItem struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Correct      *bool    `json:"correct,omitempty"`
	Score        float64  `json:"score"`
	Reasoning    string   `json:"reasoning"`
	MissedPoints []string `json:"missedPoints,omitempty"`
}

// Submission is one graded attempt. Submissions are only ever appended.
type Submission struct {
	ID          string          `json:"id"`
	Answers     []Answer        `json:"answers"`
	TotalScore  float64         `json:"totalScore"`
	Breakdown   []BreakdownItem `json:"breakdown"`
	EvaluatedAt time.Time       `json:"evaluatedAt"`
}

// Assessment is a generated test. AnswerKey is never serialized.
type Assessment struct {
	ID           string           `json:"id"`
	UserID       string           `json:"-"`
	Profession   string           `json:"profession"`
	Difficulty   Difficulty       `json:"difficulty"`
	NumQuestions int              `json:"numQuestions"`
	Mix          Mix              `json:"mix"`
	Questions    Questions        `json:"questions"`
	AnswerKey    []AnswerKeyEntry `json:"-"`
	Submissions  []Submission     `json:"submissions"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// Result is returned after grading a submission.
type Result struct {
	AssessmentID string          `json:"assessmentId"`
	SubmissionID string          `json:"submissionId"`
	TotalScore   float64         `json:"totalScore"`
	Breakdown    []BreakdownItem `json:"breakdown"`
	EvaluatedAt  time.Time       `json:"evaluatedAt"`
}

// LatestResult is the most recent submission across a user's assessments.
type LatestResult struct {
	AssessmentID string          `json:"assessmentId"`
	Profession   string          `json:"profession"`
	Difficulty   Difficulty      `json:"difficulty"`
	TotalScore   float64         `json:"totalScore"`
	Breakdown    []BreakdownItem `json:"breakdown"`
	EvaluatedAt  time.Time       `json:"evaluatedAt"`
}

// Summary is the list view of an assessment.
type Summary struct {
	ID           string     `json:"id"`
	Profession   string     `json:"profession"`
	Difficulty   Difficulty `json:"difficulty"`
	NumQuestions int        `json:"numQuestions"`
	Submissions  int        `json:"submissions"`
	LatestScore  *float64   `json:"latestScore,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Summarize builds the list view.
func (a Assessment) Summarize() Summary {
	s := Summary{
		ID:           a.ID,
		Profession:   a.Profession,
		Difficulty:   a.Difficulty,
		NumQuestions: len(a.Questions),
		Submissions:  len(a.Submissions),
		CreatedAt:    a.CreatedAt,
	}
	if latest, ok := a.latestSubmission(); ok {
		score := latest.TotalScore
		s.LatestScore = &score
	}
	return s
}

func (a Assessment) latestSubmission() (Submission, bool) {
	var latest Submission
	found := false
	for _, sub := range a.Submissions {
		if !found || sub.EvaluatedAt.After(latest.EvaluatedAt) {
			latest, found = sub, true
		}
	}
	return latest, found
}
