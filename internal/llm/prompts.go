package llm

import (
	_ "embed"
	"strconv"
	"strings"
)

var (
	//go:embed prompts/assessment_generate.txt
	generatePromptTemplate string
	//go:embed prompts/assessment_grade.txt
	gradePromptTemplate string
)

// SystemMessage is sent with every completion.
const SystemMessage = "You are a precise assistant. Return only JSON."

// RetrySuffix is appended to a prompt whose first answer could not be used.
const RetrySuffix = "\nReturn strictly JSON only, with no explanations and no code fences."

// GenerationParams describe the assessment to generate.
type GenerationParams struct {
	Profession   string
	Difficulty   string
	NumQuestions int
	MCQ          int
	Open         int
}

// GradingParams describe one open answer to grade.
type GradingParams struct {
	Question  string
	KeyPoints []string
	Scoring   string
	Answer    string
}

// GenerationPrompt renders the assessment generation prompt.
func GenerationPrompt(p GenerationParams) string {
	return strings.NewReplacer(
		"{{PROFESSION}}", p.Profession,
		"{{DIFFICULTY}}", p.Difficulty,
		"{{NUM_QUESTIONS}}", strconv.Itoa(p.NumQuestions),
		"{{NUM_MCQ}}", strconv.Itoa(p.MCQ),
		"{{NUM_OPEN}}", strconv.Itoa(p.Open),
	).Replace(generatePromptTemplate)
}

// GradingPrompt renders the open answer grading prompt.
func GradingPrompt(p GradingParams) string {
	return strings.NewReplacer(
		"{{QUESTION}}", p.Question,
		"{{KEY_POINTS}}", strings.Join(p.KeyPoints, "; "),
		"{{SCORING}}", p.Scoring,
		"{{ANSWER}}", p.Answer,
	).Replace(gradePromptTemplate)
}
