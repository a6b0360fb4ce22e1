package assessments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"cv-builder/internal/llm"
	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/telemetry"
)

const (
	MaxProfessionLen    = 200
	DefaultNumQuestions = 10
	MaxNumQuestions     = 30
)

// GenerateRequest is the input of Generate. Zero values take defaults.
type GenerateRequest struct {
	Profession   string     `json:"profession"`
	Difficulty   Difficulty `json:"difficulty"`
	NumQuestions int        `json:"numQuestions"`
	Mix          Mix        `json:"mix"`
}

// SubmittedAnswer carries an option index (number or numeric string) for
// MCQs or free text for open questions.
type SubmittedAnswer struct {
	ID     string          `json:"id"`
	Answer json.RawMessage `json:"answer"`
}

type SubmitRequest struct {
	AssessmentID string            `json:"assessmentId"`
	Answers      []SubmittedAnswer `json:"answers"`
}

// Service generates and grades assessments.
type Service struct {
	Repo  Repo
	LLM   llm.Client
	Now   func() time.Time
	NewID func() string
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// QuestionMix returns the requested number of mcq and open questions.
func QuestionMix(n int, mix Mix) (mcq, open int) {
	switch mix {
	case MixMCQ:
		return n, 0
	case MixOpen:
		return 0, n
	}
	mcq = int(math.Max(2, math.Round(float64(n)*0.7)))
	open = int(math.Max(1, float64(n-mcq)))
	return mcq, open
}

func (r *GenerateRequest) normalize() error {
	r.Profession = strings.TrimSpace(r.Profession)
	if r.Profession == "" {
		return invalid("profession", "is required")
	}
	if utf8.RuneCountInString(r.Profession) > MaxProfessionLen {
		return invalid("profession", fmt.Sprintf("must be at most %d characters", MaxProfessionLen))
	}
	r.Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(string(r.Difficulty))))
	if r.Difficulty == "" {
		r.Difficulty = DifficultyJunior
	}
	if !r.Difficulty.Valid() {
		return invalid("difficulty", "must be one of junior, middle, senior")
	}
	if r.NumQuestions == 0 {
		r.NumQuestions = DefaultNumQuestions
	}
	if r.NumQuestions < 1 || r.NumQuestions > MaxNumQuestions {
		return invalid("numQuestions", fmt.Sprintf("must be between 1 and %d", MaxNumQuestions))
	}
	r.Mix = Mix(strings.ToLower(strings.TrimSpace(string(r.Mix))))
	if r.Mix == "" {
		r.Mix = MixMixed
	}
	if !r.Mix.Valid() {
		return invalid("mix", "must be one of mixed, mcq, open")
	}
	return nil
}

// Generate asks the provider for questions, moves the MCQ answers into the
// answer key and persists the assessment. Nothing is stored on failure.
func (s *Service) Generate(ctx context.Context, userID string, req GenerateRequest) (Assessment, error) {
	if err := req.normalize(); err != nil {
		return Assessment{}, err
	}
	mcq, open := QuestionMix(req.NumQuestions, req.Mix)
	prompt := llm.GenerationPrompt(llm.GenerationParams{
		Profession:   req.Profession,
		Difficulty:   string(req.Difficulty),
		NumQuestions: req.NumQuestions,
		MCQ:          mcq,
		Open:         open,
	})

	var (
		questions Questions
		key       []AnswerKeyEntry
	)
	err := completeJSON(ctx, s.LLM, llm.PurposeGenerate, prompt, func(text string) error {
		var err error
		questions, key, err = parseGenerated(text)
		return err
	})
	metrics.IncAssessmentGenerated(err)
	if err != nil {
		telemetry.Error("assessment.generate_failed", map[string]any{
			"user_id":    userID,
			"profession": req.Profession,
			"error":      err.Error(),
		})
		return Assessment{}, err
	}

	a := Assessment{
		ID:           s.newID(),
		UserID:       userID,
		Profession:   req.Profession,
		Difficulty:   req.Difficulty,
		NumQuestions: req.NumQuestions,
		Mix:          req.Mix,
		Questions:    questions,
		AnswerKey:    key,
		Submissions:  []Submission{},
		CreatedAt:    s.now(),
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		return Assessment{}, fmt.Errorf("store assessment: %w", err)
	}
	telemetry.Info("assessment.generated", map[string]any{
		"user_id":       userID,
		"assessment_id": a.ID,
		"questions":     len(questions),
		"mcq":           len(key),
	})
	return a, nil
}

// Get returns one of the user's assessments.
func (s *Service) Get(ctx context.Context, userID, id string) (Assessment, error) {
	return s.Repo.Get(ctx, userID, strings.TrimSpace(id))
}

// List returns summaries of the user's assessments, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	items, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(items))
	for _, a := range items {
		out = append(out, a.Summarize())
	}
	return out, nil
}

// LatestResult returns the user's most recent submission.
func (s *Service) LatestResult(ctx context.Context, userID string) (LatestResult, error) {
	return s.Repo.LatestResult(ctx, userID)
}

// ClaimGuest moves a guest's assessments to an account.
func (s *Service) ClaimGuest(ctx context.Context, guestID, userID string) (int, error) {
	return s.Repo.Reassign(ctx, guestID, userID)
}

// Submit grades the answers and appends the submission. MCQs are graded
// against the answer key without calling the provider; open answers are
// graded by the provider. Any grading failure stores nothing.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (Result, error) {
	id := strings.TrimSpace(req.AssessmentID)
	if id == "" {
		return Result{}, invalid("assessmentId", "is required")
	}
	a, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return Result{}, err
	}

	answers := make(map[string]json.RawMessage, len(req.Answers))
	for _, ans := range req.Answers {
		key := strings.TrimSpace(ans.ID)
		if _, dup := answers[key]; !dup {
			answers[key] = ans.Answer
		}
	}

	sub, err := s.grade(ctx, a, answers)
	metrics.IncAssessmentGraded(err)
	if err != nil {
		telemetry.Error("assessment.grade_failed", map[string]any{
			"user_id":       userID,
			"assessment_id": a.ID,
			"error":         err.Error(),
		})
		return Result{}, err
	}
	if err := s.Repo.AddSubmission(ctx, userID, a.ID, sub); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("store submission: %w", err)
	}
	return Result{
		AssessmentID: a.ID,
		SubmissionID: sub.ID,
		TotalScore:   sub.TotalScore,
		Breakdown:    sub.Breakdown,
		EvaluatedAt:  sub.EvaluatedAt,
	}, nil
}

func (s *Service) grade(ctx context.Context, a Assessment, answers map[string]json.RawMessage) (Submission, error) {
	keys := make(map[string]AnswerKeyEntry, len(a.AnswerKey))
	for _, k := range a.AnswerKey {
		keys[k.ID] = k
	}

	sub := Submission{
		ID:        s.newID(),
		Answers:   make([]Answer, 0, len(a.Questions)),
		Breakdown: make([]BreakdownItem, 0, len(a.Questions)),
	}
	for _, q := range a.Questions {
		raw, answered := answers[q.QuestionID()]
		var item BreakdownItem
		switch q := q.(type) {
		case MCQ:
			item = gradeMCQ(q, keys[q.ID], raw)
		case Open:
			var err error
			item, err = s.gradeOpen(ctx, q, raw)
			if err != nil {
				return Submission{}, fmt.Errorf("grade %s: %w", q.ID, err)
			}
		default:
			return Submission{}, fmt.Errorf("grade %s: %w", q.QuestionID(), ErrUnknownQuestion)
		}
		item.Score = clamp01(item.Score)
		sub.Breakdown = append(sub.Breakdown, item)
		if answered {
			sub.Answers = append(sub.Answers, Answer{ID: item.ID, Answer: raw, Score: item.Score, Feedback: item.Reasoning})
		}
	}
	sub.TotalScore = Aggregate(sub.Breakdown)
	sub.EvaluatedAt = s.now()
	return sub, nil
}

// Aggregate is the mean score over all questions, 0 when there are none.
func Aggregate(items []BreakdownItem) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += it.Score
	}
	return sum / float64(len(items))
}

func gradeMCQ(q MCQ, key AnswerKeyEntry, raw json.RawMessage) BreakdownItem {
	choice, ok := parseChoice(raw)
	correct := ok && key.ID == q.ID && choice == key.CorrectIndex
	item := BreakdownItem{ID: q.ID, Type: TypeMCQ, Correct: &correct, Reasoning: key.Explanation}
	if correct {
		item.Score = 1
	}
	return item
}

// parseChoice accepts a JSON integer or a string holding one.
func parseChoice(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		n = json.Number(strings.TrimSpace(s))
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, false
	}
	return v, true
}

// answerText renders an open answer as text. Non-string JSON is used verbatim.
func answerText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

func (s *Service) gradeOpen(ctx context.Context, q Open, raw json.RawMessage) (BreakdownItem, error) {
	item := BreakdownItem{ID: q.ID, Type: TypeOpen}
	answer := answerText(raw)
	if answer == "" {
		item.Reasoning = "No answer given."
		item.MissedPoints = q.Rubric.KeyPoints
		return item, nil
	}

	prompt := llm.GradingPrompt(llm.GradingParams{
		Question:  q.Prompt,
		KeyPoints: q.Rubric.KeyPoints,
		Scoring:   q.Rubric.Scoring,
		Answer:    answer,
	})
	var grade openGrade
	err := completeJSON(ctx, s.LLM, llm.PurposeGrade, prompt, func(text string) error {
		var err error
		grade, err = parseGrade(text)
		return err
	})
	if err != nil {
		return BreakdownItem{}, err
	}
	item.Score = grade.Score
	item.Reasoning = grade.Reasoning
	item.MissedPoints = grade.MissedPoints
	return item, nil
}

// completeJSON calls the provider and parses its output. Unusable output is
// retried once with a JSON-only instruction; a second failure is a provider
// error. Transport failures are not retried here.
func completeJSON(ctx context.Context, client llm.Client, purpose llm.Purpose, prompt string, parse func(string) error) error {
	if client == nil {
		return fmt.Errorf("%w: no client", llm.ErrProviderUnavailable)
	}
	text, err := client.Complete(ctx, llm.Request{Purpose: purpose, System: llm.SystemMessage, Prompt: prompt})
	if err != nil {
		return wrapProvider(err)
	}
	firstErr := parse(text)
	if firstErr == nil {
		return nil
	}
	telemetry.Warn("assessment.llm_output_rejected", map[string]any{
		"purpose": string(purpose),
		"attempt": 1,
		"error":   firstErr.Error(),
	})

	text, err = client.Complete(ctx, llm.Request{Purpose: purpose, System: llm.SystemMessage, Prompt: prompt + llm.RetrySuffix})
	if err != nil {
		return wrapProvider(err)
	}
	if err := parse(text); err != nil {
		return fmt.Errorf("%w: unusable output after retry: %v", llm.ErrProviderUnavailable, err)
	}
	return nil
}

func wrapProvider(err error) error {
	if errors.Is(err, llm.ErrProviderUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
