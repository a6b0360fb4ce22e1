package assessments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, a Assessment) error {
	const query = `
INSERT INTO assessments (id, user_id, profession, difficulty, num_questions, mix, questions, answer_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	questions, err := json.Marshal(a.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	key, err := json.Marshal(a.AnswerKey)
	if err != nil {
		return fmt.Errorf("marshal answer key: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.Profession,
		string(a.Difficulty),
		a.NumQuestions,
		string(a.Mix),
		questions,
		key,
		a.CreatedAt,
	)
	return err
}

func (r *PGRepo) Get(ctx context.Context, userID, id string) (Assessment, error) {
	const query = `
SELECT id, user_id, profession, difficulty, num_questions, mix, questions, answer_key, created_at
FROM assessments
WHERE id = $1 AND user_id = $2
LIMIT 1`
	a, err := scanAssessment(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return Assessment{}, err
	}
	subs, err := r.submissions(ctx, `
SELECT assessment_id, id, answers, breakdown, total_score, evaluated_at
FROM assessment_submissions
WHERE assessment_id = $1
ORDER BY evaluated_at ASC`, id)
	if err != nil {
		return Assessment{}, err
	}
	a.Submissions = subs[id]
	if a.Submissions == nil {
		a.Submissions = []Submission{}
	}
	return a, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Assessment, error) {
	const query = `
SELECT id, user_id, profession, difficulty, num_questions, mix, questions, answer_key, created_at
FROM assessments
WHERE user_id = $1
ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	subs, err := r.submissions(ctx, `
SELECT assessment_id, id, answers, breakdown, total_score, evaluated_at
FROM assessment_submissions
WHERE user_id = $1
ORDER BY evaluated_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Submissions = subs[out[i].ID]
		if out[i].Submissions == nil {
			out[i].Submissions = []Submission{}
		}
	}
	return out, nil
}

// AddSubmission inserts the submission only when the assessment belongs to userID.
func (r *PGRepo) AddSubmission(ctx context.Context, userID, assessmentID string, sub Submission) error {
	const query = `
INSERT INTO assessment_submissions (id, assessment_id, user_id, answers, breakdown, total_score, evaluated_at)
SELECT $1, a.id, a.user_id, $4, $5, $6, $7
FROM assessments a
WHERE a.id = $2 AND a.user_id = $3`
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	breakdown, err := json.Marshal(sub.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query, sub.ID, assessmentID, userID, answers, breakdown, sub.TotalScore, sub.EvaluatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) LatestResult(ctx context.Context, userID string) (LatestResult, error) {
	const query = `
SELECT s.assessment_id, a.profession, a.difficulty, s.total_score, s.breakdown, s.evaluated_at
FROM assessment_submissions s
JOIN assessments a ON a.id = s.assessment_id
WHERE a.user_id = $1
ORDER BY s.evaluated_at DESC
LIMIT 1`
	var (
		out        LatestResult
		difficulty string
		breakdown  []byte
	)
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&out.AssessmentID, &out.Profession, &difficulty, &out.TotalScore, &breakdown, &out.EvaluatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return LatestResult{}, ErrNotFound
	}
	if err != nil {
		return LatestResult{}, err
	}
	out.Difficulty = Difficulty(difficulty)
	if err := json.Unmarshal(breakdown, &out.Breakdown); err != nil {
		return LatestResult{}, fmt.Errorf("decode breakdown: %w", err)
	}
	return out, nil
}

func (r *PGRepo) Reassign(ctx context.Context, fromUserID, toUserID string) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE assessments SET user_id = $2 WHERE user_id = $1`, fromUserID, toUserID)
	if err != nil {
		return 0, err
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE assessment_submissions SET user_id = $2 WHERE user_id = $1`, fromUserID, toUserID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(moved), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (Assessment, error) {
	var (
		a          Assessment
		difficulty string
		mix        string
		questions  []byte
		key        []byte
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Profession, &difficulty, &a.NumQuestions, &mix, &questions, &key, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Assessment{}, ErrNotFound
	}
	if err != nil {
		return Assessment{}, err
	}
	a.Difficulty = Difficulty(difficulty)
	a.Mix = Mix(mix)
	if err := json.Unmarshal(questions, &a.Questions); err != nil {
		return Assessment{}, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal(key, &a.AnswerKey); err != nil {
		return Assessment{}, fmt.Errorf("decode answer key: %w", err)
	}
	return a, nil
}

// submissions groups the rows of query by assessment id.
func (r *PGRepo) submissions(ctx context.Context, query string, arg string) (map[string][]Submission, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Submission)
	for rows.Next() {
		var (
			assessmentID string
			sub          Submission
			answers      []byte
			breakdown    []byte
		)
		if err := rows.Scan(&assessmentID, &sub.ID, &answers, &breakdown, &sub.TotalScore, &sub.EvaluatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &sub.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		if err := json.Unmarshal(breakdown, &sub.Breakdown); err != nil {
			return nil, fmt.Errorf("decode breakdown: %w", err)
		}
		out[assessmentID] = append(out[assessmentID], sub)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
var _ Repo = (*MemoryRepo)(nil)
