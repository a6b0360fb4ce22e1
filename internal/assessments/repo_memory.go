package assessments

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores assessments in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Assessment
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Assessment)}
}

func (r *MemoryRepo) Create(ctx context.Context, a Assessment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID] = cloneAssessment(a)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (Assessment, error) {
	if err := ctx.Err(); err != nil {
		return Assessment{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok || a.UserID != userID {
		return Assessment{}, ErrNotFound
	}
	return cloneAssessment(a), nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Assessment{}
	for _, a := range r.byID {
		if a.UserID == userID {
			out = append(out, cloneAssessment(a))
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) AddSubmission(ctx context.Context, userID, assessmentID string, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[assessmentID]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	a.Submissions = append(append([]Submission(nil), a.Submissions...), sub)
	r.byID[assessmentID] = a
	return nil
}

func (r *MemoryRepo) LatestResult(ctx context.Context, userID string) (LatestResult, error) {
	if err := ctx.Err(); err != nil {
		return LatestResult{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best LatestResult
	found := false
	for _, a := range r.byID {
		if a.UserID != userID {
			continue
		}
		sub, ok := a.latestSubmission()
		if !ok {
			continue
		}
		if !found || sub.EvaluatedAt.After(best.EvaluatedAt) {
			best = LatestResult{
				AssessmentID: a.ID,
				Profession:   a.Profession,
				Difficulty:   a.Difficulty,
				TotalScore:   sub.TotalScore,
				Breakdown:    sub.Breakdown,
				EvaluatedAt:  sub.EvaluatedAt,
			}
			found = true
		}
	}
	if !found {
		return LatestResult{}, ErrNotFound
	}
	return best, nil
}

func (r *MemoryRepo) Reassign(ctx context.Context, fromUserID, toUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for id, a := range r.byID {
		if a.UserID == fromUserID {
			a.UserID = toUserID
			r.byID[id] = a
			moved++
		}
	}
	return moved, nil
}

func cloneAssessment(a Assessment) Assessment {
	a.Questions = append(make(Questions, 0, len(a.Questions)), a.Questions...)
	a.AnswerKey = append(make([]AnswerKeyEntry, 0, len(a.AnswerKey)), a.AnswerKey...)
	a.Submissions = append(make([]Submission, 0, len(a.Submissions)), a.Submissions...)
	return a
}
