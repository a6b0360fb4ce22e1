package cv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cv-builder/internal/assessments"
	"cv-builder/internal/shared/telemetry"
	"cv-builder/resume/coverletter"
	"cv-builder/resume/model"
	"cv-builder/resume/render"
	"cv-builder/resume/schema"
)

// AssessmentSource reads the caller's assessments. *assessments.Service
// satisfies it.
type AssessmentSource interface {
	Get(ctx context.Context, userID, id string) (assessments.Assessment, error)
	LatestResult(ctx context.Context, userID string) (assessments.LatestResult, error)
}

// Service contains CV business logic.
type Service struct {
	Repo        Repo
	Renderers   map[render.Format]render.Renderer
	Assessments AssessmentSource
	Photos      PhotoStore
	Now         func() time.Time
	NewID       func() string
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

// Validate turns a raw request body into a normalized CV.
func Validate(raw []byte) (model.CV, error) {
	res := schema.Validate(raw)
	if !res.OK() {
		return model.CV{}, &ValidationError{Fields: res.Errors}
	}
	return res.CV, nil
}

// documentID reads the optional record id of a save request. The legacy
// "_id" key is accepted when "id" is absent.
func documentID(raw []byte) (string, error) {
	var keys struct {
		ID       json.RawMessage `json:"id"`
		LegacyID json.RawMessage `json:"_id"`
	}
	if err := json.Unmarshal(raw, &keys); err != nil {
		return "", nil
	}
	for _, candidate := range []struct {
		path string
		raw  json.RawMessage
	}{{"id", keys.ID}, {"_id", keys.LegacyID}} {
		if len(candidate.raw) == 0 || bytes.Equal(candidate.raw, []byte("null")) {
			continue
		}
		var id string
		if err := json.Unmarshal(candidate.raw, &id); err != nil {
			return "", invalidField(candidate.path, "must be a string")
		}
		if id = strings.TrimSpace(id); id != "" {
			return id, nil
		}
	}
	return "", nil
}

// Save validates the document and stores it. A body without an id creates a
// new record; an id owned by someone else is reported as not found.
func (s *Service) Save(ctx context.Context, userID string, raw []byte) (Record, error) {
	doc, err := Validate(raw)
	if err != nil {
		return Record{}, err
	}
	id, err := documentID(raw)
	if err != nil {
		return Record{}, err
	}
	if id == "" {
		id = s.newID()
	}
	now := s.now()
	rec, err := s.Repo.Save(ctx, Record{ID: id, UserID: userID, Document: doc, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, err
		}
		telemetry.Error("cv.save_failed", map[string]any{"user_id": userID, "cv_id": id, "error": err.Error()})
		return Record{}, fmt.Errorf("save cv: %w", err)
	}
	return rec, nil
}

// Create stores an empty CV with the given title and template.
func (s *Service) Create(ctx context.Context, userID, title, template string) (Record, error) {
	res := schema.ValidateMap(map[string]any{"title": title, "template": template})
	if !res.OK() {
		return Record{}, &ValidationError{Fields: res.Errors}
	}
	now := s.now()
	return s.Repo.Save(ctx, Record{ID: s.newID(), UserID: userID, Document: res.CV, CreatedAt: now, UpdatedAt: now})
}

func (s *Service) Get(ctx context.Context, userID, id string) (Record, error) {
	return s.Repo.Get(ctx, userID, strings.TrimSpace(id))
}

// List returns summaries of the user's CVs, most recently updated first.
func (s *Service) List(ctx context.Context, userID string) ([]Summary, error) {
	recs, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Summarize())
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.Repo.Delete(ctx, userID, strings.TrimSpace(id))
}

// ClaimGuest moves a guest's CVs to an account.
func (s *Service) ClaimGuest(ctx context.Context, guestID, userID string) (int, error) {
	return s.Repo.Reassign(ctx, guestID, userID)
}

// CoverLetter composes a letter from the document and the caller's latest
// assessment result, if any.
func (s *Service) CoverLetter(ctx context.Context, userID string, raw []byte) (coverletter.Letter, error) {
	doc, err := Validate(raw)
	if err != nil {
		return coverletter.Letter{}, err
	}
	return coverletter.Compose(doc, s.latestResult(ctx, userID)), nil
}

// latestResult never fails the caller: a missing result or a lookup error
// both compose the letter without the assessment paragraph.
func (s *Service) latestResult(ctx context.Context, userID string) *coverletter.AssessmentResult {
	if s.Assessments == nil {
		return nil
	}
	latest, err := s.Assessments.LatestResult(ctx, userID)
	if err != nil {
		if !errors.Is(err, assessments.ErrNotFound) {
			telemetry.Warn("cv.cover_letter_result_unavailable", map[string]any{"user_id": userID, "error": err.Error()})
		}
		return nil
	}
	return &coverletter.AssessmentResult{
		Profession: latest.Profession,
		Difficulty: string(latest.Difficulty),
		Score:      latest.TotalScore,
	}
}

// AttachAssessmentSummary writes a one-line summary of the assessment's
// latest submission into the CV's assessment section and saves the CV.
// Results below the cover letter threshold are rejected.
func (s *Service) AttachAssessmentSummary(ctx context.Context, userID, cvID, assessmentID string) (Record, error) {
	cvID, assessmentID = strings.TrimSpace(cvID), strings.TrimSpace(assessmentID)
	if cvID == "" {
		return Record{}, invalidField("cvId", "is required")
	}
	if assessmentID == "" {
		return Record{}, invalidField("assessmentId", "is required")
	}
	if s.Assessments == nil {
		return Record{}, ErrNotFound
	}
	rec, err := s.Repo.Get(ctx, userID, cvID)
	if err != nil {
		return Record{}, err
	}
	a, err := s.Assessments.Get(ctx, userID, assessmentID)
	if err != nil {
		if errors.Is(err, assessments.ErrNotFound) {
			return Record{}, fmt.Errorf("assessment %s: %w", assessmentID, ErrNotFound)
		}
		return Record{}, err
	}
	summary, err := AssessmentSummary(a)
	if err != nil {
		return Record{}, err
	}
	rec.Document.AdditionalSections.Assessment = summary
	res := schema.ValidateCV(rec.Document)
	if !res.OK() {
		return Record{}, &ValidationError{Fields: res.Errors}
	}
	rec.Document = res.CV
	rec.UpdatedAt = s.now()
	return s.Repo.Save(ctx, rec)
}

// AssessmentSummary renders "Profession: … | Level: … | Questions: … |
// Score: …% | Date: …" for the latest submission of a.
func AssessmentSummary(a assessments.Assessment) (string, error) {
	var latest *assessments.Submission
	for i := range a.Submissions {
		if latest == nil || a.Submissions[i].EvaluatedAt.After(latest.EvaluatedAt) {
			latest = &a.Submissions[i]
		}
	}
	if latest == nil {
		return "", invalidField("assessmentId", "assessment has no submissions")
	}
	if latest.TotalScore < coverletter.AssessmentThreshold {
		return "", invalidField("assessmentId", fmt.Sprintf("score must be at least %d%%", int(coverletter.AssessmentThreshold*100)))
	}
	parts := []string{}
	if a.Profession != "" {
		parts = append(parts, "Profession: "+a.Profession)
	}
	if a.Difficulty != "" {
		parts = append(parts, "Level: "+string(a.Difficulty))
	}
	parts = append(parts,
		fmt.Sprintf("Questions: %d", len(a.Questions)),
		fmt.Sprintf("Score: %.0f%%", latest.TotalScore*100),
		"Date: "+latest.EvaluatedAt.UTC().Format("2006-01-02"),
	)
	return strings.Join(parts, " | "), nil
}
