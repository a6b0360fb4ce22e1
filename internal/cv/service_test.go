package cv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-builder/internal/assessments"
	local "cv-builder/internal/shared/storage/object/local"
	"cv-builder/resume/model"
	"cv-builder/resume/render"
)

const sampleDocument = `{
  "title": "Backend CV",
  "personalInfo": {"givenName": "Ann", "familyName": "Lee", "jobPosition": "Backend Engineer", "email": "ann@example.com"},
  "employment": [{"position": "Engineer", "company": "Acme", "startDate": "2020-01", "current": true}],
  "skills": [{"skill": "Go", "level": "expert"}],
  "template": "classic"
}`

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type panicRenderer struct{}

func (panicRenderer) Format() render.Format          { return render.FormatPDF }
func (panicRenderer) Render(model.CV) ([]byte, error) { panic("boom") }

type failingRenderer struct{}

func (failingRenderer) Format() render.Format { return render.FormatDOCX }
func (failingRenderer) Render(model.CV) ([]byte, error) {
	return nil, errors.New("disk full")
}

type fixture struct {
	svc         *Service
	repo        *MemoryRepo
	assessments *assessments.MemoryRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := NewMemoryRepo()
	aRepo := assessments.NewMemoryRepo()
	n := 0
	svc := &Service{
		Repo:        repo,
		Renderers:   DefaultRenderers([]string{}),
		Assessments: &assessments.Service{Repo: aRepo},
		Photos:      local.New(t.TempDir()),
		Now:         func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("cv-%d", n)
		},
	}
	return fixture{svc: svc, repo: repo, assessments: aRepo}
}

func (f fixture) seedAssessment(t *testing.T, userID string, score float64) assessments.Assessment {
	t.Helper()
	a := assessments.Assessment{
		ID:         "a-1",
		UserID:     userID,
		Profession: "Backend Engineer",
		Difficulty: assessments.DifficultySenior,
		Questions: assessments.Questions{
			assessments.MCQ{ID: "m1", Prompt: "Pick the right one", Options: []string{"a", "b"}},
			assessments.MCQ{ID: "m2", Prompt: "Pick the other one", Options: []string{"a", "b"}},
		},
		CreatedAt: testNow.Add(-time.Hour),
	}
	require.NoError(t, f.assessments.Create(context.Background(), a))
	require.NoError(t, f.assessments.AddSubmission(context.Background(), userID, a.ID, assessments.Submission{
		ID:          "s-1",
		TotalScore:  score,
		EvaluatedAt: testNow.Add(-time.Minute),
	}))
	return a
}

func TestSaveCreatesAndReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Save(ctx, "user-1", []byte(sampleDocument))
	require.NoError(t, err)
	assert.Equal(t, "cv-1", rec.ID)
	assert.Equal(t, model.TemplateClassic, rec.Document.Template)

	updated := strings.Replace(sampleDocument, `"title": "Backend CV"`, `"id": "cv-1", "title": "Renamed"`, 1)
	later := testNow.Add(time.Hour)
	f.svc.Now = func() time.Time { return later }
	rec, err = f.svc.Save(ctx, "user-1", []byte(updated))
	require.NoError(t, err)
	assert.Equal(t, "cv-1", rec.ID)
	assert.Equal(t, "Renamed", rec.Document.Title)
	assert.Equal(t, testNow, rec.CreatedAt)
	assert.Equal(t, later, rec.UpdatedAt)

	items, err := f.svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, Summary{
		ID:          "cv-1",
		Title:       "Renamed",
		FullName:    "Ann Lee",
		JobPosition: "Backend Engineer",
		Template:    model.TemplateClassic,
		UpdatedAt:   later,
	}, items[0])
}

func TestSaveAcceptsLegacyID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Save(ctx, "user-1", []byte(`{"_id": "legacy-7", "title": "Old"}`))
	require.NoError(t, err)

	rec, err := f.svc.Get(ctx, "user-1", "legacy-7")
	require.NoError(t, err)
	assert.Equal(t, "Old", rec.Document.Title)
}

func TestSaveForeignIDIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Save(ctx, "user-1", []byte(`{"id": "shared", "title": "Mine"}`))
	require.NoError(t, err)

	_, err = f.svc.Save(ctx, "user-2", []byte(`{"id": "shared", "title": "Theirs"}`))
	require.ErrorIs(t, err, ErrNotFound)

	rec, err := f.svc.Get(ctx, "user-1", "shared")
	require.NoError(t, err)
	assert.Equal(t, "Mine", rec.Document.Title)
}

func TestSaveRejectsInvalidDocument(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("x", 2001)
	_, err := f.svc.Save(context.Background(), "user-1", []byte(`{"additionalSections": {"profile": "`+long+`"}}`))
	require.ErrorIs(t, err, ErrInvalidInput)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "additionalSections.profile", verr.Fields[0].Path)

	_, err = f.svc.Save(context.Background(), "user-1", []byte(`{"id": 12}`))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "id", verr.Fields[0].Path)
}

func TestCreateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Create(ctx, "user-1", "", "EUROPASS")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTitle, rec.Document.Title)
	assert.Equal(t, model.TemplateEuropass, rec.Document.Template)
	assert.NotNil(t, rec.Document.Employment)

	_, err = f.svc.Create(ctx, "user-1", "x", "fancy")
	require.ErrorIs(t, err, ErrInvalidInput)

	require.ErrorIs(t, f.svc.Delete(ctx, "user-2", rec.ID), ErrNotFound)
	require.NoError(t, f.svc.Delete(ctx, "user-1", rec.ID))
	_, err = f.svc.Get(ctx, "user-1", rec.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExportRendersBothFormats(t *testing.T) {
	f := newFixture(t)
	doc, err := Validate([]byte(sampleDocument))
	require.NoError(t, err)

	pdf, err := f.svc.Export(context.Background(), doc, render.FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.Equal(t, "Backend_CV.pdf", pdf.Filename)

	docx, err := f.svc.Export(context.Background(), doc, render.FormatDOCX)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(docx.Data, []byte("PK")))
	assert.Contains(t, docx.Disposition(), `filename="Backend_CV.docx"`)
}

func TestExportStoredIsScoped(t *testing.T) {
	f := newFixture(t)
	rec, err := f.svc.Save(context.Background(), "user-1", []byte(sampleDocument))
	require.NoError(t, err)

	_, err = f.svc.ExportStored(context.Background(), "user-2", rec.ID, render.FormatPDF)
	require.ErrorIs(t, err, ErrNotFound)

	out, err := f.svc.ExportStored(context.Background(), "user-1", rec.ID, render.FormatPDF)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Data)
}

func TestExportRecoversRendererFailures(t *testing.T) {
	f := newFixture(t)
	f.svc.Renderers = map[render.Format]render.Renderer{
		render.FormatPDF:  panicRenderer{},
		render.FormatDOCX: failingRenderer{},
	}
	doc := model.New("", "")

	_, err := f.svc.Export(context.Background(), doc, render.FormatPDF)
	require.ErrorIs(t, err, ErrRender)
	_, err = f.svc.Export(context.Background(), doc, render.FormatDOCX)
	require.ErrorIs(t, err, ErrRender)
}

func TestParseFormat(t *testing.T) {
	got, err := ParseFormat("DOCX")
	require.NoError(t, err)
	assert.Equal(t, render.FormatDOCX, got)

	_, err = ParseFormat("odt")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCoverLetterUsesLatestResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	letter, err := f.svc.CoverLetter(ctx, "user-1", []byte(sampleDocument))
	require.NoError(t, err)
	assert.NotContains(t, letter.Text(), "skills assessment")

	f.seedAssessment(t, "user-1", 0.9)
	letter, err = f.svc.CoverLetter(ctx, "user-1", []byte(sampleDocument))
	require.NoError(t, err)
	assert.Contains(t, letter.Text(), "Backend Engineer skills assessment at senior level")
	assert.NotContains(t, letter.Text(), "90")
}

func TestAttachAssessmentSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Save(ctx, "user-1", []byte(sampleDocument))
	require.NoError(t, err)
	a := f.seedAssessment(t, "user-1", 0.85)

	updated, err := f.svc.AttachAssessmentSummary(ctx, "user-1", rec.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t,
		"Profession: Backend Engineer | Level: senior | Questions: 2 | Score: 85% | Date: 2024-06-01",
		updated.Document.AdditionalSections.Assessment)

	_, err = f.svc.AttachAssessmentSummary(ctx, "user-2", rec.ID, a.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.AttachAssessmentSummary(ctx, "user-1", rec.ID, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAttachAssessmentSummaryBelowThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Save(ctx, "user-1", []byte(sampleDocument))
	require.NoError(t, err)
	a := f.seedAssessment(t, "user-1", 0.64)

	_, err = f.svc.AttachAssessmentSummary(ctx, "user-1", rec.ID, a.ID)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestUploadPhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	photo, err := f.svc.UploadPhoto(ctx, "user-1", "me.png", bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(photo.Photo, "data:image/png;base64,"))
	assert.NotEmpty(t, photo.StorageKey)
	_, err = model.ParsePhoto(photo.Photo)
	require.NoError(t, err)

	_, err = f.svc.UploadPhoto(ctx, "user-1", "notes.txt", strings.NewReader("plain text"))
	require.ErrorIs(t, err, ErrInvalidInput)

	big := append(pngBytes(t), make([]byte, model.MaxPhotoBytes)...)
	_, err = f.svc.UploadPhoto(ctx, "user-1", "big.png", bytes.NewReader(big))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestClaimGuestMovesCVs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Save(ctx, "guest:abc", []byte(sampleDocument))
	require.NoError(t, err)

	moved, err := f.svc.ClaimGuest(ctx, "guest:abc", "local:1")
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	_, err = f.svc.Get(ctx, "local:1", rec.ID)
	require.NoError(t, err)
}
