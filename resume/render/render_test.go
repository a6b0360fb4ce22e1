package render

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-builder/internal/extract"
	"cv-builder/resume/model"
)

// coreFonts forces the built-in Helvetica so tests do not depend on host fonts.
var coreFonts = []string{}

func sampleCV(tpl model.Template) model.CV {
	cv := model.New("Backend Resume", tpl)
	cv.PersonalInfo = model.PersonalInfo{
		GivenName:   "Ann",
		FamilyName:  "Lee",
		JobPosition: "Backend Engineer",
		Email:       "ann@example.com",
		Phone:       "+1 555 0100",
		City:        "Berlin",
	}
	cv.Employment = []model.Employment{
		{Position: "Developer", Company: "Acme", StartDate: "2020-01", Current: true, Description: "Built billing APIs in Go."},
		{Position: "Intern", Company: "Globex", StartDate: "2019-06", EndDate: "2019-12"},
	}
	cv.Education = []model.Education{{School: "TU Berlin", Degree: "BSc Computer Science", Level: model.EducationBachelor, StartYear: "2015", EndYear: "2019"}}
	cv.Skills = []model.Skill{{Skill: "Go", Level: model.SkillExpert}, {Skill: "SQL", Level: model.SkillAdvanced}}
	cv.Languages = []model.Language{{Language: "German", Level: model.LanguageC1}}
	cv.AdditionalSections.Profile = "Pragmatic engineer."
	return cv
}

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return model.PhotoDataURL("png", buf.Bytes())
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSectionsOrderAndSkipEmpty(t *testing.T) {
	cv := sampleCV(model.TemplateModern)
	cv.Languages = nil
	cv.AdditionalSections.Custom = []model.CustomSection{{Title: "", Content: "Volunteer"}, {Title: "Empty", Content: "  "}}
	cv.AdditionalSections.Footer = "References on request"

	var titles []string
	for _, s := range Sections(cv) {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{
		"Personal details", "Employment", "Education", "Skills",
		"Profile", "Additional information", "",
	}, titles)
}

func TestSectionsPreserveArrayOrder(t *testing.T) {
	cv := sampleCV(model.TemplateModern)
	sections := Sections(cv)
	require.GreaterOrEqual(t, len(sections), 2)
	emp := sections[1]
	require.Equal(t, SectionEmployment, emp.Kind)
	assert.Equal(t, "Developer", emp.Entries[0].Title)
	assert.Equal(t, "2020-01 – Present", emp.Entries[0].Meta)
	assert.Equal(t, "Intern", emp.Entries[1].Title)
}

func TestSplitSidebar(t *testing.T) {
	side, main := SplitSidebar(Sections(sampleCV(model.TemplateEuropass)))
	var kinds []SectionKind
	for _, s := range side {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []SectionKind{SectionPersonal, SectionSkills, SectionLanguages}, kinds)
	assert.Equal(t, SectionEmployment, main[0].Kind)
}

func TestThemeFallbackAndColorScheme(t *testing.T) {
	cv := sampleCV("unknown")
	theme := ThemeFor(cv)
	assert.Equal(t, model.TemplateModern, theme.Template)
	assert.Equal(t, "2563EB", theme.Accent.Hex())

	cv.Settings.ColorScheme = "Green"
	assert.Equal(t, "059669", ThemeFor(cv).Accent.Hex())

	cv.Settings.ColorScheme = "#aabbcc"
	assert.Equal(t, "AABBCC", ThemeFor(cv).Accent.Hex())

	cv.Settings.FontSize = model.FontSizeLarge
	assert.Equal(t, 11.0, ThemeFor(cv).BaseSize)
}

func TestPDFRenderAllTemplates(t *testing.T) {
	r := NewPDFRenderer(coreFonts)
	for _, tpl := range model.Templates {
		t.Run(string(tpl), func(t *testing.T) {
			out, err := r.Render(sampleCV(tpl))
			require.NoError(t, err)
			require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

			text, err := extract.Text(context.Background(), out, FormatPDF.ContentType())
			require.NoError(t, err)
			flat := squash(text)
			assert.Contains(t, flat, "AnnLee")
			assert.Contains(t, flat, "Acme")
		})
	}
}

func TestPDFRenderIsDeterministic(t *testing.T) {
	r := NewPDFRenderer(coreFonts)
	cv := sampleCV(model.TemplateEuropean)
	cv.PersonalInfo.Photo = pngDataURL(t)

	first, err := r.Render(cv)
	require.NoError(t, err)
	second, err := r.Render(cv)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "pdf output differs between runs")
}

func TestPDFRenderEmptyCV(t *testing.T) {
	out, err := NewPDFRenderer(coreFonts).Render(model.New("", ""))
	require.NoError(t, err)
	pages, err := extract.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}

func TestPDFRenderPaginatesLongCV(t *testing.T) {
	for _, tpl := range []model.Template{model.TemplateModern, model.TemplateEuropass} {
		cv := sampleCV(tpl)
		cv.Employment = nil
		for i := 0; i < 40; i++ {
			cv.Employment = append(cv.Employment, model.Employment{
				Position:    "Engineer",
				Company:     "Company",
				StartDate:   "2010",
				EndDate:     "2011",
				Description: strings.Repeat("Shipped services and maintained them. ", 8),
			})
		}
		out, err := NewPDFRenderer(coreFonts).Render(cv)
		require.NoError(t, err, tpl)
		pages, err := extract.PageCount(out)
		require.NoError(t, err)
		assert.Greater(t, pages, 1, tpl)
	}
}

func TestPDFRenderNonLatinTextWithCoreFont(t *testing.T) {
	cv := sampleCV(model.TemplateClassic)
	cv.PersonalInfo.GivenName = "Анна"
	cv.AdditionalSections.Profile = "日本語のプロフィール"
	_, err := NewPDFRenderer(coreFonts).Render(cv)
	require.NoError(t, err)
}

func TestPDFRenderMissingFontsFallBack(t *testing.T) {
	_, err := NewPDFRenderer([]string{"/nonexistent/font.ttf"}).Render(sampleCV(model.TemplateModern))
	require.NoError(t, err)
}

func TestPDFRenderCorruptPhoto(t *testing.T) {
	cv := sampleCV(model.TemplateModern)
	cv.PersonalInfo.Photo = model.PhotoDataURL("png", []byte("not a png at all"))
	_, err := NewPDFRenderer(coreFonts).Render(cv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPhoto))
}

func TestPDFRenderSkipsUnsupportedAndExcludedPhotos(t *testing.T) {
	cv := sampleCV(model.TemplateModern)
	cv.PersonalInfo.Photo = model.PhotoDataURL("webp", []byte("RIFF....WEBP"))
	_, err := NewPDFRenderer(coreFonts).Render(cv)
	require.NoError(t, err)

	off := false
	cv.PersonalInfo.Photo = model.PhotoDataURL("png", []byte("broken"))
	cv.Settings.IncludePhoto = &off
	_, err = NewPDFRenderer(coreFonts).Render(cv)
	require.NoError(t, err)
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = b
	}
	return parts
}

func TestDOCXRenderParts(t *testing.T) {
	out, err := NewDOCXRenderer().Render(sampleCV(model.TemplateEuropass))
	require.NoError(t, err)
	parts := readZip(t, out)
	for _, name := range []string{
		"[Content_Types].xml", "_rels/.rels", "docProps/core.xml",
		"word/document.xml", "word/styles.xml", "word/_rels/document.xml.rels",
	} {
		assert.Contains(t, parts, name)
	}
	assert.NotContains(t, parts, "word/media/photo.png")
	assert.Contains(t, string(parts["word/styles.xml"]), "0E4194")

	text, err := extract.Text(context.Background(), out, FormatDOCX.ContentType())
	require.NoError(t, err)
	assert.Contains(t, text, "Ann Lee")
	assert.Contains(t, text, "Acme")
	assert.Less(t, strings.Index(text, "Employment"), strings.Index(text, "Education"))
	assert.Less(t, strings.Index(text, "Education"), strings.Index(text, "Profile"))
}

func TestDOCXRenderPhoto(t *testing.T) {
	cv := sampleCV(model.TemplateModern)
	cv.PersonalInfo.Photo = pngDataURL(t)

	parts := readZip(t, mustRender(t, NewDOCXRenderer(), cv))
	assert.Contains(t, parts, "word/media/photo.png")
	assert.Contains(t, string(parts["word/document.xml"]), "rIdPhoto")

	off := false
	cv.Settings.IncludePhoto = &off
	parts = readZip(t, mustRender(t, NewDOCXRenderer(), cv))
	assert.NotContains(t, parts, "word/media/photo.png")
	assert.NotContains(t, string(parts["word/document.xml"]), "rIdPhoto")
}

func TestDOCXRenderEscapesMarkup(t *testing.T) {
	cv := sampleCV(model.TemplateModern)
	cv.AdditionalSections.Profile = `<b>bold</b> & "quoted"`
	out := mustRender(t, NewDOCXRenderer(), cv)
	text, err := extract.Text(context.Background(), out, FormatDOCX.ContentType())
	require.NoError(t, err)
	assert.Contains(t, text, `<b>bold</b> & "quoted"`)
}

func TestDOCXRenderIsDeterministic(t *testing.T) {
	cv := sampleCV(model.TemplateCreative)
	cv.PersonalInfo.Photo = pngDataURL(t)
	first := mustRender(t, NewDOCXRenderer(), cv)
	second := mustRender(t, NewDOCXRenderer(), cv)
	assert.True(t, bytes.Equal(first, second), "docx output differs between runs")
}

func mustRender(t *testing.T, r Renderer, cv model.CV) []byte {
	t.Helper()
	out, err := r.Render(cv)
	require.NoError(t, err)
	return out
}

func TestRenderersDeclareContentTypes(t *testing.T) {
	renderers := []Renderer{NewPDFRenderer(coreFonts), NewDOCXRenderer()}
	want := map[Format]string{
		FormatPDF:  "application/pdf",
		FormatDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
	for _, r := range renderers {
		assert.Equal(t, want[r.Format()], r.Format().ContentType())
		mime, _, err := sniffFormat(mustRender(t, r, sampleCV(model.TemplateMinimal)))
		require.NoError(t, err)
		assert.Equal(t, r.Format(), mime)
	}
}

func sniffFormat(data []byte) (Format, string, error) {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return FormatPDF, "pdf", nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return FormatDOCX, "zip", nil
	}
	return "", "", errors.New("unknown payload")
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat(" PDF ")
	assert.True(t, ok)
	assert.Equal(t, FormatPDF, f)
	_, ok = ParseFormat("odt")
	assert.False(t, ok)
}

func TestExportFilename(t *testing.T) {
	cases := map[string]string{
		"My Resume 2024": "My_Resume_2024.pdf",
		"Résumé/v2":      "Résumé_v2.pdf",
		"   ":            "resume.pdf",
		"":               "resume.pdf",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExportFilename(in, FormatPDF), in)
	}
	assert.Equal(t, "CV.docx", ExportFilename("CV", FormatDOCX))
}

func TestContentDisposition(t *testing.T) {
	got := ContentDisposition("Résumé.pdf")
	assert.Equal(t, `attachment; filename="R_sum_.pdf"; filename*=UTF-8''R%C3%A9sum%C3%A9.pdf`, got)
}
