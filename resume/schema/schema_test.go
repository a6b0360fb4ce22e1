package schema

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-builder/resume/model"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func hasPath(errs []FieldError, path string) bool {
	for _, e := range errs {
		if e.Path == path {
			return true
		}
	}
	return false
}

func TestLegacyKeysAreMigrated(t *testing.T) {
	raw := `{"title":"Resume","personalInfo":{"given-name":"Ann","family-name":"Lee"},"employment":[{"position":"Dev","company":"Acme"}]}`

	res := Validate([]byte(raw))

	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, "Resume", res.CV.Title)
	assert.Equal(t, "Ann", res.CV.PersonalInfo.GivenName)
	assert.Equal(t, "Lee", res.CV.PersonalInfo.FamilyName)
	require.Len(t, res.CV.Employment, 1)
	assert.Equal(t, "Dev", res.CV.Employment[0].Position)
	assert.Equal(t, model.TemplateModern, res.CV.Template)

	out := string(mustJSON(t, res.CV))
	assert.NotContains(t, out, "given-name")
	assert.Contains(t, out, `"givenName":"Ann"`)
}

func TestCanonicalKeyWinsOverLegacy(t *testing.T) {
	raw := `{"employment":[{"startDate":"2020-01","start_date":"2019-05","end_date":"2021-02"}],
	         "education":[{"start_year":2010,"endYear":"2014"}]}`

	res := Validate([]byte(raw))

	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, "2020-01", res.CV.Employment[0].StartDate)
	assert.Equal(t, "2021-02", res.CV.Employment[0].EndDate)
	assert.Equal(t, "2010", res.CV.Education[0].StartYear)
	assert.Equal(t, "2014", res.CV.Education[0].EndYear)
}

func TestLengthCaps(t *testing.T) {
	okProfile := strings.Repeat("a", LongMax)
	res := Validate(mustJSON(t, map[string]any{"additionalSections": map[string]any{"profile": okProfile}}))
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, okProfile, res.CV.AdditionalSections.Profile)

	res = Validate(mustJSON(t, map[string]any{"additionalSections": map[string]any{"profile": okProfile + "a"}}))
	require.False(t, res.OK())
	assert.True(t, hasPath(res.Errors, "additionalSections.profile"), "%v", res.Errors)

	res = Validate(mustJSON(t, map[string]any{"title": strings.Repeat("é", ShortMax)}))
	assert.True(t, res.OK(), "runes, not bytes, are counted")

	res = Validate(mustJSON(t, map[string]any{"title": strings.Repeat("b", ShortMax+1)}))
	assert.True(t, hasPath(res.Errors, "title"))

	res = Validate(mustJSON(t, map[string]any{"employment": []any{map[string]any{}, map[string]any{"description": strings.Repeat("x", LongMax+1)}}}))
	assert.True(t, hasPath(res.Errors, "employment[1].description"), "%v", res.Errors)

	res = Validate(mustJSON(t, map[string]any{"personalInfo": map[string]any{"given-name": strings.Repeat("x", ShortMax+1)}}))
	assert.True(t, hasPath(res.Errors, "personalInfo.given-name"), "%v", res.Errors)
}

func TestWhitespaceIsTrimmedBeforeCounting(t *testing.T) {
	padded := "  " + strings.Repeat("a", ShortMax) + "  "
	res := Validate(mustJSON(t, map[string]any{"title": padded}))
	require.True(t, res.OK())
	assert.Equal(t, strings.Repeat("a", ShortMax), res.CV.Title)
}

func TestArrayCaps(t *testing.T) {
	skills := make([]any, MaxItems)
	for i := range skills {
		skills[i] = map[string]any{"skill": "Go"}
	}
	res := Validate(mustJSON(t, map[string]any{"skills": skills}))
	require.True(t, res.OK())
	assert.Len(t, res.CV.Skills, MaxItems)

	res = Validate(mustJSON(t, map[string]any{"skills": append(skills, map[string]any{"skill": "Rust"})}))
	assert.True(t, hasPath(res.Errors, "skills"))

	custom := make([]any, MaxCustom+1)
	for i := range custom {
		custom[i] = map[string]any{"title": "t", "content": "c"}
	}
	res = Validate(mustJSON(t, map[string]any{"additionalSections": map[string]any{"custom": custom}}))
	assert.True(t, hasPath(res.Errors, "additionalSections.custom"))
}

func TestPhotoBoundary(t *testing.T) {
	exact := model.PhotoDataURL("png", bytes.Repeat([]byte{1}, model.MaxPhotoBytes))
	res := Validate(mustJSON(t, map[string]any{"personalInfo": map[string]any{"photo": exact}}))
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, exact, res.CV.PersonalInfo.Photo)

	over := model.PhotoDataURL("png", bytes.Repeat([]byte{1}, model.MaxPhotoBytes+1))
	res = Validate(mustJSON(t, map[string]any{"personalInfo": map[string]any{"photo": over}}))
	assert.True(t, hasPath(res.Errors, "personalInfo.photo"))

	big := model.PhotoDataURL("jpeg", bytes.Repeat([]byte{2}, 3<<20))
	res = Validate(mustJSON(t, map[string]any{"personalInfo": map[string]any{"photo": big}}))
	assert.True(t, hasPath(res.Errors, "personalInfo.photo"))

	res = Validate(mustJSON(t, map[string]any{"personalInfo": map[string]any{"photo": "data:application/pdf;base64,AAAA"}}))
	assert.True(t, hasPath(res.Errors, "personalInfo.photo"))
}

func TestEnumsAndTypes(t *testing.T) {
	res := Validate([]byte(`{"template":"EUROPASS","skills":[{"skill":"Go","level":"Expert"}],"languages":[{"language":"English","level":"C1"}],"settings":{"fontSize":"Large","includePhoto":false}}`))
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, model.TemplateEuropass, res.CV.Template)
	assert.Equal(t, model.SkillExpert, res.CV.Skills[0].Level)
	assert.Equal(t, model.LanguageC1, res.CV.Languages[0].Level)
	assert.Equal(t, model.FontSizeLarge, res.CV.Settings.FontSize)
	require.NotNil(t, res.CV.Settings.IncludePhoto)
	assert.False(t, *res.CV.Settings.IncludePhoto)

	res = Validate([]byte(`{"template":"retro","title":5,"employment":{"position":"x"},"skills":["Go"],"settings":{"includePhoto":"yes"}}`))
	assert.True(t, hasPath(res.Errors, "template"))
	assert.True(t, hasPath(res.Errors, "title"))
	assert.True(t, hasPath(res.Errors, "employment"))
	assert.True(t, hasPath(res.Errors, "skills[0]"))
	assert.True(t, hasPath(res.Errors, "settings.includePhoto"))
}

func TestEducationYears(t *testing.T) {
	res := Validate([]byte(`{"education":[{"startYear":2015,"endYear":2012}]}`))
	assert.True(t, hasPath(res.Errors, "education[0].endYear"))

	res = Validate([]byte(`{"education":[{"startYear":2015.5}]}`))
	assert.True(t, hasPath(res.Errors, "education[0].startYear"))

	res = Validate([]byte(`{"education":[{"startYear":"abc"}]}`))
	assert.True(t, hasPath(res.Errors, "education[0].startYear"))

	res = Validate([]byte(`{"education":[{"startYear":2012,"endYear":2012}]}`))
	assert.True(t, res.OK())
}

func TestEmailRule(t *testing.T) {
	res := Validate([]byte(`{"personalInfo":{"email":"not-an-email"}}`))
	assert.True(t, hasPath(res.Errors, "personalInfo.email"))

	res = Validate([]byte(`{"personalInfo":{"email":"ann@example.com"}}`))
	assert.True(t, res.OK())
}

func TestUnknownFieldsIgnored(t *testing.T) {
	res := Validate([]byte(`{"_id":"abc","owner":"x","personalInfo":{"nickname":"A"},"employment":[{"position":"Dev","salary":10}]}`))
	require.True(t, res.OK(), "%v", res.Errors)
	assert.Equal(t, "Dev", res.CV.Employment[0].Position)
}

func TestRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[]`, `"cv"`, `null`, `{`, `{} {}`} {
		res := Validate([]byte(raw))
		assert.False(t, res.OK(), raw)
	}
}

func TestValidationIsIdempotent(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"title":"  Senior  ","personalInfo":{"given-name":"Ann","job-position":"Dev","postal-code":" 123 "},"template":"Classic"}`,
		`{"education":[{"school":"MIT","level":"MASTER","start_year":"2010","end_year":2012}],"settings":{"includePhoto":true,"colorScheme":"teal"}}`,
		`{"additionalSections":{"profile":"hi","custom":[{"title":"Awards","content":"x"}]},"languages":[{"language":"German","level":"Native"}]}`,
	}
	for _, in := range inputs {
		first := Validate([]byte(in))
		require.True(t, first.OK(), "%s: %v", in, first.Errors)

		second := Validate(mustJSON(t, first.CV))
		require.True(t, second.OK(), "%s: %v", in, second.Errors)
		assert.Equal(t, first.CV, second.CV, in)

		third := ValidateCV(second.CV)
		assert.Equal(t, first.CV, third.CV, in)
	}
}

func TestValidateDoesNotModifyInput(t *testing.T) {
	raw := []byte(`{"title":"  x  ","personalInfo":{"given-name":"Ann"}}`)
	before := append([]byte(nil), raw...)
	_ = Validate(raw)
	assert.Equal(t, before, raw)
}
