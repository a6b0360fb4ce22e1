// Package schema turns arbitrary JSON into a normalized model.CV or a list of
// field-level errors.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"cv-builder/resume/model"
)

// Limits on stored text and list sizes.
const (
	ShortMax    = 500
	LongMax     = 2000
	MaxItems    = 50
	MaxCustom   = 10
	maxYear     = 9999
	rootMessage = "document must be a JSON object"
)

// FieldError points at one offending field using dotted/bracket notation.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the outcome of Validate. CV is only meaningful when OK reports true.
type Result struct {
	CV     model.CV
	Errors []FieldError
}

func (r Result) OK() bool { return len(r.Errors) == 0 }

var validate = validator.New()

// Validate parses raw JSON into a normalized CV. It never panics and never
// modifies raw.
func Validate(raw []byte) Result {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return Result{Errors: []FieldError{{Path: "", Message: "invalid JSON: " + err.Error()}}}
	}
	if dec.More() {
		return Result{Errors: []FieldError{{Path: "", Message: "invalid JSON: trailing data"}}}
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return Result{Errors: []FieldError{{Path: "", Message: rootMessage}}}
	}
	return ValidateMap(obj)
}

// ValidateMap validates an already decoded JSON object. Numbers may be
// float64 or json.Number.
func ValidateMap(obj map[string]any) Result {
	w := &walker{}
	cv := w.document(obj)
	if len(w.errs) > 0 {
		return Result{Errors: w.errs}
	}
	cv.Normalize()
	return Result{CV: cv}
}

// ValidateCV re-validates an in-memory CV through its JSON form.
func ValidateCV(cv model.CV) Result {
	raw, err := json.Marshal(cv)
	if err != nil {
		return Result{Errors: []FieldError{{Path: "", Message: err.Error()}}}
	}
	return Validate(raw)
}

type walker struct {
	errs []FieldError
}

func (w *walker) fail(path, format string, args ...any) {
	w.errs = append(w.errs, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func (w *walker) document(obj map[string]any) model.CV {
	var cv model.CV
	cv.Title = w.str(obj, "", ShortMax, "title")

	if info := w.object(obj, "", "personalInfo"); info != nil {
		cv.PersonalInfo = w.personalInfo(info, "personalInfo")
	}
	for i, item := range w.list(obj, "", "employment", MaxItems) {
		cv.Employment = append(cv.Employment, w.employment(item, fmt.Sprintf("employment[%d]", i)))
	}
	for i, item := range w.list(obj, "", "education", MaxItems) {
		cv.Education = append(cv.Education, w.education(item, fmt.Sprintf("education[%d]", i)))
	}
	for i, item := range w.list(obj, "", "skills", MaxItems) {
		p := fmt.Sprintf("skills[%d]", i)
		cv.Skills = append(cv.Skills, model.Skill{
			Skill: w.str(item, p, ShortMax, "skill"),
			Level: model.SkillLevel(w.enum(item, p, "level", func(s string) bool { return model.SkillLevel(s).Valid() })),
		})
	}
	for i, item := range w.list(obj, "", "languages", MaxItems) {
		p := fmt.Sprintf("languages[%d]", i)
		cv.Languages = append(cv.Languages, model.Language{
			Language: w.str(item, p, ShortMax, "language"),
			Level:    model.LanguageLevel(w.enum(item, p, "level", func(s string) bool { return model.LanguageLevel(s).Valid() })),
		})
	}
	if sections := w.object(obj, "", "additionalSections"); sections != nil {
		cv.AdditionalSections = w.additional(sections, "additionalSections")
	}
	cv.Template = model.Template(w.enum(obj, "", "template", func(s string) bool { return model.Template(s).Valid() }))
	if settings := w.object(obj, "", "settings"); settings != nil {
		cv.Settings = w.settings(settings, "settings")
	}
	return cv
}

func (w *walker) personalInfo(obj map[string]any, p string) model.PersonalInfo {
	info := model.PersonalInfo{
		GivenName:   w.str(obj, p, ShortMax, "givenName", "given-name"),
		FamilyName:  w.str(obj, p, ShortMax, "familyName", "family-name"),
		JobPosition: w.str(obj, p, ShortMax, "jobPosition", "job-position"),
		Email:       w.str(obj, p, ShortMax, "email"),
		Phone:       w.str(obj, p, ShortMax, "phone"),
		Address:     w.str(obj, p, LongMax, "address"),
		PostalCode:  w.str(obj, p, ShortMax, "postalCode", "postal-code"),
		City:        w.str(obj, p, ShortMax, "city"),
		Birthdate:   w.str(obj, p, ShortMax, "birthdate"),
		Website:     w.str(obj, p, ShortMax, "website"),
		LinkedIn:    w.str(obj, p, ShortMax, "linkedin"),
	}
	if info.Email != "" {
		if err := validate.Var(info.Email, "email"); err != nil {
			w.fail(join(p, "email"), "must be a valid email address")
		}
	}
	info.Photo = w.photo(obj, p)
	return info
}

func (w *walker) photo(obj map[string]any, p string) string {
	path := join(p, "photo")
	raw, ok := obj["photo"]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		w.fail(path, "must be a string")
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if _, err := model.ParsePhoto(s); err != nil {
		switch {
		case errors.Is(err, model.ErrPhotoTooLarge):
			w.fail(path, "photo must be at most %d bytes", model.MaxPhotoBytes)
		case errors.Is(err, model.ErrPhotoEncoding):
			w.fail(path, "photo payload is not valid base64")
		default:
			w.fail(path, "photo must be a data:image/<type>;base64 URL")
		}
		return ""
	}
	return s
}

func (w *walker) employment(obj map[string]any, p string) model.Employment {
	return model.Employment{
		Position:    w.str(obj, p, ShortMax, "position"),
		Company:     w.str(obj, p, ShortMax, "company"),
		StartDate:   w.str(obj, p, ShortMax, "startDate", "start_date"),
		EndDate:     w.str(obj, p, ShortMax, "endDate", "end_date"),
		Current:     w.boolean(obj, p, "current"),
		Description: w.str(obj, p, LongMax, "description"),
	}
}

func (w *walker) education(obj map[string]any, p string) model.Education {
	edu := model.Education{
		School:    w.str(obj, p, ShortMax, "school"),
		Degree:    w.str(obj, p, ShortMax, "degree"),
		Level:     model.EducationLevel(w.enum(obj, p, "level", func(s string) bool { return model.EducationLevel(s).Valid() })),
		StartYear: w.year(obj, p, "startYear", "start_year"),
		EndYear:   w.year(obj, p, "endYear", "end_year"),
	}
	if edu.StartYear != "" && edu.EndYear != "" {
		start, _ := strconv.Atoi(edu.StartYear)
		end, _ := strconv.Atoi(edu.EndYear)
		if start > end {
			w.fail(join(p, "endYear"), "end year must not be before start year")
		}
	}
	return edu
}

func (w *walker) additional(obj map[string]any, p string) model.AdditionalSections {
	out := model.AdditionalSections{
		Profile:      w.str(obj, p, LongMax, "profile"),
		Projects:     w.str(obj, p, LongMax, "projects"),
		Certificates: w.str(obj, p, LongMax, "certificates"),
		Courses:      w.str(obj, p, LongMax, "courses"),
		Internships:  w.str(obj, p, LongMax, "internships"),
		Activities:   w.str(obj, p, LongMax, "activities"),
		References:   w.str(obj, p, LongMax, "references"),
		Qualities:    w.str(obj, p, LongMax, "qualities"),
		Achievements: w.str(obj, p, LongMax, "achievements"),
		Signature:    w.str(obj, p, LongMax, "signature"),
		Footer:       w.str(obj, p, LongMax, "footer"),
		Assessment:   w.str(obj, p, LongMax, "assessment"),
	}
	for i, item := range w.list(obj, p, "custom", MaxCustom) {
		ip := fmt.Sprintf("%s.custom[%d]", p, i)
		out.Custom = append(out.Custom, model.CustomSection{
			Title:   w.str(item, ip, ShortMax, "title"),
			Content: w.str(item, ip, LongMax, "content"),
		})
	}
	return out
}

func (w *walker) settings(obj map[string]any, p string) model.Settings {
	out := model.Settings{
		FontSize:    model.FontSize(w.enum(obj, p, "fontSize", func(s string) bool { return model.FontSize(s).Valid() })),
		ColorScheme: w.str(obj, p, ShortMax, "colorScheme"),
	}
	if raw, ok := obj["includePhoto"]; ok && raw != nil {
		b, ok := raw.(bool)
		if !ok {
			w.fail(join(p, "includePhoto"), "must be a boolean")
		} else {
			out.IncludePhoto = &b
		}
	}
	return out
}

// str reads the first non-empty value among keys. Every present key is type
// and length checked, legacy aliases included.
func (w *walker) str(obj map[string]any, prefix string, max int, keys ...string) string {
	var out string
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok || raw == nil {
			continue
		}
		path := join(prefix, key)
		s, ok := raw.(string)
		if !ok {
			w.fail(path, "must be a string")
			continue
		}
		s = strings.TrimSpace(s)
		if n := utf8.RuneCountInString(s); n > max {
			w.fail(path, "must be at most %d characters", max)
			continue
		}
		if out == "" {
			out = s
		}
	}
	return out
}

func (w *walker) enum(obj map[string]any, prefix, key string, valid func(string) bool) string {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return ""
	}
	path := join(prefix, key)
	s, ok := raw.(string)
	if !ok {
		w.fail(path, "must be a string")
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s != "" && !valid(s) {
		w.fail(path, "unsupported value %q", s)
		return ""
	}
	return s
}

func (w *walker) boolean(obj map[string]any, prefix, key string) bool {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return false
	}
	b, ok := raw.(bool)
	if !ok {
		w.fail(join(prefix, key), "must be a boolean")
	}
	return b
}

// year accepts an integer JSON number or a numeric string and returns it in
// decimal form.
func (w *walker) year(obj map[string]any, prefix string, keys ...string) string {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok || raw == nil {
			continue
		}
		path := join(prefix, key)
		var text string
		switch v := raw.(type) {
		case json.Number:
			text = v.String()
		case float64:
			text = strconv.FormatFloat(v, 'f', -1, 64)
		case string:
			text = strings.TrimSpace(v)
		default:
			w.fail(path, "must be a year")
			continue
		}
		if text == "" {
			continue
		}
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 || n > maxYear {
			w.fail(path, "must be a whole year")
			continue
		}
		return strconv.Itoa(n)
	}
	return ""
}

func (w *walker) object(obj map[string]any, prefix, key string) map[string]any {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		w.fail(join(prefix, key), "must be an object")
		return nil
	}
	return m
}

// list returns the object items of an array field. Oversized arrays are
// reported once and not walked.
func (w *walker) list(obj map[string]any, prefix, key string, max int) []map[string]any {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil
	}
	path := join(prefix, key)
	items, ok := raw.([]any)
	if !ok {
		w.fail(path, "must be an array")
		return nil
	}
	if len(items) > max {
		w.fail(path, "must contain at most %d items", max)
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			w.fail(fmt.Sprintf("%s[%d]", path, i), "must be an object")
			m = map[string]any{}
		}
		out = append(out, m)
	}
	return out
}
