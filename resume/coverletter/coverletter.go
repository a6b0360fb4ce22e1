// Package coverletter assembles a plain cover letter from a CV. Every
// paragraph is derived from CV data and omitted when that data is empty.
package coverletter

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"cv-builder/resume/model"
)

const (
	// MaxSkills is the number of skill names mentioned in the letter.
	MaxSkills = 8
	// AssessmentThreshold is the lowest score that earns an assessment mention.
	AssessmentThreshold = 0.65
)

// AssessmentResult is the caller's most recent graded assessment.
type AssessmentResult struct {
	Profession string
	Difficulty string
	Score      float64
}

// Letter is an ordered list of paragraphs.
type Letter struct {
	Paragraphs []string
}

var htmlPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br")
	return p
}()

// Compose builds the letter for cv. latest may be nil.
func Compose(cv model.CV, latest *AssessmentResult) Letter {
	var l Letter
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			l.Paragraphs = append(l.Paragraphs, s)
		}
	}

	info := cv.PersonalInfo
	name := cv.FullName()
	role := strings.TrimSpace(info.JobPosition)

	add("Dear Hiring Manager,")
	add(introduction(name, role))
	if len(cv.Employment) > 0 {
		add(employmentLine(cv.Employment[0]))
	}
	add(skillsLine(cv.Skills))
	if len(cv.Education) > 0 {
		add(educationLine(cv.Education[0]))
	}
	add(cv.AdditionalSections.Profile)
	add(assessmentLine(latest))
	add("Thank you for considering my application. I would welcome the opportunity to discuss how I can contribute to your team.")
	add(signOff(name, info))
	return l
}

func introduction(name, role string) string {
	switch {
	case name != "" && role != "":
		return "My name is " + name + " and I am applying for the " + role + " position."
	case name != "":
		return "My name is " + name + " and I am excited to apply for a role on your team."
	case role != "":
		return "I am applying for the " + role + " position."
	}
	return ""
}

func employmentLine(e model.Employment) string {
	parts := nonEmpty(e.Position, e.Company)
	if len(parts) == 0 {
		return ""
	}
	verb := "Most recently I worked as "
	if e.Current {
		verb = "I currently work as "
	}
	return verb + strings.Join(parts, " — ") + "."
}

func skillsLine(skills []model.Skill) string {
	var names []string
	for _, s := range skills {
		if n := strings.TrimSpace(s.Skill); n != "" {
			names = append(names, n)
		}
		if len(names) == MaxSkills {
			break
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "My key skills include " + strings.Join(names, ", ") + "."
}

func educationLine(e model.Education) string {
	degree, school := strings.TrimSpace(e.Degree), strings.TrimSpace(e.School)
	switch {
	case degree != "" && school != "":
		return "I hold a " + degree + " from " + school + "."
	case degree != "":
		return "I hold a " + degree + "."
	case school != "":
		return "I studied at " + school + "."
	}
	return ""
}

// assessmentLine mentions the profession and difficulty of a strong result.
// The score itself is never disclosed.
func assessmentLine(r *AssessmentResult) string {
	if r == nil || r.Score < AssessmentThreshold {
		return ""
	}
	profession := strings.TrimSpace(r.Profession)
	if profession == "" {
		return ""
	}
	level := ""
	if d := strings.TrimSpace(r.Difficulty); d != "" {
		level = " at " + d + " level"
	}
	return "I recently completed a " + profession + " skills assessment" + level + " with a strong result."
}

func signOff(name string, info model.PersonalInfo) string {
	lines := []string{"Kind regards,"}
	if name != "" {
		lines = append(lines, name)
	}
	if contact := strings.Join(nonEmpty(info.Email, info.Phone), " · "); contact != "" {
		lines = append(lines, contact)
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// Text joins paragraphs with blank lines.
func (l Letter) Text() string {
	return strings.Join(l.Paragraphs, "\n\n")
}

// HTML renders each paragraph as <p>, line breaks as <br>, sanitized so only
// those two elements survive.
func (l Letter) HTML() string {
	var b strings.Builder
	for _, p := range l.Paragraphs {
		lines := strings.Split(p, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(line)
		}
		b.WriteString("<p>" + strings.Join(lines, "<br>") + "</p>")
	}
	return htmlPolicy.Sanitize(b.String())
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
