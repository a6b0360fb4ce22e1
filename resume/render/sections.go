package render

import (
	"strings"

	"cv-builder/resume/model"
)

type SectionKind string

const (
	SectionPersonal   SectionKind = "personal"
	SectionEmployment SectionKind = "employment"
	SectionEducation  SectionKind = "education"
	SectionSkills     SectionKind = "skills"
	SectionLanguages  SectionKind = "languages"
	SectionText       SectionKind = "text"
	SectionSignature  SectionKind = "signature"
	SectionFooter     SectionKind = "footer"
)

// Section is one populated block of the rendered document. Title is empty for
// blocks drawn without a heading.
type Section struct {
	Kind    SectionKind
	Title   string
	Entries []Entry
}

// Entry is one row of a section. For personal details Title is the field
// label and Body the value. Level is the skill rank (0 when unknown).
type Entry struct {
	Title    string
	Subtitle string
	Meta     string
	Body     string
	Level    int
}

// Header is the block above all sections.
type Header struct {
	Name     string
	Subtitle string
	Contact  []string
}

// BuildHeader collects the name, job position and primary contact details.
func BuildHeader(cv model.CV) Header {
	info := cv.PersonalInfo
	return Header{
		Name:     cv.DisplayName(),
		Subtitle: info.JobPosition,
		Contact:  nonEmpty(info.Email, info.Phone, info.City),
	}
}

// Sections lists the populated sections of cv in display order. Both binary
// renderers draw exactly these sections.
func Sections(cv model.CV) []Section {
	var out []Section
	add := func(s Section) {
		if len(s.Entries) > 0 {
			out = append(out, s)
		}
	}

	add(personalSection(cv.PersonalInfo))
	add(employmentSection(cv.Employment))
	add(educationSection(cv.Education))
	add(skillsSection(cv.Skills))
	add(languagesSection(cv.Languages))

	extra := cv.AdditionalSections
	for _, slot := range []struct {
		title string
		text  string
	}{
		{"Profile", extra.Profile},
		{"Projects", extra.Projects},
		{"Certificates", extra.Certificates},
		{"Courses", extra.Courses},
		{"Internships", extra.Internships},
		{"Activities", extra.Activities},
		{"References", extra.References},
		{"Qualities", extra.Qualities},
		{"Achievements", extra.Achievements},
		{"Skill assessment", extra.Assessment},
	} {
		add(textSection(SectionText, slot.title, slot.text))
	}
	for _, custom := range extra.Custom {
		title := strings.TrimSpace(custom.Title)
		if title == "" {
			title = "Additional information"
		}
		add(textSection(SectionText, title, custom.Content))
	}
	add(textSection(SectionSignature, "", extra.Signature))
	add(textSection(SectionFooter, "", extra.Footer))
	return out
}

// SplitSidebar separates the sections the sidebar layout draws in its left
// column from the main column sections, preserving order.
func SplitSidebar(sections []Section) (side, main []Section) {
	for _, s := range sections {
		switch s.Kind {
		case SectionPersonal, SectionSkills, SectionLanguages:
			side = append(side, s)
		default:
			main = append(main, s)
		}
	}
	return side, main
}

func personalSection(info model.PersonalInfo) Section {
	s := Section{Kind: SectionPersonal, Title: "Personal details"}
	addField := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			s.Entries = append(s.Entries, Entry{Title: label, Body: value})
		}
	}
	addField("Email", info.Email)
	addField("Phone", info.Phone)
	addField("Address", strings.Join(nonEmpty(info.Address, strings.TrimSpace(info.PostalCode+" "+info.City)), ", "))
	addField("Date of birth", info.Birthdate)
	addField("Website", info.Website)
	addField("LinkedIn", info.LinkedIn)
	return s
}

func employmentSection(items []model.Employment) Section {
	s := Section{Kind: SectionEmployment, Title: "Employment"}
	for _, e := range items {
		entry := Entry{
			Title:    e.Position,
			Subtitle: e.Company,
			Meta:     dateRange(e.StartDate, e.EndDate, e.Current),
			Body:     e.Description,
		}
		if entry.Title == "" {
			entry.Title, entry.Subtitle = entry.Subtitle, ""
		}
		if entry != (Entry{}) {
			s.Entries = append(s.Entries, entry)
		}
	}
	return s
}

func educationSection(items []model.Education) Section {
	s := Section{Kind: SectionEducation, Title: "Education"}
	for _, e := range items {
		entry := Entry{
			Title:    e.Degree,
			Subtitle: e.School,
			Meta:     strings.Join(nonEmpty(e.Level.Label(), dateRange(e.StartYear, e.EndYear, false)), " · "),
		}
		if entry.Title == "" {
			entry.Title, entry.Subtitle = entry.Subtitle, ""
		}
		if entry != (Entry{}) {
			s.Entries = append(s.Entries, entry)
		}
	}
	return s
}

func skillsSection(items []model.Skill) Section {
	s := Section{Kind: SectionSkills, Title: "Skills"}
	for _, sk := range items {
		if strings.TrimSpace(sk.Skill) == "" {
			continue
		}
		s.Entries = append(s.Entries, Entry{Title: sk.Skill, Meta: sk.Level.Label(), Level: sk.Level.Rank()})
	}
	return s
}

func languagesSection(items []model.Language) Section {
	s := Section{Kind: SectionLanguages, Title: "Languages"}
	for _, l := range items {
		if strings.TrimSpace(l.Language) == "" {
			continue
		}
		s.Entries = append(s.Entries, Entry{Title: l.Language, Meta: l.Level.Label()})
	}
	return s
}

func textSection(kind SectionKind, title, text string) Section {
	s := Section{Kind: kind, Title: title}
	if text = strings.TrimSpace(text); text != "" {
		s.Entries = []Entry{{Body: text}}
	}
	return s
}

func dateRange(start, end string, current bool) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if current && end == "" {
		end = "Present"
	}
	switch {
	case start != "" && end != "":
		return start + " – " + end
	case start != "":
		return start
	default:
		return end
	}
}

// EntryLine joins a skill or language name with its level label.
func EntryLine(e Entry) string {
	if e.Meta == "" {
		return e.Title
	}
	return e.Title + " · " + e.Meta
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
