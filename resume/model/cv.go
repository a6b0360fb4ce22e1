package model

import "strings"

// DefaultTitle labels a CV saved without a title.
const DefaultTitle = "Untitled resume"

// CV is the canonical, validated representation of one résumé.
type CV struct {
	Title              string             `json:"title"`
	PersonalInfo       PersonalInfo       `json:"personalInfo"`
	Employment         []Employment       `json:"employment"`
	Education          []Education        `json:"education"`
	Skills             []Skill            `json:"skills"`
	Languages          []Language         `json:"languages"`
	AdditionalSections AdditionalSections `json:"additionalSections"`
	Template           Template           `json:"template"`
	Settings           Settings           `json:"settings"`
}

// PersonalInfo holds identity and contact details.
type PersonalInfo struct {
	GivenName   string `json:"givenName"`
	FamilyName  string `json:"familyName"`
	JobPosition string `json:"jobPosition"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`
	Birthdate   string `json:"birthdate"`
	Website     string `json:"website"`
	LinkedIn    string `json:"linkedin"`
	// Photo is a data URL: data:image/<subtype>;base64,<payload>.
	Photo string `json:"photo"`
}

type Employment struct {
	Position    string `json:"position"`
	Company     string `json:"company"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type Education struct {
	School string         `json:"school"`
	Degree string         `json:"degree"`
	Level  EducationLevel `json:"level"`
	// Years are stored as decimal strings; empty means unknown.
	StartYear string `json:"startYear"`
	EndYear   string `json:"endYear"`
}

type Skill struct {
	Skill string     `json:"skill"`
	Level SkillLevel `json:"level"`
}

type Language struct {
	Language string        `json:"language"`
	Level    LanguageLevel `json:"level"`
}

// AdditionalSections are the free-text slots rendered after the structured sections.
type AdditionalSections struct {
	Profile      string          `json:"profile"`
	Projects     string          `json:"projects"`
	Certificates string          `json:"certificates"`
	Courses      string          `json:"courses"`
	Internships  string          `json:"internships"`
	Activities   string          `json:"activities"`
	References   string          `json:"references"`
	Qualities    string          `json:"qualities"`
	Achievements string          `json:"achievements"`
	Signature    string          `json:"signature"`
	Footer       string          `json:"footer"`
	Assessment   string          `json:"assessment"`
	Custom       []CustomSection `json:"custom"`
}

type CustomSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Settings are rendering toggles.
type Settings struct {
	FontSize    FontSize `json:"fontSize"`
	ColorScheme string   `json:"colorScheme,omitempty"`
	// IncludePhoto is nil when the client never set it, which means true.
	IncludePhoto *bool `json:"includePhoto,omitempty"`
}

// New returns an empty CV with defaults applied.
func New(title string, template Template) CV {
	cv := CV{Title: title, Template: template}
	cv.Normalize()
	return cv
}

// Normalize applies defaults and replaces nil slices with empty ones so the
// JSON form is stable.
func (cv *CV) Normalize() {
	if strings.TrimSpace(cv.Title) == "" {
		cv.Title = DefaultTitle
	}
	if cv.Template == "" {
		cv.Template = TemplateModern
	}
	if cv.Settings.FontSize == "" {
		cv.Settings.FontSize = FontSizeMedium
	}
	if cv.Employment == nil {
		cv.Employment = []Employment{}
	}
	if cv.Education == nil {
		cv.Education = []Education{}
	}
	if cv.Skills == nil {
		cv.Skills = []Skill{}
	}
	if cv.Languages == nil {
		cv.Languages = []Language{}
	}
	if cv.AdditionalSections.Custom == nil {
		cv.AdditionalSections.Custom = []CustomSection{}
	}
}

// FullName joins the given and family names.
func (cv CV) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(cv.PersonalInfo.GivenName) + " " + strings.TrimSpace(cv.PersonalInfo.FamilyName))
}

// DisplayName is the full name, or the title when no name was entered.
func (cv CV) DisplayName() string {
	if name := cv.FullName(); name != "" {
		return name
	}
	return cv.Title
}

// PhotoIncluded reports whether renderers should draw the photo.
func (cv CV) PhotoIncluded() bool {
	if cv.PersonalInfo.Photo == "" {
		return false
	}
	return cv.Settings.IncludePhoto == nil || *cv.Settings.IncludePhoto
}
