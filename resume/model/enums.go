package model

import "strings"

type Template string

const (
	TemplateModern   Template = "modern"
	TemplateClassic  Template = "classic"
	TemplateMinimal  Template = "minimal"
	TemplateCreative Template = "creative"
	TemplateEuropean Template = "european"
	TemplateEuropass Template = "europass"
)

// Templates lists every template in display order.
var Templates = []Template{
	TemplateModern, TemplateClassic, TemplateMinimal,
	TemplateCreative, TemplateEuropean, TemplateEuropass,
}

func (t Template) Valid() bool {
	for _, known := range Templates {
		if t == known {
			return true
		}
	}
	return false
}

// OrDefault maps unknown templates to modern.
func (t Template) OrDefault() Template {
	if t.Valid() {
		return t
	}
	return TemplateModern
}

type FontSize string

const (
	FontSizeSmall  FontSize = "small"
	FontSizeMedium FontSize = "medium"
	FontSizeLarge  FontSize = "large"
)

func (f FontSize) Valid() bool {
	switch f {
	case FontSizeSmall, FontSizeMedium, FontSizeLarge:
		return true
	}
	return false
}

// Points is the base body font size.
func (f FontSize) Points() float64 {
	switch f {
	case FontSizeSmall:
		return 9
	case FontSizeLarge:
		return 11
	default:
		return 10
	}
}

type EducationLevel string

const (
	EducationBachelor   EducationLevel = "bachelor"
	EducationMaster     EducationLevel = "master"
	EducationPhD        EducationLevel = "phd"
	EducationSpecialist EducationLevel = "specialist"
	EducationOther      EducationLevel = "other"
)

func (l EducationLevel) Valid() bool {
	switch l {
	case EducationBachelor, EducationMaster, EducationPhD, EducationSpecialist, EducationOther:
		return true
	}
	return false
}

func (l EducationLevel) Label() string {
	switch l {
	case EducationBachelor:
		return "Bachelor"
	case EducationMaster:
		return "Master"
	case EducationPhD:
		return "PhD"
	case EducationSpecialist:
		return "Specialist"
	case EducationOther:
		return "Other"
	}
	return ""
}

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

func (l SkillLevel) Valid() bool {
	switch l {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert:
		return true
	}
	return false
}

func (l SkillLevel) Label() string {
	if !l.Valid() {
		return ""
	}
	return strings.ToUpper(string(l[:1])) + string(l[1:])
}

// Rank is 1..4 for known levels, 0 otherwise.
func (l SkillLevel) Rank() int {
	switch l {
	case SkillBeginner:
		return 1
	case SkillIntermediate:
		return 2
	case SkillAdvanced:
		return 3
	case SkillExpert:
		return 4
	}
	return 0
}

type LanguageLevel string

const (
	LanguageA1     LanguageLevel = "a1"
	LanguageA2     LanguageLevel = "a2"
	LanguageB1     LanguageLevel = "b1"
	LanguageB2     LanguageLevel = "b2"
	LanguageC1     LanguageLevel = "c1"
	LanguageC2     LanguageLevel = "c2"
	LanguageNative LanguageLevel = "native"
)

func (l LanguageLevel) Valid() bool {
	switch l {
	case LanguageA1, LanguageA2, LanguageB1, LanguageB2, LanguageC1, LanguageC2, LanguageNative:
		return true
	}
	return false
}

func (l LanguageLevel) Label() string {
	switch {
	case l == LanguageNative:
		return "Native"
	case l.Valid():
		return strings.ToUpper(string(l))
	}
	return ""
}
