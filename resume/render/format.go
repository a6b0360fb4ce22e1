package render

import (
	"net/url"
	"strings"
	"unicode"

	"cv-builder/resume/model"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat accepts "pdf" or "docx" in any case.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, true
	case FormatDOCX:
		return FormatDOCX, true
	}
	return "", false
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Renderer turns a validated CV into a binary document.
type Renderer interface {
	Format() Format
	Render(cv model.CV) ([]byte, error)
}

// ExportFilename derives a download name from the CV title: every rune that
// is not a letter or digit becomes "_", and an empty title becomes "resume".
func ExportFilename(title string, f Format) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "resume"
	}
	return name + "." + string(f)
}

// ContentDisposition builds an attachment header with an ASCII fallback and
// an RFC 5987 encoded filename.
func ContentDisposition(filename string) string {
	var ascii strings.Builder
	for _, r := range filename {
		if r < 0x80 && r != '"' && r != '\\' {
			ascii.WriteRune(r)
		} else {
			ascii.WriteByte('_')
		}
	}
	return `attachment; filename="` + ascii.String() + `"; filename*=UTF-8''` + url.PathEscape(filename)
}
