package render

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"cv-builder/internal/shared/telemetry"
)

const (
	unicodeFamily = "cvsans"
	coreFamily    = "Helvetica"
)

// DefaultFontPaths are probed in order when no paths are configured.
var DefaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// fontSet is the font family registered on one document plus the translator
// text must pass through before drawing.
type fontSet struct {
	family string
	tr     func(string) string
}

// loadFonts registers the first loadable TTF from paths as a UTF-8 family.
// When none loads the core Helvetica font is used with a cp1252 translator.
func loadFonts(pdf *fpdf.Fpdf, paths []string) fontSet {
	for _, path := range paths {
		regular, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		bold := regular
		if b, err := os.ReadFile(boldVariant(path)); err == nil {
			bold = b
		}
		pdf.AddUTF8FontFromBytes(unicodeFamily, "", regular)
		pdf.AddUTF8FontFromBytes(unicodeFamily, "B", bold)
		if pdf.Err() {
			telemetry.Warn("render.font_rejected", map[string]any{
				"path":  path,
				"error": pdf.Error(),
			})
			pdf.ClearError()
			continue
		}
		return fontSet{family: unicodeFamily, tr: func(s string) string { return s }}
	}
	return fontSet{family: coreFamily, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// boldVariant maps DejaVuSans.ttf to DejaVuSans-Bold.ttf.
func boldVariant(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-Bold" + ext
}
