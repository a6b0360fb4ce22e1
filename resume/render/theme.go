package render

import (
	"strconv"
	"strings"

	"cv-builder/resume/model"
)

// RGB is an sRGB color.
type RGB struct{ R, G, B int }

// Hex returns the color as RRGGBB.
func (c RGB) Hex() string {
	return strings.ToUpper(hexByte(c.R) + hexByte(c.G) + hexByte(c.B))
}

func hexByte(v int) string {
	s := strconv.FormatInt(int64(v&0xff), 16)
	if len(s) == 1 {
		s = "0" + s
	}
	return s
}

func mustHex(s string) RGB {
	c, ok := parseHex(s)
	if !ok {
		panic("render: bad color " + s)
	}
	return c
}

func parseHex(s string) (RGB, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, false
	}
	return RGB{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, true
}

var templateAccents = map[model.Template]RGB{
	model.TemplateModern:   mustHex("2563EB"),
	model.TemplateClassic:  mustHex("1F2937"),
	model.TemplateMinimal:  mustHex("6B7280"),
	model.TemplateCreative: mustHex("DB2777"),
	model.TemplateEuropean: mustHex("1D4ED8"),
	model.TemplateEuropass: mustHex("0E4194"),
}

// Named palettes selectable through settings.colorScheme.
var colorSchemes = map[string]RGB{
	"blue":   mustHex("2563EB"),
	"green":  mustHex("059669"),
	"red":    mustHex("DC2626"),
	"purple": mustHex("7C3AED"),
	"teal":   mustHex("0D9488"),
	"orange": mustHex("EA580C"),
	"gray":   mustHex("4B5563"),
	"black":  mustHex("111827"),
}

// Theme is the resolved visual configuration of one render.
type Theme struct {
	Template model.Template
	Accent   RGB
	Text     RGB
	Muted    RGB
	Sidebar  RGB
	BaseSize float64
}

// ThemeFor resolves template, accent and font size. Unknown templates fall
// back to modern; a known color scheme or a #RRGGBB value overrides the accent.
func ThemeFor(cv model.CV) Theme {
	tpl := cv.Template.OrDefault()
	accent := templateAccents[tpl]
	scheme := strings.ToLower(strings.TrimSpace(cv.Settings.ColorScheme))
	if c, ok := colorSchemes[scheme]; ok {
		accent = c
	} else if c, ok := parseHex(scheme); ok {
		accent = c
	}
	return Theme{
		Template: tpl,
		Accent:   accent,
		Text:     mustHex("111827"),
		Muted:    mustHex("6B7280"),
		Sidebar:  tint(accent, 0.9),
		BaseSize: cv.Settings.FontSize.Points(),
	}
}

// tint mixes c with white; f=1 is white.
func tint(c RGB, f float64) RGB {
	mix := func(v int) int { return v + int(float64(255-v)*f) }
	return RGB{R: mix(c.R), G: mix(c.G), B: mix(c.B)}
}
