package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"cv-builder/resume/model"
)

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	pageMargin   = 15.0
	ptToMM       = 0.3528
	lineSpacing  = 1.35
	photoImageID = "photo"
)

// fixedTimestamp is stamped into every document so output is reproducible.
var fixedTimestamp = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrPhoto is returned when an embedded photo cannot be decoded.
var ErrPhoto = errors.New("photo cannot be embedded")

// PDFRenderer draws CVs on A4 pages.
type PDFRenderer struct {
	// FontPaths are probed in order for a Unicode TTF; nil means DefaultFontPaths.
	FontPaths []string
}

func NewPDFRenderer(fontPaths []string) *PDFRenderer {
	return &PDFRenderer{FontPaths: fontPaths}
}

func (r *PDFRenderer) Format() Format { return FormatPDF }

// Render returns the PDF bytes for cv. Identical input yields identical bytes.
func (r *PDFRenderer) Render(cv model.CV) ([]byte, error) {
	paths := r.FontPaths
	if paths == nil {
		paths = DefaultFontPaths
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(fixedTimestamp)
	pdf.SetModificationDate(fixedTimestamp)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetCellMargin(0)

	doc := &pdfDoc{
		pdf:   pdf,
		fonts: loadFonts(pdf, paths),
		theme: ThemeFor(cv),
	}
	pdf.SetTitle(cv.Title, true)
	pdf.SetAuthor(cv.FullName(), true)
	pdf.SetCreator("cv-builder", true)

	photo, err := doc.registerPhoto(cv)
	if err != nil {
		return nil, err
	}

	pdf.AddPage()
	LayoutFor(doc.theme.Template).Draw(doc, cv, photo)
	doc.gotoPage(pdf.PageCount())

	if pdf.Err() {
		return nil, fmt.Errorf("render pdf: %w", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfDoc bundles the drawing surface with the resolved fonts and theme.
type pdfDoc struct {
	pdf     *fpdf.Fpdf
	fonts   fontSet
	theme   Theme
	hasFont bool
}

// pdfPhoto is a registered image ready to be placed.
type pdfPhoto struct {
	opts   fpdf.ImageOptions
	aspect float64 // height / width
}

// pdfImageType maps photo subtypes to fpdf image types. Other subtypes are
// not embedded.
func pdfImageType(subtype string) string {
	switch subtype {
	case "jpeg", "jpg", "pjpeg":
		return "JPG"
	case "png":
		return "PNG"
	case "gif":
		return "GIF"
	}
	return ""
}

func (d *pdfDoc) registerPhoto(cv model.CV) (*pdfPhoto, error) {
	if !cv.PhotoIncluded() {
		return nil, nil
	}
	photo, err := model.ParsePhoto(cv.PersonalInfo.Photo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPhoto, err)
	}
	imageType := pdfImageType(photo.Subtype)
	if imageType == "" {
		return nil, nil
	}
	opts := fpdf.ImageOptions{ImageType: imageType}
	info := d.pdf.RegisterImageOptionsReader(photoImageID, opts, bytes.NewReader(photo.Data))
	if d.pdf.Err() || info == nil {
		err := d.pdf.Error()
		d.pdf.ClearError()
		return nil, fmt.Errorf("%w: %v", ErrPhoto, err)
	}
	aspect := 1.0
	if info.Width() > 0 {
		aspect = info.Height() / info.Width()
	}
	return &pdfPhoto{opts: opts, aspect: aspect}, nil
}

// drawPhoto places the photo in a w-wide box at (x, y) and returns its height.
func (d *pdfDoc) drawPhoto(p *pdfPhoto, x, y, w float64) float64 {
	h := w * p.aspect
	d.pdf.ImageOptions(photoImageID, x, y, w, h, false, p.opts, 0, "")
	return h
}

// drawPhotoCircle crops the photo to a circle of radius r centred on (cx, cy).
func (d *pdfDoc) drawPhotoCircle(p *pdfPhoto, cx, cy, r float64) {
	w, h := 2*r, 2*r*p.aspect
	if p.aspect < 1 {
		w, h = 2*r/p.aspect, 2*r
	}
	d.pdf.ClipCircle(cx, cy, r, false)
	d.pdf.ImageOptions(photoImageID, cx-w/2, cy-h/2, w, h, false, p.opts, 0, "")
	d.pdf.ClipEnd()
}

func (d *pdfDoc) setFont(style string, size float64) {
	d.pdf.SetFont(d.fonts.family, style, size)
	d.hasFont = true
}

// gotoPage moves to an existing page. fpdf skips SetFont calls that match its
// current state, so the font is re-selected explicitly on the target page.
func (d *pdfDoc) gotoPage(n int) {
	d.pdf.SetPage(n)
	if d.hasFont {
		pt, _ := d.pdf.GetFontSize()
		d.pdf.SetFontSize(pt)
	}
}

func (d *pdfDoc) setColor(c RGB) {
	d.pdf.SetTextColor(c.R, c.G, c.B)
}

func (d *pdfDoc) width(s string) float64 {
	return d.pdf.GetStringWidth(d.fonts.tr(s))
}

func lineHeight(size float64) float64 {
	return size * ptToMM * lineSpacing
}

// wrap breaks text into lines no wider than width using the current font.
// Newlines start new lines; words longer than width are split.
func (d *pdfDoc) wrap(text string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, word := range words {
			candidate := word
			if cur != "" {
				candidate = cur + " " + word
			}
			if d.width(candidate) <= width {
				cur = candidate
				continue
			}
			if cur != "" {
				lines = append(lines, cur)
			}
			for d.width(word) > width {
				cut := d.fit(word, width)
				lines = append(lines, word[:cut])
				word = word[cut:]
			}
			cur = word
		}
		lines = append(lines, cur)
	}
	return lines
}

// fit returns the byte length of the longest rune prefix of word that fits,
// never less than one rune.
func (d *pdfDoc) fit(word string, width float64) int {
	cut := 0
	for i, r := range word {
		next := i + utf8.RuneLen(r)
		if cut > 0 && d.width(word[:next]) > width {
			break
		}
		cut = next
	}
	return cut
}
