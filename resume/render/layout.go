package render

import (
	"strings"

	"cv-builder/resume/model"
)

// Layout positions the header and sections of a CV on the page.
type Layout interface {
	Draw(d *pdfDoc, cv model.CV, photo *pdfPhoto)
}

// LayoutFor picks the layout for a template. Only the european family uses a
// sidebar.
func LayoutFor(t model.Template) Layout {
	switch t {
	case model.TemplateEuropean, model.TemplateEuropass:
		return sidebarLayout{width: 62}
	default:
		return singleColumnLayout{}
	}
}

type singleColumnLayout struct{}

func (singleColumnLayout) Draw(d *pdfDoc, cv model.CV, photo *pdfPhoto) {
	col := &column{doc: d, x: pageMargin, width: pageWidth - 2*pageMargin, top: pageMargin, bottom: pageHeight - pageMargin}
	d.pdf.SetY(pageMargin)

	const photoWidth = 28.0
	headerWidth := col.width
	photoBottom := 0.0
	if photo != nil {
		headerWidth -= photoWidth + 6
		photoBottom = pageMargin + d.drawPhoto(photo, pageWidth-pageMargin-photoWidth, pageMargin, photoWidth)
	}
	header := *col
	header.width = headerWidth
	drawHeader(&header, BuildHeader(cv))
	if y := d.pdf.GetY(); y < photoBottom {
		d.pdf.SetY(photoBottom)
	}
	col.space(2)
	col.rule(d.theme.Accent, 0.6)
	col.space(4)

	for _, s := range Sections(cv) {
		drawSection(col, s)
	}
}

type sidebarLayout struct {
	width float64
}

// Draw fills the main column first, then returns to page one for the sidebar.
// The sidebar only adds pages once it runs past the last main page.
func (l sidebarLayout) Draw(d *pdfDoc, cv model.CV, photo *pdfPhoto) {
	side, mainSections := SplitSidebar(Sections(cv))

	const gap = 8.0
	main := &column{doc: d, x: l.width + gap, width: pageWidth - l.width - gap - pageMargin, top: pageMargin, bottom: pageHeight - pageMargin}
	d.pdf.SetY(pageMargin)
	drawHeader(main, BuildHeader(cv))
	main.space(2)
	main.rule(d.theme.Accent, 0.6)
	main.space(4)
	for _, s := range mainSections {
		drawSection(main, s)
	}

	for page := 1; page <= d.pdf.PageCount(); page++ {
		d.gotoPage(page)
		l.paintBackground(d)
	}

	d.gotoPage(1)
	sidebar := &column{doc: d, x: 8, width: l.width - 16, top: pageMargin, bottom: pageHeight - pageMargin, onNewPage: func() { l.paintBackground(d) }}
	d.pdf.SetY(pageMargin)
	if photo != nil {
		r := (sidebar.width - 8) / 2
		cx := l.width / 2
		d.drawPhotoCircle(photo, cx, pageMargin+r, r)
		d.pdf.SetY(pageMargin + 2*r + 6)
	}
	for _, s := range side {
		drawSection(sidebar, s)
	}
}

func (l sidebarLayout) paintBackground(d *pdfDoc) {
	c := d.theme.Sidebar
	d.pdf.SetFillColor(c.R, c.G, c.B)
	d.pdf.Rect(0, 0, l.width, pageHeight, "F")
}

func drawHeader(col *column, h Header) {
	d := col.doc
	base := d.theme.BaseSize
	col.text(h.Name, "B", base+12, d.theme.Text, "L")
	if h.Subtitle != "" {
		col.text(h.Subtitle, "", base+3, d.theme.Accent, "L")
	}
	if len(h.Contact) > 0 {
		col.space(1)
		col.text(strings.Join(h.Contact, "  ·  "), "", base-0.5, d.theme.Muted, "L")
	}
}

func drawSection(col *column, s Section) {
	d := col.doc
	base := d.theme.BaseSize

	if s.Title != "" {
		// Keep the heading with at least its first line of content.
		col.ensure(lineHeight(base+2) + 2 + 2*lineHeight(base))
		col.text(strings.ToUpper(s.Title), "B", base+2, d.theme.Accent, "L")
		col.rule(d.theme.Accent, 0.3)
		col.space(1.5)
	}

	switch s.Kind {
	case SectionPersonal:
		for _, e := range s.Entries {
			col.text(e.Title, "B", base-1, d.theme.Muted, "L")
			col.text(e.Body, "", base, d.theme.Text, "L")
			col.space(1)
		}
	case SectionEmployment, SectionEducation:
		for _, e := range s.Entries {
			col.ensure(2 * lineHeight(base))
			col.text(e.Title, "B", base+0.5, d.theme.Text, "L")
			if e.Subtitle != "" {
				col.text(e.Subtitle, "", base, d.theme.Text, "L")
			}
			if e.Meta != "" {
				col.text(e.Meta, "", base-1, d.theme.Muted, "L")
			}
			if e.Body != "" {
				col.space(0.5)
				col.text(e.Body, "", base, d.theme.Text, "L")
			}
			col.space(2)
		}
	case SectionSkills, SectionLanguages:
		for _, e := range s.Entries {
			col.text(EntryLine(e), "", base, d.theme.Text, "L")
		}
	case SectionSignature:
		col.space(4)
		col.text(s.Entries[0].Body, "", base, d.theme.Text, "R")
	case SectionFooter:
		col.space(4)
		col.text(s.Entries[0].Body, "", base-2, d.theme.Muted, "C")
	default:
		for _, e := range s.Entries {
			col.text(e.Body, "", base, d.theme.Text, "L")
		}
	}
	col.space(4)
}

// column is a vertical strip of the page that breaks onto the next page by
// hand. A page is only appended when the current page is the last one.
type column struct {
	doc       *pdfDoc
	x, width  float64
	top       float64
	bottom    float64
	onNewPage func()
}

func (c *column) ensure(h float64) {
	if c.doc.pdf.GetY()+h <= c.bottom {
		return
	}
	pdf := c.doc.pdf
	if pdf.PageNo() < pdf.PageCount() {
		c.doc.gotoPage(pdf.PageNo() + 1)
	} else {
		pdf.AddPage()
		if c.onNewPage != nil {
			c.onNewPage()
		}
	}
	pdf.SetY(c.top)
}

func (c *column) text(s, style string, size float64, color RGB, align string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	d := c.doc
	d.setFont(style, size)
	d.setColor(color)
	h := lineHeight(size)
	for _, line := range d.wrap(s, c.width) {
		c.ensure(h)
		y := d.pdf.GetY()
		d.pdf.SetXY(c.x, y)
		d.pdf.CellFormat(c.width, h, d.fonts.tr(line), "", 0, align, false, 0, "")
		d.pdf.SetY(y + h)
	}
}

func (c *column) space(h float64) {
	pdf := c.doc.pdf
	y := pdf.GetY() + h
	if y > c.bottom {
		y = c.bottom
	}
	pdf.SetY(y)
}

func (c *column) rule(color RGB, thickness float64) {
	c.ensure(thickness + 1)
	pdf := c.doc.pdf
	y := pdf.GetY() + 0.5
	pdf.SetDrawColor(color.R, color.G, color.B)
	pdf.SetLineWidth(thickness)
	pdf.Line(c.x, y, c.x+c.width, y)
	pdf.SetY(y + thickness + 0.5)
}
