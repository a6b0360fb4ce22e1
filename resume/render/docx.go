package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"cv-builder/resume/model"
)

const (
	wmlNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	// 1.25in in EMU.
	docxPhotoEMU = 1143000
	photoRelID   = "rIdPhoto"
)

// DOCXRenderer writes CVs as single-column WordprocessingML documents.
type DOCXRenderer struct{}

func NewDOCXRenderer() *DOCXRenderer { return &DOCXRenderer{} }

func (r *DOCXRenderer) Format() Format { return FormatDOCX }

type docxPhoto struct {
	ext         string
	contentType string
	data        []byte
}

// Render returns the DOCX bytes for cv. Identical input yields identical bytes.
func (r *DOCXRenderer) Render(cv model.CV) ([]byte, error) {
	theme := ThemeFor(cv)

	var photo *docxPhoto
	if cv.PhotoIncluded() {
		p, err := model.ParsePhoto(cv.PersonalInfo.Photo)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPhoto, err)
		}
		if ext := docxImageExt(p.Subtype); ext != "" {
			photo = &docxPhoto{ext: ext, contentType: "image/" + canonicalSubtype(p.Subtype), data: p.Data}
		}
	}

	document := buildDocumentXML(cv, theme, photo)
	if err := checkWellFormed(document); err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML(photo))},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"docProps/core.xml", []byte(corePropsXML(cv))},
		{"word/document.xml", []byte(document)},
		{"word/styles.xml", []byte(stylesXML(theme))},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML(photo))},
	}
	if photo != nil {
		parts = append(parts, struct {
			name string
			data []byte
		}{"word/media/photo." + photo.ext, photo.data})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range parts {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     part.name,
			Method:   zip.Deflate,
			Modified: fixedTimestamp,
		})
		if err != nil {
			return nil, fmt.Errorf("render docx: %w", err)
		}
		if _, err := w.Write(part.data); err != nil {
			return nil, fmt.Errorf("render docx: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("render docx: %w", err)
	}
	return buf.Bytes(), nil
}

func docxImageExt(subtype string) string {
	switch subtype {
	case "jpeg", "jpg", "pjpeg":
		return "jpeg"
	case "png":
		return "png"
	case "gif":
		return "gif"
	}
	return ""
}

func canonicalSubtype(subtype string) string {
	if ext := docxImageExt(subtype); ext != "" {
		return ext
	}
	return subtype
}

// docxWriter accumulates <w:body> content.
type docxWriter struct {
	b     strings.Builder
	theme Theme
}

type runStyle struct {
	bold   bool
	italic bool
	size   float64 // points; 0 inherits
	color  string
}

func (w *docxWriter) paragraph(style, align string, runs ...string) {
	w.b.WriteString("<w:p>")
	if style != "" || align != "" {
		w.b.WriteString("<w:pPr>")
		if style != "" {
			fmt.Fprintf(&w.b, `<w:pStyle w:val="%s"/>`, style)
		}
		if align != "" {
			fmt.Fprintf(&w.b, `<w:jc w:val="%s"/>`, align)
		}
		w.b.WriteString("</w:pPr>")
	}
	for _, r := range runs {
		w.b.WriteString(r)
	}
	w.b.WriteString("</w:p>")
}

func run(text string, st runStyle) string {
	var b strings.Builder
	b.WriteString("<w:r>")
	if st.bold || st.italic || st.size > 0 || st.color != "" {
		b.WriteString("<w:rPr>")
		if st.bold {
			b.WriteString("<w:b/>")
		}
		if st.italic {
			b.WriteString("<w:i/>")
		}
		if st.color != "" {
			fmt.Fprintf(&b, `<w:color w:val="%s"/>`, st.color)
		}
		if st.size > 0 {
			fmt.Fprintf(&b, `<w:sz w:val="%d"/>`, int(st.size*2))
		}
		b.WriteString("</w:rPr>")
	}
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		b.WriteString(escapeXML(line))
		b.WriteString("</w:t>")
	}
	b.WriteString("</w:r>")
	return b.String()
}

func escapeXML(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func buildDocumentXML(cv model.CV, theme Theme, photo *docxPhoto) string {
	w := &docxWriter{theme: theme}
	accent := theme.Accent.Hex()
	muted := theme.Muted.Hex()

	header := BuildHeader(cv)
	w.paragraph("Title", "", run(header.Name, runStyle{}))
	if header.Subtitle != "" {
		w.paragraph("Subtitle", "", run(header.Subtitle, runStyle{color: accent}))
	}
	if len(header.Contact) > 0 {
		w.paragraph("", "", run(strings.Join(header.Contact, "  ·  "), runStyle{color: muted}))
	}
	if photo != nil {
		w.paragraph("", "", inlinePhotoXML())
	}

	for _, s := range Sections(cv) {
		if s.Title != "" {
			w.paragraph("Heading1", "", run(s.Title, runStyle{}))
		}
		switch s.Kind {
		case SectionPersonal:
			for _, e := range s.Entries {
				w.paragraph("", "", run(e.Title+": ", runStyle{bold: true}), run(e.Body, runStyle{}))
			}
		case SectionEmployment, SectionEducation:
			for _, e := range s.Entries {
				runs := []string{run(e.Title, runStyle{bold: true})}
				if e.Subtitle != "" {
					runs = append(runs, run(" — "+e.Subtitle, runStyle{}))
				}
				w.paragraph("", "", runs...)
				if e.Meta != "" {
					w.paragraph("", "", run(e.Meta, runStyle{italic: true, color: muted}))
				}
				if e.Body != "" {
					w.paragraph("", "", run(e.Body, runStyle{}))
				}
			}
		case SectionSkills, SectionLanguages:
			for _, e := range s.Entries {
				w.paragraph("ListBullet", "", run(EntryLine(e), runStyle{}))
			}
		case SectionSignature:
			w.paragraph("", "right", run(s.Entries[0].Body, runStyle{}))
		case SectionFooter:
			w.paragraph("", "center", run(s.Entries[0].Body, runStyle{size: theme.BaseSize - 2, color: muted}))
		default:
			for _, e := range s.Entries {
				w.paragraph("", "", run(e.Body, runStyle{}))
			}
		}
	}

	return xml.Header + `<w:document xmlns:w="` + wmlNamespace + `" xmlns:r="` + relNamespace + `"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
		`<w:body>` + w.b.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr>` +
		`</w:body></w:document>`
}

func inlinePhotoXML() string {
	return fmt.Sprintf(`<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="%[1]d" cy="%[1]d"/><wp:docPr id="1" name="Photo"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="1" name="Photo"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%[2]s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%[1]d" cy="%[1]d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr></pic:pic>`+
		`</a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`, docxPhotoEMU, photoRelID)
}

func stylesXML(theme Theme) string {
	base := int(theme.BaseSize * 2)
	accent := theme.Accent.Hex()
	return xml.Header + `<w:styles xmlns:w="` + wmlNamespace + `">` +
		fmt.Sprintf(`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="%d"/></w:rPr></w:rPrDefault>`, base) +
		`<w:pPrDefault><w:pPr><w:spacing w:after="80"/></w:pPr></w:pPrDefault></w:docDefaults>` +
		`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
		fmt.Sprintf(`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="%d"/></w:rPr></w:style>`, base+24) +
		fmt.Sprintf(`<w:style w:type="paragraph" w:styleId="Subtitle"><w:name w:val="Subtitle"/><w:basedOn w:val="Normal"/><w:rPr><w:sz w:val="%d"/></w:rPr></w:style>`, base+6) +
		fmt.Sprintf(`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="240" w:after="80"/>`+
			`<w:pBdr><w:bottom w:val="single" w:sz="6" w:space="1" w:color="%[1]s"/></w:pBdr></w:pPr><w:rPr><w:b/><w:caps/><w:color w:val="%[1]s"/><w:sz w:val="%[2]d"/></w:rPr></w:style>`, accent, base+4) +
		`<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/><w:pPr><w:ind w:left="360"/></w:pPr></w:style>` +
		`</w:styles>`
}

func contentTypesXML(photo *docxPhoto) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	if photo != nil {
		fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, photo.ext, photo.contentType)
	}
	b.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	b.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	b.WriteString(`</Types>`)
	return b.String()
}

const rootRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`</Relationships>`

func documentRelsXML(photo *docxPhoto) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rIdStyles" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	if photo != nil {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/photo.%s"/>`, photoRelID, photo.ext)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func corePropsXML(cv model.CV) string {
	return xml.Header + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/">` +
		`<dc:title>` + escapeXML(cv.Title) + `</dc:title>` +
		`<dc:creator>` + escapeXML(cv.FullName()) + `</dc:creator>` +
		`</cp:coreProperties>`
}

// checkWellFormed decodes the whole document and rejects nested paragraphs.
func checkWellFormed(text string) error {
	dec := xml.NewDecoder(strings.NewReader(text))
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("document.xml parse failed: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == wmlNamespace && t.Name.Local == "p" {
				if depth > 0 {
					return fmt.Errorf("document.xml has nested <w:p>")
				}
				depth++
			}
		case xml.EndElement:
			if t.Name.Space == wmlNamespace && t.Name.Local == "p" {
				depth--
			}
		}
	}
}
