// Package extract reads the visible text back out of rendered PDF and DOCX
// files. Exports are verified with it in cmd/renderdemo and renderer tests.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"

	docxBody = "word/document.xml"
)

// Document is what could be read back from a rendered file. Pages is only
// known for PDFs.
type Document struct {
	ContentType string
	Text        string
	Pages       int
}

// ErrUnsupported is returned for content types other than PDF and DOCX.
var ErrUnsupported = errors.New("unsupported content type")

// Read parses data according to contentType. A generic zip that carries a
// Word body part is read as DOCX.
func Read(ctx context.Context, data []byte, contentType string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if len(data) == 0 {
		return Document{}, errors.New("empty document")
	}
	ct := baseType(contentType)
	if ct == mimeZip && zipHasPart(data, docxBody) {
		ct = MimeDOCX
	}
	switch ct {
	case MimePDF:
		return readPDF(data)
	case MimeDOCX:
		text, err := readDOCX(data)
		return Document{ContentType: MimeDOCX, Text: text}, err
	default:
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}
}

// Text is Read without the metadata.
func Text(ctx context.Context, data []byte, contentType string) (string, error) {
	doc, err := Read(ctx, data, contentType)
	return doc.Text, err
}

// PageCount reports the number of pages of a PDF.
func PageCount(data []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return r.NumPage(), nil
}

func baseType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func readPDF(data []byte) (Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return Document{}, fmt.Errorf("pdf text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return Document{}, err
	}
	return Document{ContentType: MimePDF, Text: sb.String(), Pages: r.NumPage()}, nil
}

func readDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	f := findPart(zr, docxBody)
	if f == nil {
		return "", fmt.Errorf("docx: %s missing", docxBody)
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return paragraphs(rc)
}

// paragraphs joins run text, starting a new line at each paragraph end and
// each explicit break.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func zipHasPart(data []byte, name string) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	return err == nil && findPart(zr, name) != nil
}

func findPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f
		}
	}
	return nil
}
