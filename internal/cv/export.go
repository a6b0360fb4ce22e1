package cv

import (
	"context"
	"fmt"
	"time"

	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/telemetry"
	"cv-builder/resume/model"
	"cv-builder/resume/render"
)

// Export is a fully rendered file ready to be written to a response.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Disposition returns the Content-Disposition header value.
func (e Export) Disposition() string {
	return render.ContentDisposition(e.Filename)
}

// ParseFormat maps a route parameter to a render format.
func ParseFormat(raw string) (render.Format, error) {
	f, ok := render.ParseFormat(raw)
	if !ok {
		return "", invalidField("format", "must be one of pdf, docx")
	}
	return f, nil
}

// Export renders cv into format f.
func (s *Service) Export(ctx context.Context, cv model.CV, f render.Format) (Export, error) {
	if err := ctx.Err(); err != nil {
		return Export{}, err
	}
	start := time.Now()
	data, err := s.render(cv, f)
	metrics.ObserveExport(string(f), string(cv.Template), err, time.Since(start))
	if err != nil {
		telemetry.Error("cv.export_failed", map[string]any{
			"format":   string(f),
			"template": string(cv.Template),
			"error":    err.Error(),
		})
		return Export{}, err
	}
	return Export{
		Filename:    render.ExportFilename(cv.Title, f),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// ExportStored renders one of the user's stored CVs.
func (s *Service) ExportStored(ctx context.Context, userID, id string, f render.Format) (Export, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return Export{}, err
	}
	return s.Export(ctx, rec.Document, f)
}

func (s *Service) render(cv model.CV, f render.Format) (data []byte, err error) {
	r, ok := s.Renderers[f]
	if !ok {
		return nil, fmt.Errorf("%w: no renderer for %s", ErrRender, f)
	}
	defer func() {
		if p := recover(); p != nil {
			data, err = nil, fmt.Errorf("%w: panic: %v", ErrRender, p)
		}
	}()
	data, err = r.Render(cv)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return data, nil
}

// DefaultRenderers returns the PDF and DOCX renderers keyed by format.
func DefaultRenderers(fontPaths []string) map[render.Format]render.Renderer {
	return map[render.Format]render.Renderer{
		render.FormatPDF:  render.NewPDFRenderer(fontPaths),
		render.FormatDOCX: render.NewDOCXRenderer(),
	}
}
