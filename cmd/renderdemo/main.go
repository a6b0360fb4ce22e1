package main

// Render a sample CV and check the output:
//   go run ./cmd/renderdemo -template europass -out ./out

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"cv-builder/internal/extract"
	"cv-builder/resume/model"
	"cv-builder/resume/render"
)

func main() {
	outDir := flag.String("out", "./out", "output directory for the rendered files")
	template := flag.String("template", string(model.TemplateModern), "template to render")
	fonts := flag.String("fonts", "", "comma separated TTF paths for the PDF renderer")
	flag.Parse()

	tpl := model.Template(strings.ToLower(strings.TrimSpace(*template)))
	if !tpl.Valid() {
		exitErr(fmt.Sprintf("unknown template %q", *template))
	}

	cv := sampleCV(tpl)
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		exitErr(err.Error())
	}
	if err := writeModel(filepath.Join(*outDir, "sample_cv.json"), cv); err != nil {
		exitErr(fmt.Sprintf("write model: %v", err))
	}

	var fontPaths []string
	if strings.TrimSpace(*fonts) != "" {
		fontPaths = strings.Split(*fonts, ",")
	}
	renderers := []render.Renderer{render.NewPDFRenderer(fontPaths), render.NewDOCXRenderer()}
	for _, r := range renderers {
		data, err := r.Render(cv)
		if err != nil {
			exitErr(fmt.Sprintf("render %s: %v", r.Format(), err))
		}
		path := filepath.Join(*outDir, render.ExportFilename(cv.Title, r.Format()))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			exitErr(fmt.Sprintf("write %s: %v", path, err))
		}
		if err := verify(data, r.Format(), cv); err != nil {
			exitErr(fmt.Sprintf("verify %s: %v", path, err))
		}
		fmt.Printf("OK: wrote %s\n", path)
	}
}

// verify reads the visible text back and checks the name and the first
// employer made it into the document.
func verify(data []byte, f render.Format, cv model.CV) error {
	text, err := extract.Text(context.Background(), data, f.ContentType())
	if err != nil {
		return err
	}
	flat := squash(text)
	for _, want := range []string{cv.FullName(), cv.Employment[0].Company} {
		if !strings.Contains(flat, squash(want)) {
			return fmt.Errorf("text %q not found in output", want)
		}
	}
	if f == render.FormatPDF {
		pages, err := extract.PageCount(data)
		if err != nil {
			return err
		}
		if pages < 1 {
			return fmt.Errorf("pdf has no pages")
		}
	}
	return nil
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func writeModel(path string, cv model.CV) error {
	payload, err := json.MarshalIndent(cv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func sampleCV(tpl model.Template) model.CV {
	cv := model.New("Jordan Lee CV", tpl)
	cv.PersonalInfo = model.PersonalInfo{
		GivenName:   "Jordan",
		FamilyName:  "Lee",
		JobPosition: "Senior Backend Engineer",
		Email:       "jordan.lee@example.com",
		Phone:       "+1-555-0102",
		City:        "Austin",
		LinkedIn:    "https://www.linkedin.com/in/jordanlee",
	}
	cv.Employment = []model.Employment{
		{
			Position:    "Senior Backend Engineer",
			Company:     "Acme Logistics",
			StartDate:   "2021-04",
			Current:     true,
			Description: "Designed a routing service that reduced shipment latency by 18%.",
		},
		{
			Position:    "Backend Engineer",
			Company:     "Blue Harbor Systems",
			StartDate:   "2018-01",
			EndDate:     "2021-03",
			Description: "Built event-driven ingestion pipelines for compliance data feeds.",
		},
	}
	cv.Education = []model.Education{
		{School: "University of Texas", Degree: "Computer Science", Level: model.EducationBachelor, StartYear: "2012", EndYear: "2016"},
	}
	cv.Skills = []model.Skill{
		{Skill: "Go", Level: model.SkillExpert},
		{Skill: "PostgreSQL", Level: model.SkillAdvanced},
	}
	cv.Languages = []model.Language{
		{Language: "English", Level: model.LanguageNative},
		{Language: "Spanish", Level: model.LanguageB2},
	}
	cv.AdditionalSections.Profile = "Backend engineer with 8 years of experience building resilient APIs."
	return cv
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
