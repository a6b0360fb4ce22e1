package cv

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"cv-builder/internal/shared/telemetry"
	"cv-builder/resume/model"
	"cv-builder/resume/schema"
)

// RawDocument is a stored document before validation. It may still carry
// legacy keys.
type RawDocument struct {
	ID       string
	UserID   string
	Document []byte
}

// RawStore gives the normalizer access to stored documents as written.
type RawStore interface {
	RawDocuments(ctx context.Context) ([]RawDocument, error)
	ReplaceDocument(ctx context.Context, id string, cv model.CV) error
}

type NormalizeReport struct {
	Scanned   int `json:"scanned"`
	Rewritten int `json:"rewritten"`
	Invalid   int `json:"invalid"`
}

// NormalizeStored re-validates every stored document and rewrites the ones
// whose canonical form differs. Documents that fail validation are logged
// and left untouched.
func NormalizeStored(ctx context.Context, store RawStore) (NormalizeReport, error) {
	docs, err := store.RawDocuments(ctx)
	if err != nil {
		return NormalizeReport{}, fmt.Errorf("load documents: %w", err)
	}
	var report NormalizeReport
	for _, doc := range docs {
		report.Scanned++
		res := schema.Validate(doc.Document)
		if !res.OK() {
			report.Invalid++
			telemetry.Warn("cv.normalize_invalid", map[string]any{
				"cv_id":   doc.ID,
				"user_id": doc.UserID,
				"errors":  len(res.Errors),
			})
			continue
		}
		same, err := sameJSON(doc.Document, res.CV)
		if err != nil {
			return report, fmt.Errorf("compare %s: %w", doc.ID, err)
		}
		if same {
			continue
		}
		if err := store.ReplaceDocument(ctx, doc.ID, res.CV); err != nil {
			return report, fmt.Errorf("rewrite %s: %w", doc.ID, err)
		}
		report.Rewritten++
	}
	return report, nil
}

func sameJSON(stored []byte, cv model.CV) (bool, error) {
	canonical, err := json.Marshal(cv)
	if err != nil {
		return false, err
	}
	var a, b any
	if err := json.Unmarshal(stored, &a); err != nil {
		return false, err
	}
	if err := json.Unmarshal(canonical, &b); err != nil {
		return false, err
	}
	return reflect.DeepEqual(a, b), nil
}
