package cv

import (
	"errors"
	"strings"

	"cv-builder/resume/schema"
)

var (
	ErrNotFound     = errors.New("cv not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrRender covers renderer failures, recovered panics included.
	ErrRender = errors.New("render failed")
)

// ValidationError lists every rejected field of a request. It unwraps to
// ErrInvalidInput.
type ValidationError struct {
	Fields []schema.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Path == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Path+": "+f.Message)
	}
	return "invalid cv: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalidField(path, message string) error {
	return &ValidationError{Fields: []schema.FieldError{{Path: path, Message: message}}}
}
