package assessments

import "errors"

var (
	ErrNotFound     = errors.New("assessment not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownQuestion is returned when grading meets a question variant
	// it has no rule for.
	ErrUnknownQuestion = errors.New("unknown question type")
)

// InputError describes a rejected request field. It unwraps to ErrInvalidInput.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalid(field, message string) error {
	return &InputError{Field: field, Message: message}
}
