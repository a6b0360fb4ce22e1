package llm

import (
	"context"
	"errors"
)

// Purpose labels what a completion is used for in logs and metrics.
type Purpose string

const (
	PurposeGenerate Purpose = "assessment_generate"
	PurposeGrade    Purpose = "assessment_grade"
)

// Request is a single chat completion expected to return JSON.
type Request struct {
	Purpose Purpose
	System  string
	Prompt  string
}

// Client abstracts text-generation providers.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrProviderUnavailable marks failures of the external provider: transport
// errors, timeouts, error statuses and unusable output.
var ErrProviderUnavailable = errors.New("llm provider unavailable")

type promptHashKey struct{}

// WithPromptHashSink returns a context that receives the hash of the next prompt sent.
func WithPromptHashSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, promptHashKey{}, sink)
}

// PromptHashSinkFromContext returns the sink set by WithPromptHashSink, if any.
func PromptHashSinkFromContext(ctx context.Context) (*string, bool) {
	sink, ok := ctx.Value(promptHashKey{}).(*string)
	return sink, ok
}

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// Complete always fails with ErrProviderUnavailable.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", errors.Join(ErrProviderUnavailable, errors.New("no LLM provider configured"))
}
