package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerationPromptEmbedsParameters(t *testing.T) {
	prompt := GenerationPrompt(GenerationParams{Profession: "Backend Engineer", Difficulty: "junior", NumQuestions: 10, MCQ: 7, Open: 3})
	for _, want := range []string{`"Backend Engineer"`, `"junior"`, "Total questions: 10", "about 7 multiple choice", "about 3 open-ended"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt:\n%s", prompt)
	}
}

func TestGradingPromptEmbedsRubric(t *testing.T) {
	prompt := GradingPrompt(GradingParams{
		Question:  "Explain indexes",
		KeyPoints: []string{"b-tree", "selectivity"},
		Scoring:   "full marks for both",
		Answer:    "They speed up lookups",
	})
	for _, want := range []string{"Explain indexes", "b-tree; selectivity", "full marks for both", "They speed up lookups", "missed_points"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected %q in prompt:\n%s", want, prompt)
		}
	}
}

func TestPlaceholderClientIsUnavailable(t *testing.T) {
	_, err := PlaceholderClient{}.Complete(context.Background(), Request{Prompt: "x"})
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}
