package main

// Send a generation prompt to the configured provider and print the result:
//   go run ./cmd/prompttest -profession "Data Engineer" -difficulty senior

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"cv-builder/internal/assessments"
	"cv-builder/internal/llm"
	openai "cv-builder/internal/llm/openai"
	"cv-builder/internal/shared/config"
	"cv-builder/internal/shared/telemetry"
)

type output struct {
	Assessment assessments.Assessment       `json:"assessment"`
	AnswerKey  []assessments.AnswerKeyEntry `json:"answerKey"`
}

func main() {
	cfg := config.Load()
	telemetry.Init(cfg.LogLevel, "console")

	profession := flag.String("profession", "", "profession to assess")
	difficulty := flag.String("difficulty", "middle", "junior, middle or senior")
	numQuestions := flag.Int("n", 10, "number of questions")
	mix := flag.String("mix", "mixed", "mixed, mcq or open")
	provider := flag.String("provider", cfg.LLMProvider, "LLM provider")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	outPath := flag.String("out", "", "path to write JSON output (optional)")
	flag.Parse()

	if strings.TrimSpace(*profession) == "" {
		exitErr("profession is required")
	}

	client, err := openai.NewPromptClient(openai.Options{
		Provider: *provider,
		APIKey:   cfg.LLMAPIKey,
		Model:    *model,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.LLMTimeout,
	})
	if err != nil {
		exitErr(err.Error())
	}

	repo := assessments.NewMemoryRepo()
	svc := &assessments.Service{Repo: repo, LLM: client}

	var promptHash string
	ctx := llm.WithPromptHashSink(context.Background(), &promptHash)
	a, err := svc.Generate(ctx, "prompttest", assessments.GenerateRequest{
		Profession:   *profession,
		Difficulty:   assessments.Difficulty(*difficulty),
		NumQuestions: *numQuestions,
		Mix:          assessments.Mix(*mix),
	})
	if err != nil {
		exitErr(fmt.Sprintf("generate: %v", err))
	}
	stored, err := repo.Get(ctx, "prompttest", a.ID)
	if err != nil {
		exitErr(fmt.Sprintf("reload: %v", err))
	}

	pretty, err := json.MarshalIndent(output{Assessment: stored, AnswerKey: stored.AnswerKey}, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}
	pretty = append(pretty, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}
	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	_, _ = fmt.Fprintf(os.Stderr, "model=%s prompt_hash=%s\n", client.Model(), promptHash)
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
