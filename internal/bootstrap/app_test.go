package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cv-builder/internal/assessments"
	"cv-builder/internal/cv"
	"cv-builder/internal/llm"
	"cv-builder/internal/shared/config"
)

func TestBuildDevFallsBackToMemory(t *testing.T) {
	app, err := Build(context.Background(), config.Config{
		Env:                "dev",
		LocalStoreDir:      t.TempDir(),
		LLMProvider:        "none",
		AssessmentRatePerM: 5,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.DB != nil {
		t.Fatal("expected no database in dev without DATABASE_URL")
	}
	if _, ok := app.CVRepo.(*cv.MemoryRepo); !ok {
		t.Fatalf("expected memory cv repo, got %T", app.CVRepo)
	}
	if _, ok := app.AssessmentsRepo.(*assessments.MemoryRepo); !ok {
		t.Fatalf("expected memory assessments repo, got %T", app.AssessmentsRepo)
	}
	if _, ok := app.LLM.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder llm, got %T", app.LLM)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/db-status", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "memory") {
		t.Fatalf("unexpected db-status %d %s", rec.Code, rec.Body.String())
	}
}

func TestBuildProductionRequiresDatabase(t *testing.T) {
	_, err := Build(context.Background(), config.Config{Env: "production", LLMProvider: "none"})
	if err == nil {
		t.Fatal("expected error without DATABASE_URL in production")
	}
}

func TestBuildUnknownProviderFallsBackInDev(t *testing.T) {
	app, err := Build(context.Background(), config.Config{Env: "dev", LocalStoreDir: t.TempDir(), LLMProvider: "openai"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, ok := app.LLM.(llm.PlaceholderClient); !ok {
		t.Fatalf("expected placeholder when the api key is missing, got %T", app.LLM)
	}
}
