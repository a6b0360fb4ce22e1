package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFromViperDefaults(t *testing.T) {
	cfg := FromViper(newViper())

	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Env != "dev" || !cfg.IsDevLike() {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %q", cfg.ObjectStoreType)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("expected 60s timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.AssessmentRatePerM != 5 {
		t.Fatalf("expected 5 generations per minute, got %d", cfg.AssessmentRatePerM)
	}
}

func TestFromViperNormalizesValues(t *testing.T) {
	v := viper.New()
	v.Set("ENV", "PROD")
	v.Set("OBJECT_STORE", " S3 ")
	v.Set("LLM_PROVIDER", "openai_local")
	v.Set("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	v.Set("PDF_FONT_PATHS", "/fonts/a.ttf,/fonts/b.ttf")
	v.Set("LLM_TIMEOUT_SECONDS", 0)
	v.Set("ASSESSMENT_RATE_PER_MINUTE", -1)

	cfg := FromViper(v)

	if cfg.Env != "production" || cfg.IsDevLike() {
		t.Fatalf("expected production env, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3 store, got %q", cfg.ObjectStoreType)
	}
	if cfg.LLMProvider != "openai-compatible" {
		t.Fatalf("expected openai-compatible provider, got %q", cfg.LLMProvider)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
	if len(cfg.PDFFontPaths) != 2 || cfg.PDFFontPaths[1] != "/fonts/b.ttf" {
		t.Fatalf("unexpected font paths %v", cfg.PDFFontPaths)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("expected timeout fallback, got %s", cfg.LLMTimeout)
	}
	if cfg.AssessmentRatePerM != 5 {
		t.Fatalf("expected rate fallback, got %d", cfg.AssessmentRatePerM)
	}
}
