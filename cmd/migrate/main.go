package main

// Run database migrations:
//   go run ./cmd/migrate
// Rewrite stored CVs in canonical form after migrating:
//   go run ./cmd/migrate -normalize-cvs

import (
	"context"
	"flag"
	"os"

	"cv-builder/internal/cv"
	"cv-builder/internal/shared/config"
	"cv-builder/internal/shared/storage/db"
	"cv-builder/internal/shared/telemetry"
)

func main() {
	normalize := flag.Bool("normalize-cvs", false, "re-validate every stored CV and rewrite it in canonical form")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	version, err := db.SchemaVersion(ctx, sqlDB)
	if err != nil {
		telemetry.Warn("migrate.version_unknown", map[string]any{"error": err.Error()})
	}
	telemetry.Info("migrate.done", map[string]any{"version": version})

	if !*normalize {
		return
	}
	report, err := cv.NormalizeStored(ctx, &cv.PGRepo{DB: sqlDB})
	if err != nil {
		telemetry.Error("migrate.normalize_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.normalized", map[string]any{
		"scanned":   report.Scanned,
		"rewritten": report.Rewritten,
		"invalid":   report.Invalid,
	})
}
