package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/account"
	"cv-builder/internal/assessments"
	googleauth "cv-builder/internal/auth"
	"cv-builder/internal/cv"
	"cv-builder/internal/llm"
	openai "cv-builder/internal/llm/openai"
	"cv-builder/internal/services/health"
	"cv-builder/internal/shared/config"
	"cv-builder/internal/shared/server"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/storage/db"
	"cv-builder/internal/shared/storage/object"
	localstore "cv-builder/internal/shared/storage/object/local"
	s3store "cv-builder/internal/shared/storage/object/s3"
	"cv-builder/internal/shared/telemetry"
	"cv-builder/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Store              object.Store
	LLM                llm.Client
	Limiter            middleware.Limiter
	CVRepo             cv.Repo
	AssessmentsRepo    assessments.Repo
	UsersRepo          users.Repo
	CVService          *cv.Service
	AssessmentsService *assessments.Service
	AccountService     *account.Service
	UsersService       *users.Service
	HealthService      *health.Service
	CVHandler          *cv.Handler
	AssessmentHandler  *assessments.Handler
	AccountHandler     *account.Handler
	UsersHandler       *users.Handler
	PasswordAuth       *googleauth.PasswordHandler
	GoogleAuth         *googleauth.GoogleService

	closers []func() error
}

// Build prepares every dependency and the router. Storage backends are
// chosen here once and injected into the services.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		LLM:    llmClient,
	}
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	if err := buildLimiter(ctx, app); err != nil {
		return nil, err
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		Health:            app.HealthService,
		CVHandler:         app.CVHandler,
		AssessmentHandler: app.AssessmentHandler,
		AccountHandler:    app.AccountHandler,
		UserHandler:       app.UsersHandler,
		PasswordAuth:      app.PasswordAuth,
		GoogleAuth:        app.GoogleAuth,
		Limiter:           app.Limiter,
	})

	return app, nil
}

// Close releases the database pool and the Redis client, if any.
func (a *App) Close() error {
	var firstErr error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_storage", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_storage", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Config{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider == "none" {
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewPromptClient(openai.Options{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		Timeout:  cfg.LLMTimeout,
	})
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": cfg.LLMProvider, "error": err.Error()})
			return llm.PlaceholderClient{}, nil
		}
		return nil, err
	}
	telemetry.Info("bootstrap.llm_configured", map[string]any{"provider": cfg.LLMProvider, "model": client.Model()})
	return client, nil
}

func buildLimiter(ctx context.Context, app *App) error {
	if app.Config.RedisURL == "" {
		app.Limiter = middleware.NewRateLimiter(nil)
		return nil
	}
	limiter, err := middleware.NewRedisLimiterFromURL(ctx, app.Config.RedisURL)
	if err != nil {
		if app.Config.IsDevLike() {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err.Error()})
			app.Limiter = middleware.NewRateLimiter(nil)
			return nil
		}
		return fmt.Errorf("connect redis: %w", err)
	}
	app.Limiter = limiter
	app.closers = append(app.closers, limiter.Close)
	return nil
}

func buildServices(app *App) {
	if app.DB != nil {
		app.CVRepo = &cv.PGRepo{DB: app.DB}
		app.AssessmentsRepo = &assessments.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
	} else {
		app.CVRepo = cv.NewMemoryRepo()
		app.AssessmentsRepo = assessments.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
	}

	app.AssessmentsService = &assessments.Service{Repo: app.AssessmentsRepo, LLM: app.LLM}
	app.CVService = &cv.Service{
		Repo:        app.CVRepo,
		Renderers:   cv.DefaultRenderers(app.Config.PDFFontPaths),
		Assessments: app.AssessmentsService,
		Photos:      app.Store,
	}
	app.AccountService = account.NewService(app.CVService, app.AssessmentsService)
	app.UsersService = users.NewService(app.UsersRepo)
	app.HealthService = health.NewService(app.DB)

	app.CVHandler = cv.NewHandler(app.CVService)
	app.AssessmentHandler = assessments.NewHandler(app.AssessmentsService)
	app.AccountHandler = account.NewHandler(app.AccountService)
	app.UsersHandler = users.NewHandler(app.UsersService)
	app.PasswordAuth = googleauth.NewPasswordHandler(app.UsersService)
	app.GoogleAuth = googleauth.NewGoogleService(googleauth.GoogleConfig{
		ClientID:      app.Config.GoogleClientID,
		ClientSecret:  app.Config.GoogleClientSecret,
		RedirectURL:   app.Config.GoogleRedirectURL,
		UIRedirectURL: app.Config.UIRedirectURL,
	}, app.UsersService)
}
