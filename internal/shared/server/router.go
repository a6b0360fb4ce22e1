package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/account"
	"cv-builder/internal/assessments"
	googleauth "cv-builder/internal/auth"
	"cv-builder/internal/cv"
	"cv-builder/internal/services/health"
	"cv-builder/internal/shared/config"
	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
	"cv-builder/internal/users"
)

// Paths reachable without a token or guest id.
var publicPaths = []string{
	"/api/v1/health",
	"/api/v1/db-status",
	"/api/v1/auth/",
}

// RouterDeps carries the handlers built by bootstrap. Nil handlers are skipped.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	CVHandler         *cv.Handler
	AssessmentHandler *assessments.Handler
	AccountHandler    *account.Handler
	UserHandler       *users.Handler
	PasswordAuth      *googleauth.PasswordHandler
	GoogleAuth        *googleauth.GoogleService
	// Limiter backs the assessment rate limit; nil means in-process buckets.
	Limiter middleware.Limiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		metrics.Middleware(),
	)
	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}

	api := r.Group("/api/v1")
	api.Use(
		middleware.Auth(publicPaths...),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				assessments.RateLimitGroupGenerate: middleware.PerMinute(deps.Config.AssessmentRatePerM),
			},
			GroupFor: assessments.RateLimitGroup,
			Limiter:  deps.Limiter,
		}),
	)
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	api.GET("/db-status", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Storage(c.Request.Context()))
	})

	if deps.PasswordAuth != nil {
		deps.PasswordAuth.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.CVHandler != nil {
		deps.CVHandler.RegisterRoutes(api)
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
