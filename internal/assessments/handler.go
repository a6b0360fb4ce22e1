package assessments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/llm"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
)

// RateLimitGroupGenerate is the rate limit group of assessment generation.
const RateLimitGroupGenerate = "ASSESSMENT_GENERATE"

const generatePath = "/api/v1/assessments"

// RateLimitGroup assigns generation requests to RateLimitGroupGenerate.
// Every other request is left to the default group.
func RateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && c.FullPath() == generatePath {
		return RateLimitGroupGenerate
	}
	return ""
}

// Handler wires assessment routes.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

type generateBody struct {
	Profession   string `json:"profession" binding:"required"`
	Difficulty   string `json:"difficulty"`
	NumQuestions int    `json:"numQuestions" binding:"omitempty,gte=1,lte=30"`
	Mix          string `json:"mix"`
}

type answerBody struct {
	ID     string          `json:"id" binding:"required"`
	Answer json.RawMessage `json:"answer"`
}

type submitBody struct {
	AssessmentID string       `json:"assessmentId" binding:"required"`
	Answers      []answerBody `json:"answers" binding:"dive"`
}

// RegisterRoutes attaches assessment endpoints to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/assessments", h.generate)
	rg.GET("/assessments", h.list)
	rg.POST("/assessments/submit", h.submit)
	rg.GET("/assessments/:id", h.get)
	rg.GET("/assessment-results/latest", h.latest)
}

func (h *Handler) generate(c *gin.Context) {
	var body generateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationFailed(c, "invalid assessment request", respond.BindingErrors(err))
		return
	}
	a, err := h.Svc.Generate(c.Request.Context(), middleware.UserIDFromContext(c), GenerateRequest{
		Profession:   body.Profession,
		Difficulty:   Difficulty(body.Difficulty),
		NumQuestions: body.NumQuestions,
		Mix:          Mix(body.Mix),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.AssessmentIDKey, a.ID)
	respond.Success(c, http.StatusCreated, gin.H{"assessment": a})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"assessments": items})
}

func (h *Handler) get(c *gin.Context) {
	a, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), assessmentID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"assessment": a})
}

func (h *Handler) submit(c *gin.Context) {
	var body submitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationFailed(c, "invalid submission", respond.BindingErrors(err))
		return
	}
	c.Set(middleware.AssessmentIDKey, body.AssessmentID)
	req := SubmitRequest{AssessmentID: body.AssessmentID, Answers: make([]SubmittedAnswer, 0, len(body.Answers))}
	for _, a := range body.Answers {
		req.Answers = append(req.Answers, SubmittedAnswer{ID: a.ID, Answer: a.Answer})
	}
	res, err := h.Svc.Submit(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"result": res})
}

func assessmentID(c *gin.Context) string {
	id := c.Param("id")
	c.Set(middleware.AssessmentIDKey, id)
	return id
}

func (h *Handler) latest(c *gin.Context) {
	res, err := h.Svc.LatestResult(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Success(c, http.StatusOK, gin.H{"result": res})
}

func writeError(c *gin.Context, err error) {
	var inputErr *InputError
	switch {
	case errors.As(err, &inputErr):
		respond.ValidationFailed(c, "invalid assessment request", []respond.FieldError{{Path: inputErr.Field, Message: inputErr.Message}})
	case errors.Is(err, ErrInvalidInput):
		respond.ValidationFailed(c, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "assessment not found", nil)
	case errors.Is(err, llm.ErrProviderUnavailable):
		respond.Error(c, http.StatusBadGateway, "provider_unavailable", "assessment provider unavailable", nil)
	default:
		respond.Internal(c, "internal server error", err)
	}
}
