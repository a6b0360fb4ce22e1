package assessments

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-builder/internal/llm"
	"cv-builder/internal/shared/server/middleware"
)

func setupAssessmentRouter(t *testing.T, client *scriptedLLM) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(client)
	r := gin.New()
	r.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r, svc
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "tester")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success    bool            `json:"success"`
	Assessment json.RawMessage `json:"assessment"`
	Result     *Result         `json:"result"`
	Error      struct {
		Code    string `json:"code"`
		Details []struct {
			Path    string `json:"path"`
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHandlerGenerateAndSubmit(t *testing.T) {
	client := newScriptedLLM().queue(llm.PurposeGenerate, generatedJSON(2, 0))
	r, _ := setupAssessmentRouter(t, client)

	rec := doJSON(r, http.MethodPost, "/api/v1/assessments", map[string]any{"profession": "Nurse", "numQuestions": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.NotContains(t, string(env.Assessment), "correctIndex")

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Assessment, &created))

	rec = doJSON(r, http.MethodPost, "/api/v1/assessments/submit", map[string]any{
		"assessmentId": created.ID,
		"answers":      []map[string]any{{"id": "m1", "answer": 1}, {"id": "m2", "answer": "1"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env = decodeEnvelope(t, rec)
	require.NotNil(t, env.Result)
	assert.InDelta(t, 1.0, env.Result.TotalScore, 1e-9)

	rec = doJSON(r, http.MethodGet, "/api/v1/assessment-results/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(r, http.MethodGet, "/api/v1/assessments/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correctIndex")

	rec = doJSON(r, http.MethodGet, "/api/v1/assessments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)
}

func TestHandlerGenerateValidation(t *testing.T) {
	r, _ := setupAssessmentRouter(t, newScriptedLLM())

	rec := doJSON(r, http.MethodPost, "/api/v1/assessments", map[string]any{"difficulty": "senior"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "validation_error", env.Error.Code)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "profession", env.Error.Details[0].Path)

	rec = doJSON(r, http.MethodPost, "/api/v1/assessments", map[string]any{"profession": "Nurse", "difficulty": "expert"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env = decodeEnvelope(t, rec)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "difficulty", env.Error.Details[0].Path)

	rec = doJSON(r, http.MethodPost, "/api/v1/assessments", map[string]any{"profession": "Nurse", "mix": "essay"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env = decodeEnvelope(t, rec)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "mix", env.Error.Details[0].Path)

	rec = doJSON(r, http.MethodPost, "/api/v1/assessments", map[string]any{"profession": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env = decodeEnvelope(t, rec)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "profession", env.Error.Details[0].Path)
}

func TestHandlerGenerateAcceptsMixedCaseOptions(t *testing.T) {
	client := newScriptedLLM().queue(llm.PurposeGenerate, generatedJSON(2, 0))
	r, _ := setupAssessmentRouter(t, client)

	rec := doJSON(r, http.MethodPost, "/api/v1/assessments", map[string]any{
		"profession":   "Nurse",
		"difficulty":   "Senior",
		"mix":          "MCQ",
		"numQuestions": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, string(decodeEnvelope(t, rec).Assessment), `"difficulty":"senior"`)
}

func TestHandlerRecordsAssessmentIDForRequestLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, _ := newTestService(newScriptedLLM().queue(llm.PurposeGenerate, generatedJSON(2, 0)))
	var logged []any
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		id, _ := c.Get(middleware.AssessmentIDKey)
		logged = append(logged, id)
	})
	r.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))

	rec := doJSON(r, http.MethodPost, "/api/v1/assessments", map[string]any{"profession": "Nurse", "numQuestions": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Assessment, &created))

	rec = doJSON(r, http.MethodGet, "/api/v1/assessments/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(r, http.MethodPost, "/api/v1/assessments/submit", map[string]any{"assessmentId": "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, []any{created.ID, created.ID, "missing"}, logged)
}

func TestHandlerProviderFailureIs502(t *testing.T) {
	client := newScriptedLLM()
	client.errs[llm.PurposeGenerate] = errors.New("boom")
	r, _ := setupAssessmentRouter(t, client)

	rec := doJSON(r, http.MethodPost, "/api/v1/assessments", map[string]any{"profession": "Nurse"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "provider_unavailable", decodeEnvelope(t, rec).Error.Code)
}

func TestHandlerNotFound(t *testing.T) {
	r, _ := setupAssessmentRouter(t, newScriptedLLM())

	rec := doJSON(r, http.MethodGet, "/api/v1/assessments/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeEnvelope(t, rec).Error.Code)

	rec = doJSON(r, http.MethodGet, "/api/v1/assessment-results/latest", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(r, http.MethodPost, "/api/v1/assessments/submit", map[string]any{"assessmentId": "missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var groups []string
	capture := func(c *gin.Context) { groups = append(groups, RateLimitGroup(c)) }
	r.POST("/api/v1/assessments", capture)
	r.POST("/api/v1/assessments/submit", capture)

	for _, path := range []string{"/api/v1/assessments", "/api/v1/assessments/submit"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	}
	assert.Equal(t, []string{RateLimitGroupGenerate, ""}, groups)
}
