package server

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"cv-builder/internal/assessments"
	"cv-builder/internal/cv"
	"cv-builder/internal/llm"
	"cv-builder/internal/shared/config"
)

func newTestRouter(ratePerMinute int) http.Handler {
	assessmentSvc := &assessments.Service{Repo: assessments.NewMemoryRepo(), LLM: llm.PlaceholderClient{}}
	cvSvc := &cv.Service{Repo: cv.NewMemoryRepo(), Assessments: assessmentSvc}
	return NewRouter(RouterDeps{
		Config:            config.Config{AssessmentRatePerM: ratePerMinute},
		CVHandler:         cv.NewHandler(cvSvc),
		AssessmentHandler: assessments.NewHandler(assessmentSvc),
	})
}

func serve(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublicEndpoints(t *testing.T) {
	r := newTestRouter(5)

	if rec := serve(r, http.MethodGet, "/api/v1/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	rec := serve(r, http.MethodGet, "/api/v1/db-status", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"storage":"memory"`) {
		t.Fatalf("db-status: unexpected %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(r, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("metrics: unexpected %d", rec.Code)
	}
}

func TestProtectedEndpointsRequireIdentity(t *testing.T) {
	r := newTestRouter(5)

	if rec := serve(r, http.MethodGet, "/api/v1/cvs", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
	guest := map[string]string{"X-Guest-Id": "11111111-1111-1111-1111-111111111111"}
	if rec := serve(r, http.MethodGet, "/api/v1/cvs", "", guest); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest, got %d", rec.Code)
	}
}

func TestAssessmentGenerationIsRateLimited(t *testing.T) {
	r := newTestRouter(1)
	guest := map[string]string{"X-Guest-Id": "22222222-2222-2222-2222-222222222222"}
	body := `{"profession":"Nurse"}`

	first := serve(r, http.MethodPost, "/api/v1/assessments", body, guest)
	if first.Code != http.StatusBadGateway {
		t.Fatalf("expected provider failure on first call, got %d: %s", first.Code, first.Body.String())
	}
	second := serve(r, http.MethodPost, "/api/v1/assessments", body, guest)
	if second.Code != http.StatusTooManyRequests || second.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d", second.Code)
	}
	if rec := serve(r, http.MethodGet, "/api/v1/assessments", "", guest); rec.Code != http.StatusOK {
		t.Fatalf("listing must not be limited, got %d", rec.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGuestGenerationLimitSurvivesRotatingGuestIDs(t *testing.T) {
	r := newTestRouter(1)
	body := `{"profession":"Nurse"}`

	limited := 0
	for i := 0; i < 5; i++ {
		guest := map[string]string{"X-Guest-Id": "rotating-" + strconv.Itoa(i)}
		if rec := serve(r, http.MethodPost, "/api/v1/assessments", body, guest); rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 4 {
		t.Fatalf("expected 4 of 5 calls from one client to be limited, got %d", limited)
	}
}
