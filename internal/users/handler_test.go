package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/auth"
	"cv-builder/internal/shared/server/middleware"
)

func setupMeRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func getMe(t *testing.T, r *gin.Engine, header, value string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set(header, value)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body struct {
		User map[string]any `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, body.User
}

func TestMeForGuest(t *testing.T) {
	r := setupMeRouter(t, newTestService())
	code, user := getMe(t, r, "X-Guest-Id", "abc")
	if code != http.StatusOK || user["id"] != "guest:abc" || user["isGuest"] != true {
		t.Fatalf("unexpected response %d %+v", code, user)
	}
}

func TestMeUsesStoredProfile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	svc := newTestService()
	registered, err := svc.Register(t.Context(), "ann@example.com", "secret1", "Ann Lee")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := auth.SignJWT(auth.Claims{Sub: registered.ID, Email: registered.Email})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	code, user := getMe(t, setupMeRouter(t, svc), "Authorization", "Bearer "+token)
	if code != http.StatusOK || user["fullName"] != "Ann Lee" || user["isGuest"] != false {
		t.Fatalf("unexpected response %d %+v", code, user)
	}
}

func TestMeFallsBackToClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := auth.SignJWT(auth.Claims{Sub: "google:9", Email: "g@example.com", Name: "Gee"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	code, user := getMe(t, setupMeRouter(t, newTestService()), "Authorization", "Bearer "+token)
	if code != http.StatusOK || user["name"] != nil || user["fullName"] != "Gee" {
		t.Fatalf("unexpected response %d %+v", code, user)
	}
}
