package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	sharedauth "cv-builder/internal/shared/auth"
	"cv-builder/internal/users"
)

func setupPasswordRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := &users.Service{Repo: users.NewMemoryRepo(), Cost: bcrypt.MinCost}
	NewPasswordHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	buf, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) authResponse {
	t.Helper()
	var out authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestRegisterThenLogin(t *testing.T) {
	r := setupPasswordRouter(t)

	rec := postJSON(r, "/api/v1/auth/register", map[string]string{"email": "Ann@Example.com", "password": "secret1", "fullName": "Ann"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	reg := decodeAuth(t, rec)
	if reg.User.Email != "ann@example.com" {
		t.Fatalf("expected lowercased email, got %q", reg.User.Email)
	}
	claims, err := sharedauth.VerifyJWT(reg.Token)
	if err != nil || claims.Sub != reg.User.ID {
		t.Fatalf("token does not carry the user: %+v %v", claims, err)
	}

	rec = postJSON(r, "/api/v1/auth/login", map[string]string{"email": "ann@example.com", "password": "secret1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeAuth(t, rec).User.ID != reg.User.ID {
		t.Fatal("login returned a different user")
	}
}

func TestRegisterErrors(t *testing.T) {
	r := setupPasswordRouter(t)

	rec := postJSON(r, "/api/v1/auth/register", map[string]string{"email": "not-an-email", "password": "123"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	postJSON(r, "/api/v1/auth/register", map[string]string{"email": "ann@example.com", "password": "secret1"})
	rec = postJSON(r, "/api/v1/auth/register", map[string]string{"email": "ANN@example.com", "password": "secret2"})
	if rec.Code != http.StatusConflict || decodeAuth(t, rec).Error.Code != "email_taken" {
		t.Fatalf("expected 409 email_taken, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := setupPasswordRouter(t)
	postJSON(r, "/api/v1/auth/register", map[string]string{"email": "ann@example.com", "password": "secret1"})

	rec := postJSON(r, "/api/v1/auth/login", map[string]string{"email": "ann@example.com", "password": "nope"})
	if rec.Code != http.StatusUnauthorized || decodeAuth(t, rec).Error.Code != "invalid_credentials" {
		t.Fatalf("expected 401 invalid_credentials, got %d: %s", rec.Code, rec.Body.String())
	}
}
