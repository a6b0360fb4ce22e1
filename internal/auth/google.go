package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"cv-builder/internal/shared/server/respond"
	"cv-builder/internal/shared/telemetry"
	"cv-builder/internal/users"
)

const (
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultStateTTL    = 5 * time.Minute
)

// GoogleConfig configures the Google sign-in flow. Endpoint and UserInfoURL
// default to Google's production endpoints.
type GoogleConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	UIRedirectURL string
	Endpoint      oauth2.Endpoint
	UserInfoURL   string
	StateTTL      time.Duration
}

func (c GoogleConfig) complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURL != ""
}

// GoogleService signs users in with Google and hands the UI a session token.
type GoogleService struct {
	cfg         GoogleConfig
	oauthConfig *oauth2.Config
	states      *stateStore
	users       *users.Service
}

// NewGoogleService builds a GoogleService. usersSvc may be nil, in which
// case signed-in identities are not persisted.
func NewGoogleService(cfg GoogleConfig, usersSvc *users.Service) *GoogleService {
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = defaultStateTTL
	}
	return &GoogleService{
		cfg:   cfg,
		users: usersSvc,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: cfg.Endpoint,
		},
		states: newStateStore(),
	}
}

func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.cfg.complete() {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}
	state := uuid.NewString()
	s.states.put(state, time.Now().Add(s.cfg.StateTTL))
	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state))
}

func (s *GoogleService) callback(c *gin.Context) {
	state, code := c.Query("state"), c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	if !s.states.consume(state) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		telemetry.Warn("auth.google_exchange_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}
	profile, err := s.fetchProfile(ctx, token)
	if err != nil {
		telemetry.Warn("auth.google_profile_failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}

	user := s.remember(ctx, profile)
	jwt, err := tokenFor(user)
	if err != nil {
		respond.Internal(c, "failed to issue token", err)
		return
	}
	target, err := appendToken(s.cfg.UIRedirectURL, jwt)
	if err != nil {
		respond.Internal(c, "failed to redirect", err)
		return
	}
	telemetry.Info("auth.google_signed_in", map[string]any{"user_id": user.ID})
	c.Redirect(http.StatusFound, target)
}

// remember stores the profile when a users service is wired. A failed upsert
// does not block sign-in.
func (s *GoogleService) remember(ctx context.Context, p googleProfile) users.User {
	u := users.User{
		ID:         "google:" + p.Sub,
		Email:      p.Email,
		FullName:   p.Name,
		GivenName:  p.GivenName,
		FamilyName: p.FamilyName,
		PictureURL: p.Picture,
	}
	if s.users == nil || u.Email == "" {
		return u
	}
	if err := s.users.UpsertFromAuth(ctx, u); err != nil {
		telemetry.Warn("auth.google_upsert_failed", map[string]any{"user_id": u.ID, "error": err.Error()})
	}
	return u
}

type googleProfile struct {
	Sub        string `json:"sub"`
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
}

func (s *GoogleService) fetchProfile(ctx context.Context, token *oauth2.Token) (googleProfile, error) {
	resp, err := s.oauthConfig.Client(ctx, token).Get(s.cfg.UserInfoURL)
	if err != nil {
		return googleProfile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleProfile{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var p googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return googleProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	// v2 userinfo reports "id".
	if p.Sub == "" {
		p.Sub = p.ID
	}
	if p.Sub == "" {
		return googleProfile{}, errors.New("userinfo missing subject")
	}
	return p, nil
}

// stateStore holds pending OAuth states until they are used or expire.
type stateStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]time.Time)}
}

func (s *stateStore) put(state string, exp time.Time) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.items {
		if now.After(e) {
			delete(s.items, k)
		}
	}
	s.items[state] = exp
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	exp, ok := s.items[state]
	delete(s.items, state)
	s.mu.Unlock()
	return ok && time.Now().Before(exp)
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
