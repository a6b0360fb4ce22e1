package middleware

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/auth"
	"cv-builder/internal/shared/server/respond"
)

const (
	userIDKey      = "userId"
	userEmailKey   = "userEmail"
	userNameKey    = "userName"
	userPictureKey = "userPicture"
	isGuestKey     = "isGuest"
)

// GuestPrefix marks identities derived from the X-Guest-Id header.
const GuestPrefix = "guest:"

const guestHeader = "X-Guest-Id"

var guestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidGuestID reports whether id is accepted as an X-Guest-Id value.
func ValidGuestID(id string) bool {
	return guestIDPattern.MatchString(id)
}

var (
	errNoIdentity = errors.New("missing identity")
	errBadToken   = errors.New("missing or invalid token")
	errBadGuestID = errors.New("invalid guest id")
)

// identity is the caller resolved from a bearer token or the guest header.
type identity struct {
	ID      string
	Email   string
	Name    string
	Picture string
	Guest   bool
}

func (id identity) store(c *gin.Context) {
	c.Set(userIDKey, id.ID)
	c.Set(isGuestKey, id.Guest)
	for key, val := range map[string]string{
		userEmailKey:   id.Email,
		userNameKey:    id.Name,
		userPictureKey: id.Picture,
	} {
		if val != "" {
			c.Set(key, val)
		}
	}
}

func resolveIdentity(c *gin.Context) (identity, error) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return identity{}, errBadToken
		}
		claims, err := auth.VerifyJWT(strings.TrimSpace(token))
		if err != nil {
			return identity{}, errBadToken
		}
		return identity{ID: claims.Sub, Email: claims.Email, Name: claims.Name, Picture: claims.Picture}, nil
	}

	guestID := strings.TrimSpace(c.GetHeader(guestHeader))
	switch {
	case guestID == "":
		return identity{}, errNoIdentity
	case !ValidGuestID(guestID):
		return identity{}, errBadGuestID
	}
	return identity{ID: GuestPrefix + guestID, Guest: true}, nil
}

// Auth resolves the caller from a bearer JWT, or from X-Guest-Id when no
// token is sent. Entries in publicPaths match exactly, or by prefix when they
// end with "/".
func Auth(publicPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		if isPublicPath(c.Request.URL.Path, publicPaths) {
			c.Next()
			return
		}
		id, err := resolveIdentity(c)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", err.Error(), nil)
			return
		}
		id.store(c)
		c.Next()
	}
}

func isPublicPath(path string, publicPaths []string) bool {
	for _, p := range publicPaths {
		switch {
		case p == "":
		case strings.HasSuffix(p, "/") && strings.HasPrefix(path, p):
			return true
		case path == p:
			return true
		}
	}
	return false
}

// UserIDFromContext returns "guest:<id>" for guests and the token subject
// otherwise.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

func UserNameFromContext(c *gin.Context) string {
	return stringFromContext(c, userNameKey)
}

func UserPictureFromContext(c *gin.Context) string {
	return stringFromContext(c, userPictureKey)
}

// IsGuest reports whether the caller was identified through X-Guest-Id.
func IsGuest(c *gin.Context) bool {
	if c == nil {
		return false
	}
	guest, _ := c.Value(isGuestKey).(bool)
	return guest
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	s, _ := c.Value(key).(string)
	return s
}
