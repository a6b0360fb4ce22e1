package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/server/respond"
	"cv-builder/internal/shared/telemetry"
	"cv-builder/internal/users"
)

// PasswordHandler serves email and password registration and login.
type PasswordHandler struct {
	Users *users.Service
}

func NewPasswordHandler(svc *users.Service) *PasswordHandler {
	return &PasswordHandler{Users: svc}
}

type registerBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName" binding:"max=500"`
}

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *PasswordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
}

func (h *PasswordHandler) register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationFailed(c, "invalid registration", respond.BindingErrors(err))
		return
	}
	user, err := h.Users.Register(c.Request.Context(), body.Email, body.Password, body.FullName)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			respond.Error(c, http.StatusConflict, "email_taken", "email already registered", nil)
		case errors.Is(err, users.ErrInvalidInput):
			respond.ValidationFailed(c, err.Error(), nil)
		default:
			respond.Internal(c, "failed to register", err)
		}
		return
	}
	telemetry.Info("auth.registered", map[string]any{"user_id": user.ID})
	h.issue(c, http.StatusCreated, user)
}

func (h *PasswordHandler) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.ValidationFailed(c, "invalid login", respond.BindingErrors(err))
		return
	}
	user, err := h.Users.Authenticate(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil)
			return
		}
		respond.Internal(c, "failed to log in", err)
		return
	}
	h.issue(c, http.StatusOK, user)
}

func (h *PasswordHandler) issue(c *gin.Context, status int, user users.User) {
	token, err := tokenFor(user)
	if err != nil {
		respond.Internal(c, "failed to issue token", err)
		return
	}
	respond.Success(c, status, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"email":    user.Email,
			"fullName": user.FullName,
		},
	})
}
