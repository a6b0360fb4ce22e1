package account

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
	"cv-builder/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/account/claim-guest", h.claimGuest)
}

func (h *Handler) claimGuest(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	if middleware.IsGuest(c) {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}

	authedUserID := strings.TrimSpace(middleware.UserIDFromContext(c))
	if authedUserID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}

	guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
	if guestID == "" {
		respond.ValidationFailed(c, "missing X-Guest-Id header", []respond.FieldError{
			{Path: "X-Guest-Id", Message: "is required"},
		})
		return
	}
	if !middleware.ValidGuestID(guestID) {
		respond.ValidationFailed(c, "invalid guest id", []respond.FieldError{
			{Path: "X-Guest-Id", Message: "must be 1-64 letters, digits, '-' or '_'"},
		})
		return
	}

	result, err := h.Svc.ClaimGuest(c.Request.Context(), middleware.GuestPrefix+guestID, authedUserID)
	if err != nil {
		respond.Internal(c, "failed to claim guest data", err)
		return
	}
	telemetry.Info("account.claimed", map[string]any{
		"user_id":     authedUserID,
		"cvs":         result.MigratedCVs,
		"assessments": result.MigratedAssessments,
	})
	respond.JSON(c, http.StatusOK, result)
}
