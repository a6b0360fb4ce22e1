package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-builder/internal/shared/telemetry"
)

// ErrorBody is the "error" member of every failure response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the envelope {success:false, message, error}.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   ErrorBody `json:"error"`
}

// Error aborts the request with the error envelope. Client errors are logged
// at warn, server errors at error.
func Error(c *gin.Context, status int, code, message string, details any) {
	logFailure(c, status, code, message, nil)
	abort(c, status, code, message, details)
}

// Internal responds 500 internal_error with a generic message and logs cause.
func Internal(c *gin.Context, message string, cause error) {
	logFailure(c, http.StatusInternalServerError, "internal_error", message, cause)
	abort(c, http.StatusInternalServerError, "internal_error", message, nil)
}

func abort(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Message: message,
		Error:   ErrorBody{Code: code, Message: message, Details: details},
	})
}

func logFailure(c *gin.Context, status int, code, message string, cause error) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"request_id": c.GetString("requestId"),
	}
	if id := c.GetString("userId"); id != "" {
		fields["user_id"] = id
		fields["is_guest"] = c.GetBool("isGuest")
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
		return
	}
	telemetry.Warn("http.error", fields)
}
