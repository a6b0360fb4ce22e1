package respond

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// JSON writes payload as-is.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Success writes {"success": true} merged with fields.
func Success(c *gin.Context, status int, fields gin.H) {
	body := make(gin.H, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	c.JSON(status, body)
}

// Binary writes a rendered file as a download. Exports are built per request
// from user data and must not be cached by intermediaries.
func Binary(c *gin.Context, contentType, disposition string, data []byte) {
	h := c.Writer.Header()
	h.Set("Content-Disposition", disposition)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, contentType, data)
}
