package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func SendAPIResponse(c *gin.Context, code int, success bool, message string, data any) {
	resp := APIResponse{
		Success:   success,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now(),
	}

	c.JSON(code, resp)
}

// SendAPIError writes a failed response carrying a stable reason code.
func SendAPIError(c *gin.Context, status int, reason, message string) {
	c.JSON(status, APIResponse{
		Success:   false,
		Message:   message,
		Code:      reason,
		CreatedAt: time.Now(),
	})
}

// AbortWithError is SendAPIError for middleware.
func AbortWithError(c *gin.Context, status int, reason, message string) {
	SendAPIError(c, status, reason, message)
	c.Abort()
}
