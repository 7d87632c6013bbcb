package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// apiError is the error body for the payment-request and admin endpoints.
// The webhook endpoint keeps its own deliberately generic responses and
// never uses this shape.
type apiError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler recovers from handler panics with a generic 500 so internals
// never leak into a response body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				GetLogger().Error("panic recovered in handler",
					zap.Any("panic", r),
					zap.String("path", c.FullPath()))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apiError{Message: "internal server error"})
			}
		}()
		c.Next()
	}
}

// JSONError logs and writes a structured error response.
func JSONError(c *gin.Context, status int, message, details string) {
	GetLogger().Warn(message,
		zap.Int("status", status),
		zap.String("details", details))
	c.JSON(status, apiError{Message: message, Details: details})
}
