package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
)

// WriteError writes the failure envelope for err. AppErrors keep their status,
// code, and message; anything else becomes a generic internal error. Internal
// causes are logged and never sent to the client.
func WriteError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"message", appErr.Message,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
		)
	}

	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"success": false,
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into the failure envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		WriteError(c, c.Errors.Last().Err)
	}
}
