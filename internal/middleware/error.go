package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "flux/internal/errors"
	"flux/internal/logger"
)

// ErrorDetail is the machine-readable part of a failed response.
type ErrorDetail struct {
	Code string `json:"code"`
}

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Error     ErrorDetail `json:"error"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context into the standard error envelope.
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

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	WriteError(c, err)
	c.Abort()
}

// WriteError writes a consistent JSON error response. AppErrors keep their
// status, code and message; anything else is logged and reported as an
// internal error so details never reach the client.
func WriteError(c *gin.Context, err error) {
	WriteErrorWithData(c, err, nil)
}

// WriteErrorWithData writes the error envelope with data in place of null.
// It is used when a failed request still produced something the caller can use.
func WriteErrorWithData(c *gin.Context, err error, data interface{}) {
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
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
		)
	}

	c.JSON(appErr.StatusCode, ErrorEnvelope{
		Success:   false,
		Message:   appErr.Message,
		Data:      data,
		Error:     ErrorDetail{Code: appErr.Code},
		Timestamp: time.Now().UTC(),
	})
}
