package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kishan2613/Sarthi/apperror"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string        `json:"message"`
	Error   string        `json:"error"`
	Code    apperror.Code `json:"code"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestLogger(c).Error("Unhandled panic", zap.Any("error", err))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Error:   "An unexpected error occurred. Please try again later.",
					Code:    apperror.CodeInternal,
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, code apperror.Code, message, details string) {
	logger := requestLogger(c)
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.String("details", details), zap.String("code", string(code)))
	} else {
		logger.Warn(message, zap.String("details", details), zap.String("code", string(code)))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Error: details, Code: code})
}

// AbortWithError renders err using its taxonomy code. message is the
// endpoint-level summary, e.g. "Booking Failed".
func AbortWithError(c *gin.Context, message string, err error) {
	code := apperror.CodeOf(err)
	if code == apperror.CodeInternal {
		requestLogger(c).Error("internal error", zap.Error(err))
	}
	JSONError(c, apperror.HTTPStatus(code), code, message, apperror.MessageOf(err))
}

// requestLogger prefers the request-scoped logger set by the request
// middleware.
func requestLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(LoggerKey); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return GetLogger()
}
