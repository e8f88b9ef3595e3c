package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gurkanbulca/projecthub/internal/apperrors"
)

// HTTPStatus maps a domain error kind to its response status.
func HTTPStatus(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict, apperrors.KindBadRequest:
		return http.StatusBadRequest
	case apperrors.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Fail records err on the context and stops the handler chain. ErrorHandler
// renders it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last error recorded by a handler as
// {"detail": "..."}. Internal errors are logged and hidden from clients.
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		kind := apperrors.KindOf(err)
		status := HTTPStatus(kind)

		detail := err.Error()
		if kind == apperrors.KindInternal {
			log.Error("internal error",
				"path", c.Request.URL.Path,
				"request_id", GetRequestIDFromContext(c.Request.Context()),
				"error", err,
			)
			detail = "Internal server error"
		}

		c.JSON(status, gin.H{"detail": detail})
	}
}
