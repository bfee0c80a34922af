package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "stockscreener/internal/errors"
	"stockscreener/internal/logger"
)

// ErrorHandler renders the last error a handler recorded with c.Error as
// {"error": {"code", "message"}}. AppErrors keep their status and code;
// anything else becomes INTERNAL_ERROR with the details only in the log.
// Nothing is written when the handler already sent a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := toAppError(c.Errors.Last().Err)
		log := logger.Named("http").With(
			"request_id", RequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"code", appErr.Code,
		)
		switch {
		case appErr.StatusCode >= http.StatusInternalServerError:
			log.Errorw("request failed", "error", c.Errors.Last().Err)
		case appErr.Internal != nil:
			log.Warnw("request rejected", "message", appErr.Message, "internal", appErr.Internal)
		default:
			log.Debugw("request rejected", "message", appErr.Message)
		}

		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
	}
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
