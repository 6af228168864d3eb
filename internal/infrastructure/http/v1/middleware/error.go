package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"warungpos/internal/core/apperror"
	"warungpos/pkg/logger"
)

// ErrorHandler renders the last error attached to the context as JSON.
// Internal causes are logged but never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		body := gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{"request_id": c.GetString("request_id")},
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}
			status = appErr.HTTPStatus
			if appErr.Code != apperror.CodeInternal {
				body = gin.H{
					"code":    appErr.Code,
					"message": appErr.Message,
					"details": appErr.Details,
				}
			}
		} else {
			logger.Error(c.Request.Context(), "unhandled error", "error", err)
		}

		finishIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

// finishIdempotency records a client error for replay. Server errors free the
// key instead, so the same request can be retried.
func finishIdempotency(c *gin.Context, status int, body gin.H) {
	key, store, ok := idempotencyFrom(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if status >= http.StatusInternalServerError {
		if err := store.ReleaseKey(ctx, key); err != nil {
			logger.Warn(ctx, "idempotency key not released", "key", key, "error", err)
		}
		return
	}

	raw, _ := json.Marshal(body)
	if err := store.FailKey(ctx, key, status, "application/json", raw); err != nil {
		logger.Warn(ctx, "idempotency key not marked failed", "key", key, "error", err)
	}
}
