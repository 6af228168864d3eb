package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"warungpos/internal/core/apperror"
	appctx "warungpos/internal/core/context"
	"warungpos/internal/infrastructure/storage/postgres"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

const maxIdempotencyBodyBytes = 1 << 20

const (
	ctxIdempotencyKey   = "idempotency_key"
	ctxIdempotencyStore = "idempotency_store"
)

// IdempotencyStore persists idempotency keys and the responses they produced.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, cashierID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key string) error
}

var _ IdempotencyStore = (*postgres.IdempotencyStore)(nil)

// Idempotency replays the stored response of a request carrying an
// X-Idempotency-Key that was already served. Requests without the header
// pass through.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("unreadable request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		hash := sha256.Sum256(body)
		operation := c.Request.Method + " " + c.Request.URL.Path
		cashierID := appctx.GetCashierID(c.Request.Context())

		replay, err := store.AcquireKey(c.Request.Context(), key, cashierID, operation, hex.EncodeToString(hash[:]))
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replay", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(ctxIdempotencyKey, key)
		c.Set(ctxIdempotencyStore, store)
		c.Next()
	}
}

func idempotencyFrom(c *gin.Context) (string, IdempotencyStore, bool) {
	key := c.GetString(ctxIdempotencyKey)
	if key == "" {
		return "", nil, false
	}
	v, ok := c.Get(ctxIdempotencyStore)
	if !ok {
		return "", nil, false
	}
	store, ok := v.(IdempotencyStore)
	return key, store, ok
}

// CompleteIdempotency stores a successful response for replay. It does
// nothing when the request carries no idempotency key.
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, body []byte) {
	key, store, ok := idempotencyFrom(c)
	if !ok {
		return
	}
	if err := store.CompleteKey(c.Request.Context(), key, statusCode, contentType, body); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypePrivate)
	}
}
