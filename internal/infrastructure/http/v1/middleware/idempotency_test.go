package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warungpos/internal/core/apperror"
	"warungpos/internal/infrastructure/storage/postgres"
)

type storedResponse struct {
	status int
	body   []byte
	failed bool
}

type fakeIdempotencyStore struct {
	mu       sync.Mutex
	hashes   map[string]string
	done     map[string]storedResponse
	released []string
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{hashes: map[string]string{}, done: map[string]storedResponse{}}
}

func (f *fakeIdempotencyStore) AcquireKey(_ context.Context, key, _, _, hash string) (*postgres.IdempotencyReplay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.hashes[key]; ok {
		if prev != hash {
			return nil, apperror.NewIdempotencyMismatch(key)
		}
		resp, ok := f.done[key]
		if !ok {
			return nil, apperror.NewIdempotencyConflict(key)
		}
		return &postgres.IdempotencyReplay{StatusCode: resp.status, ContentType: "application/json", Body: resp.body}, nil
	}
	f.hashes[key] = hash
	return nil, nil
}

func (f *fakeIdempotencyStore) CompleteKey(_ context.Context, key string, status int, _ string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done[key] = storedResponse{status: status, body: body}
	return nil
}

func (f *fakeIdempotencyStore) FailKey(_ context.Context, key string, status int, _ string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done[key] = storedResponse{status: status, body: body, failed: true}
	return nil
}

func (f *fakeIdempotencyStore) ReleaseKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.hashes, key)
	f.released = append(f.released, key)
	return nil
}

func newIdempotentRouter(store IdempotencyStore, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/checkout", Idempotency(store), handler)
	return r
}

func post(r http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	r := newIdempotentRouter(store, func(c *gin.Context) {
		calls++
		body := []byte(`{"id":"INV-12345678150126"}`)
		CompleteIdempotency(c, http.StatusCreated, "application/json", body)
		c.Data(http.StatusCreated, "application/json", body)
	})

	first := post(r, "k1", `{"discount":"0"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := post(r, "k1", `{"discount":"0"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replay"))
	assert.Equal(t, 1, calls)
}

func TestIdempotency_DifferentBodyIsConflict(t *testing.T) {
	store := newFakeIdempotencyStore()
	r := newIdempotentRouter(store, func(c *gin.Context) {
		CompleteIdempotency(c, http.StatusCreated, "application/json", []byte(`{}`))
		c.Status(http.StatusCreated)
	})

	require.Equal(t, http.StatusCreated, post(r, "k1", `{"discount":"0"}`).Code)
	assert.Equal(t, http.StatusConflict, post(r, "k1", `{"discount":"500"}`).Code)
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	store := newFakeIdempotencyStore()
	fail := true
	calls := 0
	r := newIdempotentRouter(store, func(c *gin.Context) {
		calls++
		if fail {
			_ = c.Error(apperror.NewCommitFailed("invoice numbers exhausted", nil))
			c.Abort()
			return
		}
		CompleteIdempotency(c, http.StatusCreated, "application/json", []byte(`{}`))
		c.Status(http.StatusCreated)
	})

	assert.Equal(t, http.StatusServiceUnavailable, post(r, "k1", `{}`).Code)
	assert.Equal(t, []string{"k1"}, store.released)

	fail = false
	assert.Equal(t, http.StatusCreated, post(r, "k1", `{}`).Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_ClientErrorIsReplayed(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	r := newIdempotentRouter(store, func(c *gin.Context) {
		calls++
		_ = c.Error(apperror.NewValidation("cart is empty"))
		c.Abort()
	})

	first := post(r, "k1", `{}`)
	require.Equal(t, http.StatusBadRequest, first.Code)
	assert.True(t, store.done["k1"].failed)

	second := post(r, "k1", `{}`)
	assert.Equal(t, http.StatusBadRequest, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotency_WithoutKeyPassesThrough(t *testing.T) {
	store := newFakeIdempotencyStore()
	calls := 0
	r := newIdempotentRouter(store, func(c *gin.Context) {
		calls++
		CompleteIdempotency(c, http.StatusCreated, "application/json", []byte(`{}`))
		c.Status(http.StatusCreated)
	})

	post(r, "", `{}`)
	post(r, "", `{}`)

	assert.Equal(t, 2, calls)
	assert.Empty(t, store.hashes)
}
