package postgres

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"warungpos/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusSuccess IdempotencyStatus = "success"
	IdempotencyStatusFailed  IdempotencyStatus = "failed"
)

// stalePending is how long a pending key may sit before another request
// may take it over.
const stalePending = time.Minute

// IdempotencyReplay is the cached HTTP response for replay.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps checkout responses keyed by X-Idempotency-Key so a
// retried request returns the receipt already committed.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, ttl: ttl, now: time.Now}
}

// AcquireKey claims key for a request.
// Returns:
//   - (nil, nil) if the caller now owns the key
//   - (replay, nil) if the operation already finished
//   - (nil, error) if the key is in flight or belongs to another request
func (s *IdempotencyStore) AcquireKey(ctx context.Context, key, cashierID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now().UTC()

	var (
		inserted    bool
		storedOwner string
		storedOp    string
		storedHash  string
		status      IdempotencyStatus
		body        []byte
		statusCode  *int
		contentType *string
		updatedAt   time.Time
	)
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
		RETURNING (xmax = 0), user_id, operation, request_hash, status, response, response_status, response_content_type, updated_at
	`, key, cashierID, operation, IdempotencyStatusPending, requestHash, now, now.Add(s.ttl)).Scan(
		&inserted, &storedOwner, &storedOp, &storedHash, &status, &body, &statusCode, &contentType, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if inserted {
		return nil, nil
	}

	if storedOwner != cashierID || storedOp != operation || storedHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).
			WithDetail("operation", operation)
	}

	switch status {
	case IdempotencyStatusSuccess, IdempotencyStatusFailed:
		return &IdempotencyReplay{
			StatusCode:  replayStatus(statusCode),
			ContentType: replayContentType(contentType),
			Body:        body,
		}, nil
	}

	if now.Sub(updatedAt) <= stalePending {
		return nil, apperror.NewIdempotencyConflict(key)
	}

	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency SET updated_at = $1
		WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
	`, now, key, IdempotencyStatusPending, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	return nil, nil
}

// CompleteKey stores the successful response for key.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusSuccess, statusCode, contentType, body)
}

// FailKey stores the error response for key.
func (s *IdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, body []byte) error {
	return s.finish(ctx, key, IdempotencyStatusFailed, statusCode, contentType, body)
}

// ReleaseKey forgets a pending key so the request can be retried, used when
// the outcome is a transient failure that should not be replayed.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2
	`, key, IdempotencyStatusPending)
	return err
}

func (s *IdempotencyStore) finish(ctx context.Context, key string, status IdempotencyStatus, statusCode int, contentType string, body []byte) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5
		WHERE idempotency_key = $6
	`, status, body, statusCode, contentType, s.now().UTC(), key)
	if err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE expires_at < $1
	`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func replayStatus(status *int) int {
	if status == nil || *status == 0 {
		return http.StatusOK
	}
	return *status
}

func replayContentType(ct *string) string {
	if ct == nil || *ct == "" {
		return "application/json"
	}
	return *ct
}
