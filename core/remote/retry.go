package remote

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// RetryConfig configures retry behavior for transient errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64 // 0.0 to 1.0
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		JitterFraction: 0.25,
	}
}

// RetryStore wraps a Store with automatic retry on transient errors.
// Creates are never retried: a timed out create may have been applied.
type RetryStore struct {
	inner  Store
	config *RetryConfig
}

// NewRetryStore creates a RetryStore that wraps the given Store.
func NewRetryStore(inner Store, cfg *RetryConfig) *RetryStore {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	return &RetryStore{inner: inner, config: cfg}
}

// backoff computes the delay for the given attempt with jitter.
func (rs *RetryStore) backoff(attempt int) time.Duration {
	base := float64(rs.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(rs.config.MaxBackoff) {
		base = float64(rs.config.MaxBackoff)
	}
	jitter := base * rs.config.JitterFraction * (rand.Float64()*2 - 1)
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry executes fn with retry logic. Only retries transient errors.
func (rs *RetryStore) retry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= rs.config.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}
		if attempt < rs.config.MaxRetries {
			if err := sleep(ctx, rs.backoff(attempt)); err != nil {
				return fmt.Errorf("%s: %w (retry cancelled)", operation, lastErr)
			}
		}
	}
	return fmt.Errorf("%s: %w (after %d retries)", operation, lastErr, rs.config.MaxRetries)
}

func (rs *RetryStore) List(ctx context.Context, kind Kind, filter Filter) (objs []Object, err error) {
	err = rs.retry(ctx, "list "+string(kind), func() error {
		objs, err = rs.inner.List(ctx, kind, filter)
		return err
	})
	return
}

func (rs *RetryStore) BulkCreate(ctx context.Context, kind Kind, items []Fields) ([]int64, error) {
	return rs.inner.BulkCreate(ctx, kind, items)
}

func (rs *RetryStore) Create(ctx context.Context, kind Kind, item Fields) (int64, error) {
	return rs.inner.Create(ctx, kind, item)
}

func (rs *RetryStore) BulkUpdate(ctx context.Context, kind Kind, patches []Patch) error {
	return rs.retry(ctx, "bulk update "+string(kind), func() error {
		return rs.inner.BulkUpdate(ctx, kind, patches)
	})
}

func (rs *RetryStore) Update(ctx context.Context, kind Kind, patch Patch) error {
	return rs.retry(ctx, "update "+string(kind), func() error {
		return rs.inner.Update(ctx, kind, patch)
	})
}

func (rs *RetryStore) BulkDelete(ctx context.Context, kind Kind, ids []int64) error {
	return rs.retry(ctx, "bulk delete "+string(kind), func() error {
		return rs.inner.BulkDelete(ctx, kind, ids)
	})
}

func (rs *RetryStore) Delete(ctx context.Context, kind Kind, id int64) error {
	return rs.retry(ctx, "delete "+string(kind), func() error {
		return rs.inner.Delete(ctx, kind, id)
	})
}

func (rs *RetryStore) GetOrCreate(ctx context.Context, kind Kind, key string, extra Fields) (id int64, err error) {
	err = rs.retry(ctx, "get or create "+string(kind), func() error {
		id, err = rs.inner.GetOrCreate(ctx, kind, key, extra)
		return err
	})
	return
}

var _ Store = (*RetryStore)(nil)
