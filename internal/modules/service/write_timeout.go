package service

import (
	"context"
	"time"
)

// awaitWrite races fn against a deadline. When the deadline wins the caller
// gets ErrWriteTimeout while fn keeps running: the store write is not
// cancelled server-side, only the caller's wait on it. fn therefore runs on
// a detached context, so the request context being torn down after the
// timeout response does not abort the in-flight write.
func awaitWrite(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	done := make(chan error, 1)
	writeCtx := context.WithoutCancel(ctx)
	go func() { done <- fn(writeCtx) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrWriteTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
