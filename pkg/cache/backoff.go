package cache

import (
	"context"
	"time"
)

// pingAttempts bounds how often a backend connection check is retried
// before the constructor gives up.
const pingAttempts = 3

// pingWithRetry runs ping until it succeeds, doubling delay between
// failed attempts. Connection checks against Redis or MongoDB can fail
// while the backend is still starting (shared deployments behind an
// orchestrator), so every ping failure is treated as transient. Reads
// and writes are never retried: the pipeline treats cache errors as
// misses and must not stall on a dead backend.
func pingWithRetry(ctx context.Context, delay time.Duration, ping func() error) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = ping(); err == nil {
			return nil
		}
		if attempt == pingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
