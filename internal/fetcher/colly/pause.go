package collyfetcher

import (
	"context"
	"time"
)

// Pauser abstracts how the fetcher waits between requests.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration) error
}

type timerPauser struct{}

func (timerPauser) Pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
