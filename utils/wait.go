package utils

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

var ErrPollTimeout = errors.New("timed out waiting for condition")

// Sleeper pauses between browser actions. Tests swap in a recorder so
// nothing waits on the wall clock.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Jitter returns a random duration in [min, max].
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// Poll calls cond every interval until it reports true or timeout worth
// of intervals have been slept. Elapsed time is counted in slept
// intervals so a fake Sleeper drives it deterministically.
func Poll(ctx context.Context, s Sleeper, timeout, interval time.Duration, cond func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	var waited time.Duration
	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		if waited >= timeout {
			if lastErr != nil {
				return errors.Join(ErrPollTimeout, lastErr)
			}
			return ErrPollTimeout
		}
		if err := s.Sleep(ctx, interval); err != nil {
			return err
		}
		waited += interval
	}
}
