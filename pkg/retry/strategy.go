package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/code-payments/staking-server/pkg/retry/backoff"
)

// Strategy decides whether an action that failed with err on the given attempt
// should run again. Strategies may sleep.
type Strategy func(attempts uint, err error) bool

// Limit caps the total number of attempts, including the first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// Context stops retrying once ctx is done.
func Context(ctx context.Context) Strategy {
	return func(_ uint, _ error) bool {
		return ctx.Err() == nil
	}
}

// RetriableErrors only retries errors matching one of the provided errors.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, e := range retriableErrors {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	}
}

// RetriableGRPCCodes only retries errors carrying one of the provided status
// codes.
func RetriableGRPCCodes(retriableCodes ...codes.Code) Strategy {
	return func(_ uint, err error) bool {
		code := status.Code(err)
		for _, c := range retriableCodes {
			if code == c {
				return true
			}
		}
		return false
	}
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay moved randomly by up to
// jitter (a fraction of the delay) in either direction.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := time.Duration(math.Min(float64(maxBackoff), float64(strategy(attempts))))
		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 + (rand.Float64()*jitter*2 - jitter)))
		}

		sleeperImpl.Sleep(delay)
		return true
	}
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (r *realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = &realSleeper{}
