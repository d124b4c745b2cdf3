package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/code-payments/staking-server/pkg/retry/backoff"
)

type testSleeper struct {
	calls []time.Duration
}

func (t *testSleeper) Sleep(d time.Duration) {
	t.calls = append(t.calls, d)
}

func withTestSleeper(t *testing.T) *testSleeper {
	s := &testSleeper{}
	sleeperImpl = s
	t.Cleanup(func() {
		sleeperImpl = &realSleeper{}
	})
	return s
}

func failingAction(failures int, err error) (Action, *int) {
	var calls int
	return func() error {
		calls++
		if calls <= failures {
			return err
		}
		return nil
	}, &calls
}

func TestRetry_SucceedsEventually(t *testing.T) {
	action, calls := failingAction(3, errors.New("flaky"))

	attempts, err := Retry(action, Limit(5))
	assert.NoError(t, err)
	assert.EqualValues(t, 4, attempts)
	assert.Equal(t, 4, *calls)
}

func TestLimit(t *testing.T) {
	errFlaky := errors.New("flaky")
	action, calls := failingAction(10, errFlaky)

	attempts, err := Retry(action, Limit(3))
	assert.Equal(t, errFlaky, err)
	assert.EqualValues(t, 3, attempts)
	assert.Equal(t, 3, *calls)
}

func TestRetriableErrors(t *testing.T) {
	errConflict := errors.New("conflict")
	errFatal := errors.New("fatal")

	action, calls := failingAction(2, errConflict)
	_, err := Retry(action, RetriableErrors(errConflict), Limit(5))
	assert.NoError(t, err)
	assert.Equal(t, 3, *calls)

	action, calls = failingAction(2, errFatal)
	_, err = Retry(action, RetriableErrors(errConflict), Limit(5))
	assert.Equal(t, errFatal, err)
	assert.Equal(t, 1, *calls)
}

func TestRetriableGRPCCodes(t *testing.T) {
	aborted := status.Error(codes.Aborted, "ledger transaction conflict")
	denied := status.Error(codes.PermissionDenied, "unauthorized")

	action, calls := failingAction(2, aborted)
	_, err := Retry(action, RetriableGRPCCodes(codes.Aborted), Limit(5))
	assert.NoError(t, err)
	assert.Equal(t, 3, *calls)

	action, calls = failingAction(2, denied)
	_, err = Retry(action, RetriableGRPCCodes(codes.Aborted), Limit(5))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, 1, *calls)
}

func TestContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	_, err := Retry(func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("flaky")
	}, Context(ctx), Limit(10))
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestBackoff(t *testing.T) {
	sleeper := withTestSleeper(t)

	action, _ := failingAction(4, errors.New("flaky"))
	_, err := Retry(action, Backoff(backoff.BinaryExponential(time.Second), 3*time.Second))
	assert.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}, sleeper.calls)
}

func TestBackoffWithJitter(t *testing.T) {
	sleeper := withTestSleeper(t)

	action, _ := failingAction(100, errors.New("flaky"))
	_, _ = Retry(action, Limit(101), BackoffWithJitter(backoff.Constant(time.Second), time.Minute, 0.1))

	assert.Len(t, sleeper.calls, 100)
	for _, d := range sleeper.calls {
		assert.True(t, d >= 900*time.Millisecond && d <= 1100*time.Millisecond, d)
	}
}
