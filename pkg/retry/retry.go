// Package retry runs actions repeatedly according to composable strategies.
//
// The staking core never retries on its own. Retrying belongs to callers, such
// as a client resubmitting an instruction that lost a ledger conflict, or a
// harness waiting for a dependency to come up.
package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retry executes action until it succeeds or a strategy declines another
// attempt. It returns the number of attempts made.
//
// Strategies run in order, so the ones that sleep belong last.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	for attempt := uint(1); ; attempt++ {
		err := action()
		if err == nil {
			return attempt, nil
		}

		for _, s := range strategies {
			if !s(attempt, err) {
				return attempt, err
			}
		}
	}
}
