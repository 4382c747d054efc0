package gamerr

import "errors"

// Sentinel errors for the gamification engine. Services wrap these with
// fmt.Errorf("...: %w", err) so callers can test with errors.Is.
var (
	// ErrNotFound means the user has no ledger/streak record yet. Handlers
	// treat this as a zero state, not a failure.
	ErrNotFound = errors.New("record not found")

	// ErrOrdering means an activity arrived with a date earlier than the
	// stored last activity date. Retrying cannot fix stale input.
	ErrOrdering = errors.New("activity date is earlier than last recorded date")

	// ErrConflict is an optimistic-concurrency version mismatch. It is
	// retried internally and never escapes a service.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrUnavailable means the store timed out or conflict retries were
	// exhausted. The whole logical operation is safe to retry.
	ErrUnavailable = errors.New("storage unavailable, retry the operation")

	// ErrInvalidInput covers bad pagination, unknown metrics and malformed
	// ids, rejected before any persistence access.
	ErrInvalidInput = errors.New("invalid input")
)

// Retryable reports whether the caller should retry the whole operation.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
