package matching

import "errors"

// Error kinds surfaced by the core, per the error handling design:
// recoverable, returned verbatim to callers, never halting the process.
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrForbidden     = errors.New("actor is not the owner of this order")
)

// corruption panics on an invariant violation rather than let the ladder
// continue in a state a caller could observe as half-consistent. These are
// not expected to fire; they exist so a desynced queue/record fails loudly
// instead of silently.
func corruption(msg string) {
	panic("matching: ladder invariant violated: " + msg)
}
