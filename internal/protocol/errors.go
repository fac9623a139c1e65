package protocol

// Error codes returned in response bodies. All are request-local and
// recoverable; the caller refetches or retries with corrected input.
const (
	// Session/identity layer.
	ErrNoSession    = "no_session"
	ErrUserNotFound = "user_not_found"

	// Request validation.
	ErrEventIDRequired      = "event_id_required"
	ErrAmountNotInteger     = "amount_not_integer"
	ErrAmountMustBePositive = "amount_must_be_positive"

	// Event engine.
	ErrBadVersion      = "bad_version"
	ErrStaleClient     = "stale_client"
	ErrUnknownEvent    = "unknown_event"
	ErrEventNotAllowed = "event_not_allowed"
	ErrInvalidPosition = "invalid_position"

	// Opaque persistence or programming failure.
	ErrInternal = "internal"
)

var knownCodes = map[string]struct{}{
	ErrNoSession:            {},
	ErrUserNotFound:         {},
	ErrEventIDRequired:      {},
	ErrAmountNotInteger:     {},
	ErrAmountMustBePositive: {},
	ErrBadVersion:           {},
	ErrStaleClient:          {},
	ErrUnknownEvent:         {},
	ErrEventNotAllowed:      {},
	ErrInvalidPosition:      {},
	ErrInternal:             {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
