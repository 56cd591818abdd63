package frequency

import "errors"

var (
	// ErrStoreUnavailable is returned when the counter backend is
	// unreachable or timed out. The caller's fail-open/fail-closed policy
	// decides the serving outcome; it is never silently treated as allowed.
	ErrStoreUnavailable = errors.New("frequency store unavailable")
	// ErrInvalidEventType is returned for event types other than
	// impression/click.
	ErrInvalidEventType = errors.New("invalid event type")
	// ErrNoEventLog is returned from analytics when no durable event log is
	// configured.
	ErrNoEventLog = errors.New("event log not configured")
)
