package basket

import "errors"

var (
	// ErrMissingPeg is returned when a basket evaluation references a
	// currency without an active price point.
	ErrMissingPeg = errors.New("missing peg price")

	// ErrOracleUnavailable is returned when the oracle cannot supply a price.
	// The previously recorded price point is retained unchanged.
	ErrOracleUnavailable = errors.New("oracle unavailable")
)
