package swap

import "errors"

var (
	// ErrDuplicateSwap is returned when a swap with the same derived id
	// already exists in a non-terminal state.
	ErrDuplicateSwap = errors.New("duplicate swap")

	// ErrSwapNotFound is returned when no record exists for the id.
	ErrSwapNotFound = errors.New("swap not found")

	// ErrInvalidProof is returned when the supplied proof does not hash to
	// the committed proof hash.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrNotTarget is returned when someone other than the swap's target
	// attempts to claim it.
	ErrNotTarget = errors.New("claimant is not the swap target")

	// ErrNotInitiator is returned when someone other than the swap's
	// initiator attempts to cancel it.
	ErrNotInitiator = errors.New("canceller is not the swap initiator")

	// ErrExpired is returned when a claim arrives after the deadline.
	// Cancellation by the initiator is then the only remaining path.
	ErrExpired = errors.New("swap expired")

	// ErrNotYetExpired is returned when a cancellation arrives at or before
	// the deadline.
	ErrNotYetExpired = errors.New("swap not yet expired")

	// ErrAlreadyFinalized is returned for any transition attempted on a swap
	// in a terminal state.
	ErrAlreadyFinalized = errors.New("swap already finalized")
)
