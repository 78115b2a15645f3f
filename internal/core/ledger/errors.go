package ledger

import (
	"errors"

	"github.com/stablemint/serpd/internal/core/types"
)

var (
	// ErrInsufficientBalance is returned when a debit exceeds the available
	// balance of the paying account.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrZeroAmount is returned for zero-amount transfers when the configured
	// policy rejects them.
	ErrZeroAmount = errors.New("zero amount")

	// ErrOverflow is returned when a balance or total issuance would exceed
	// the representable maximum. It indicates a precondition violation
	// upstream and is never silently wrapped.
	ErrOverflow = types.ErrOverflow

	// ErrUnderflow is returned when an administrative correction would take a
	// balance below zero.
	ErrUnderflow = types.ErrUnderflow
)
