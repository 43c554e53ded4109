package domain

import "errors"

var (
	// Money construction and arithmetic.
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrCurrencyMismatch = errors.New("currencies do not match")

	// Account business rules.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Transfer business rules.
	ErrSameAccount       = errors.New("source and destination accounts cannot be the same")
	ErrIllegalTransition = errors.New("transfer is not in a state that allows this transition")
)
