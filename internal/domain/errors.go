package domain

import "errors"

// Recoverable-by-caller errors. Services return these (possibly wrapped);
// handlers match with errors.Is and translate to HTTP statuses.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidState        = errors.New("operation not allowed in current payment state")
	ErrNotFound            = errors.New("not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrVerificationFailed  = errors.New("payment verification failed")
	ErrUpstreamUnavailable = errors.New("payment gateway unavailable")
)
