package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the order state does not allow the trigger
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned for a status that is not an order state
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every guarded transition was refused
	ErrGuardFailed = errors.New("guard condition failed")
)
