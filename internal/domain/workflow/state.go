package workflow

import "fmt"

// State is a step in the lifecycle of a committed order
type State string

const (
	StateCommitted State = "COMMITTED"
	StateExported  State = "EXPORTED"
	StateCancelled State = "CANCELLED"
)

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return s == StateCancelled
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known order state.
// It must not depend on package variables: the order builder calls it while the
// package is being initialized.
func (s State) IsValid() bool {
	switch s {
	case StateCommitted, StateExported, StateCancelled:
		return true
	}
	return false
}

// ParseState converts a stored order status into a State
func ParseState(status string) (State, error) {
	s := State(status)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, status)
	}
	return s, nil
}
