package workflow

import (
	"context"
	"fmt"
	"sort"
)

// GuardFunc decides whether a guarded transition may run
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects transitions and builds machines from them
type StateMachineBuilder interface {
	// Configure returns the transition table of state, creating it on first use
	Configure(state State) StateConfiguration

	// Build returns a machine positioned at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration adds transitions leaving one state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf adds a transition that runs only when guard passes. Transitions
	// for the same trigger are tried in the order they were added.
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type transition struct {
	to    State
	guard GuardFunc
}

// transitions maps a trigger to its candidate transitions
type transitions map[Trigger][]transition

func (t transitions) clone() transitions {
	out := make(transitions, len(t))
	for trigger, list := range t {
		out[trigger] = append([]transition(nil), list...)
	}
	return out
}

type stateConfig struct {
	table transitions
}

type builder struct {
	states map[State]*stateConfig
}

type machine struct {
	current State
	states  map[State]transitions
}

// NewBuilder returns an empty builder. Configuring an unknown state panics.
func NewBuilder() StateMachineBuilder {
	return &builder{states: make(map[State]*stateConfig)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	cfg, ok := b.states[state]
	if !ok {
		cfg = &stateConfig{table: make(transitions)}
		b.states[state] = cfg
	}
	return cfg
}

// Build copies the transition tables, so later Configure calls do not reach
// machines that were already built.
func (b *builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	states := make(map[State]transitions, len(b.states))
	for state, cfg := range b.states {
		states[state] = cfg.table.clone()
	}
	return &machine{current: initialState, states: states}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	c.table[trigger] = append(c.table[trigger], transition{to: toState, guard: guard})
	return c
}

func (m *machine) State() State {
	return m.current
}

// CanFire reports whether trigger has a transition from the current state.
// Guards need a context, so a guarded transition counts as permitted.
func (m *machine) CanFire(trigger Trigger) bool {
	return len(m.states[m.current][trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	candidates := m.states[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers lists the triggers of the current state in sorted order
func (m *machine) PermittedTriggers() []Trigger {
	table := m.states[m.current]
	triggers := make([]Trigger, 0, len(table))
	for trigger := range table {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
