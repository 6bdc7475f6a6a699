package workflow

import "context"

var orderBuilder = newOrderBuilder()

func newOrderBuilder() StateMachineBuilder {
	b := NewBuilder()

	// Re-exporting replaces the earlier file.
	b.Configure(StateCommitted).
		Permit(TriggerExport, StateExported).
		Permit(TriggerCancel, StateCancelled)
	b.Configure(StateExported).
		Permit(TriggerExport, StateExported).
		Permit(TriggerCancel, StateCancelled)

	return b
}

// OrderMachine returns the lifecycle machine of an order in the stored status
func OrderMachine(status string) (StateMachine, error) {
	state, err := ParseState(status)
	if err != nil {
		return nil, err
	}
	return orderBuilder.Build(state), nil
}

// Next fires trigger on an order in status and returns the resulting status
func Next(ctx context.Context, status string, trigger Trigger) (State, error) {
	m, err := OrderMachine(status)
	if err != nil {
		return "", err
	}
	if err := m.Fire(ctx, trigger); err != nil {
		return "", err
	}
	return m.State(), nil
}
