package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateCommitted, false},
		{StateExported, false},
		{StateCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.IsTerminal())
		})
	}
}

func TestOrderBuilder_ConfiguredAtLoad(t *testing.T) {
	require.NotNil(t, orderBuilder)

	for _, state := range []State{StateCommitted, StateExported, StateCancelled} {
		assert.True(t, state.IsValid(), state)
		assert.NotPanics(t, func() { orderBuilder.Build(state) }, state)
	}
	assert.False(t, State("DRAFT").IsValid())

	m, err := OrderMachine(string(StateCommitted))
	require.NoError(t, err)
	assert.True(t, m.CanFire(TriggerCancel))
}

func TestParseState(t *testing.T) {
	state, err := ParseState("EXPORTED")
	require.NoError(t, err)
	assert.Equal(t, StateExported, state)

	for _, status := range []string{"", "exported", "PENDING"} {
		_, err := ParseState(status)
		assert.ErrorIs(t, err, ErrInvalidState, status)
	}
}

func TestBuilder_Panics(t *testing.T) {
	assert.Panics(t, func() { NewBuilder().Configure(State("INVALID")) })
	assert.Panics(t, func() { NewBuilder().Build(State("")) })
	assert.Panics(t, func() {
		NewBuilder().Configure(StateCommitted).Permit(TriggerExport, State("ARCHIVED"))
	})
}

func TestStateMachine_PermitIf(t *testing.T) {
	allow := false
	b := NewBuilder()
	b.Configure(StateCommitted).
		PermitIf(TriggerCancel, StateCancelled, func(ctx context.Context) bool { return allow }).
		PermitIf(TriggerCancel, StateExported, func(ctx context.Context) bool { return false })

	m := b.Build(StateCommitted)
	assert.True(t, m.CanFire(TriggerCancel), "guarded transitions count as permitted")

	err := m.Fire(context.Background(), TriggerCancel)
	assert.ErrorIs(t, err, ErrGuardFailed)
	assert.Equal(t, StateCommitted, m.State())

	allow = true
	require.NoError(t, m.Fire(context.Background(), TriggerCancel))
	assert.Equal(t, StateCancelled, m.State())
}

func TestStateMachine_BuildIsolation(t *testing.T) {
	b := NewBuilder()
	b.Configure(StateCommitted).Permit(TriggerExport, StateExported)
	m := b.Build(StateCommitted)

	// Configuring after Build must not leak into the built machine
	b.Configure(StateCommitted).Permit(TriggerCancel, StateCancelled)

	assert.False(t, m.CanFire(TriggerCancel))
	assert.True(t, b.Build(StateCommitted).CanFire(TriggerCancel))
}

func TestOrderMachine_PermittedTriggers(t *testing.T) {
	tests := []struct {
		status string
		want   []Trigger
	}{
		{"COMMITTED", []Trigger{TriggerCancel, TriggerExport}},
		{"EXPORTED", []Trigger{TriggerCancel, TriggerExport}},
		{"CANCELLED", []Trigger{}},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			m, err := OrderMachine(tt.status)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.PermittedTriggers())
		})
	}
}

func TestNext(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		status  string
		trigger Trigger
		want    State
		wantErr error
	}{
		{name: "export committed", status: "COMMITTED", trigger: TriggerExport, want: StateExported},
		{name: "re-export", status: "EXPORTED", trigger: TriggerExport, want: StateExported},
		{name: "cancel committed", status: "COMMITTED", trigger: TriggerCancel, want: StateCancelled},
		{name: "cancel exported", status: "EXPORTED", trigger: TriggerCancel, want: StateCancelled},
		{name: "cancel twice", status: "CANCELLED", trigger: TriggerCancel, wantErr: ErrInvalidTransition},
		{name: "export cancelled", status: "CANCELLED", trigger: TriggerExport, wantErr: ErrInvalidTransition},
		{name: "unknown status", status: "DRAFT", trigger: TriggerExport, wantErr: ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(ctx, tt.status, tt.trigger)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
