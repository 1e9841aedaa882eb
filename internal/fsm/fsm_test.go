package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateStarting, next)

	next, err = Transition(next, EventStarted)
	require.NoError(t, err)
	require.Equal(t, StateListening, next)

	next, err = Transition(next, EventEnded)
	require.NoError(t, err)
	require.Equal(t, StateRestarting, next)

	next, err = Transition(next, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateStarting, next)

	next, err = Transition(next, EventStop)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailFromAnyStateGoesError(t *testing.T) {
	states := []State{StateIdle, StateStarting, StateListening, StateRestarting, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle stop invalid", state: StateIdle, event: EventStop, want: StateIdle, wantErr: true},
		{name: "idle ended invalid", state: StateIdle, event: EventEnded, want: StateIdle, wantErr: true},
		{name: "idle started invalid", state: StateIdle, event: EventStarted, want: StateIdle, wantErr: true},
		{name: "starting start invalid", state: StateStarting, event: EventStart, want: StateStarting, wantErr: true},
		{name: "listening start invalid", state: StateListening, event: EventStart, want: StateListening, wantErr: true},
		{name: "listening started invalid", state: StateListening, event: EventStarted, want: StateListening, wantErr: true},
		{name: "restarting ended invalid", state: StateRestarting, event: EventEnded, want: StateRestarting, wantErr: true},
		{name: "error started invalid", state: StateError, event: EventStarted, want: StateError, wantErr: true},
		{name: "error start valid", state: StateError, event: EventStart, want: StateStarting, wantErr: false},
		{name: "error stop valid", state: StateError, event: EventStop, want: StateIdle, wantErr: false},
		{name: "starting ended valid", state: StateStarting, event: EventEnded, want: StateRestarting, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)

	next, err = Transition(State("mystery"), EventFail)
	require.Error(t, err)
	require.Equal(t, State("mystery"), next)
}

func TestActive(t *testing.T) {
	require.True(t, Active(StateStarting))
	require.True(t, Active(StateListening))
	require.False(t, Active(StateIdle))
	require.False(t, Active(StateRestarting))
	require.False(t, Active(StateError))
}
