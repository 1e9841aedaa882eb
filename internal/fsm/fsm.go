// Package fsm defines the recognition session lifecycle transition table.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateStarting   State = "starting"
	StateListening  State = "listening"
	StateError      State = "error"
	StateRestarting State = "restarting"
)

const (
	EventStart   Event = "start"
	EventStarted Event = "started"
	EventEnded   Event = "ended"
	EventStop    Event = "stop"
	EventFail    Event = "fail"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		if !known(current) {
			return current, fmt.Errorf("unknown state %q", current)
		}
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateStarting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStarting:
		switch event {
		case EventStarted:
			return StateListening, nil
		case EventEnded:
			return StateRestarting, nil
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventEnded:
			return StateRestarting, nil
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRestarting, StateError:
		switch event {
		case EventStart:
			return StateStarting, nil
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// Active reports whether the session is between a start request and a stop.
func Active(state State) bool {
	return state == StateStarting || state == StateListening
}

func known(state State) bool {
	switch state {
	case StateIdle, StateStarting, StateListening, StateError, StateRestarting:
		return true
	default:
		return false
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
