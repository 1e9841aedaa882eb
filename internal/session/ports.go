package session

import (
	"time"

	"github.com/rbright/voxboard/internal/fsm"
	"github.com/rbright/voxboard/internal/grammar"
)

// Config holds the restart backoff delays.
type Config struct {
	EndRetryDelay time.Duration
	AbortDelay    time.Duration
	ErrorDelay    time.Duration
}

// DefaultConfig returns the stock restart delays.
func DefaultConfig() Config {
	return Config{
		EndRetryDelay: time.Second,
		AbortDelay:    100 * time.Millisecond,
		ErrorDelay:    2 * time.Second,
	}
}

// Dispatcher receives final transcripts for classification and delivery.
type Dispatcher interface {
	Dispatch(transcript string) []grammar.Category
}

// DispatchFunc adapts a function to the Dispatcher interface.
type DispatchFunc func(string) []grammar.Category

func (f DispatchFunc) Dispatch(transcript string) []grammar.Category {
	return f(transcript)
}

// Feed receives every recognized text, interim or final, for display.
type Feed interface {
	Push(text string, final bool)
}

// Observer is notified after every state change.
type Observer func(fsm.State)

// Status is a point-in-time view of the session for status queries.
type Status struct {
	State     fsm.State
	RunID     string
	Attempts  int
	Restarts  int
	LastError string
}
