// Package recognizer defines the speech recognition capability consumed by the session.
package recognizer

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrorCode classifies recognizer failures.
type ErrorCode string

const (
	ErrorNetwork      ErrorCode = "network"
	ErrorNoSpeech     ErrorCode = "no-speech"
	ErrorAborted      ErrorCode = "aborted"
	ErrorAudioCapture ErrorCode = "audio-capture"
	ErrorNotAllowed   ErrorCode = "not-allowed"
)

var (
	// ErrAlreadyRunning indicates Start was called while a recognition run is active.
	ErrAlreadyRunning = errors.New("recognizer already running")
	// ErrNotInitialized indicates Start was called before a successful Initialize.
	ErrNotInitialized = errors.New("recognizer not initialized")
	// ErrExhausted indicates the input source has no more data to recognize.
	ErrExhausted = errors.New("recognizer input exhausted")
)

// Events are the callbacks a recognizer emits. Implementations invoke them from a
// single goroutine per run, never concurrently.
type Events struct {
	OnStart  func()
	OnEnd    func()
	OnError  func(code ErrorCode)
	OnResult func(transcript string, final bool)
}

func (e Events) start() {
	if e.OnStart != nil {
		e.OnStart()
	}
}

func (e Events) end() {
	if e.OnEnd != nil {
		e.OnEnd()
	}
}

func (e Events) fail(code ErrorCode) {
	if e.OnError != nil {
		e.OnError(code)
	}
}

func (e Events) result(transcript string, final bool) {
	if e.OnResult != nil {
		e.OnResult(transcript, final)
	}
}

// Recognizer is the narrow platform capability: continuous recognition with interim results.
type Recognizer interface {
	// Initialize installs callbacks and reports whether the capability exists.
	Initialize(Events) bool
	Start() error
	Stop() error
}

// Unavailable is the recognizer used when the host exposes no recognition capability.
type Unavailable struct{}

func (Unavailable) Initialize(Events) bool { return false }
func (Unavailable) Start() error           { return ErrNotInitialized }
func (Unavailable) Stop() error            { return nil }

type wireLine struct {
	Partial    *string `json:"partial"`
	Text       *string `json:"text"`
	Transcript *string `json:"transcript"`
	Final      *bool   `json:"final"`
	Error      string  `json:"error"`
}

type parsedLine struct {
	text  string
	final bool
	err   ErrorCode
}

// parseLine decodes one recognizer output line. JSON objects follow the vosk
// partial/text shape or an explicit transcript/final pair; any other line is a
// final transcript.
func parseLine(raw string) (parsedLine, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return parsedLine{}, false
	}
	if !strings.HasPrefix(raw, "{") {
		return parsedLine{text: raw, final: true}, true
	}

	var payload wireLine
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return parsedLine{text: raw, final: true}, true
	}

	switch {
	case strings.TrimSpace(payload.Error) != "":
		return parsedLine{err: ErrorCode(strings.ToLower(strings.TrimSpace(payload.Error)))}, true
	case payload.Transcript != nil:
		final := payload.Final != nil && *payload.Final
		return nonEmpty(*payload.Transcript, final)
	case payload.Text != nil:
		return nonEmpty(*payload.Text, true)
	case payload.Partial != nil:
		return nonEmpty(*payload.Partial, false)
	default:
		return parsedLine{}, false
	}
}

func nonEmpty(text string, final bool) (parsedLine, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return parsedLine{}, false
	}
	return parsedLine{text: text, final: final}, true
}

func emitLine(events Events, line parsedLine) {
	if line.err != "" {
		events.fail(line.err)
		return
	}
	events.result(line.text, line.final)
}
