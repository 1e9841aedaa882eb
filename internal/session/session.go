// Package session owns the continuous recognition lifecycle: start, restart on end
// or error, and forwarding of final transcripts to the dispatch bus.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/voxboard/internal/clock"
	"github.com/rbright/voxboard/internal/fsm"
	"github.com/rbright/voxboard/internal/recognizer"
	"github.com/rbright/voxboard/internal/transcript"
)

// Deps are the collaborators of a Manager. Only Recognizer is required.
type Deps struct {
	Recognizer recognizer.Recognizer
	Dispatcher Dispatcher
	Feed       Feed
	Scheduler  clock.Scheduler
	Logger     *slog.Logger
	Observer   Observer
}

// Manager is the single recognition session of the process.
type Manager struct {
	cfg        Config
	recognizer recognizer.Recognizer
	dispatcher Dispatcher
	feed       Feed
	scheduler  clock.Scheduler
	logger     *slog.Logger
	observer   Observer

	mu           sync.Mutex
	state        fsm.State
	initialized  bool
	runID        string
	pending      clock.Timer
	pendingSeq   uint64
	abortPending bool
	attempts     int
	restarts     int
	lastError    string
}

// NewManager constructs a session in the idle state.
func NewManager(cfg Config, deps Deps) *Manager {
	defaults := DefaultConfig()
	if cfg.EndRetryDelay <= 0 {
		cfg.EndRetryDelay = defaults.EndRetryDelay
	}
	if cfg.AbortDelay <= 0 {
		cfg.AbortDelay = defaults.AbortDelay
	}
	if cfg.ErrorDelay <= 0 {
		cfg.ErrorDelay = defaults.ErrorDelay
	}

	rec := deps.Recognizer
	if rec == nil {
		rec = recognizer.Unavailable{}
	}
	scheduler := deps.Scheduler
	if scheduler == nil {
		scheduler = clock.Real{}
	}

	return &Manager{
		cfg:        cfg,
		recognizer: rec,
		dispatcher: deps.Dispatcher,
		feed:       deps.Feed,
		scheduler:  scheduler,
		logger:     deps.Logger,
		observer:   deps.Observer,
		state:      fsm.StateIdle,
	}
}

// Initialize installs recognizer callbacks. It reports false when the host has no
// recognition capability; voice input is then unavailable but everything else works.
func (m *Manager) Initialize() bool {
	ok := m.recognizer.Initialize(recognizer.Events{
		OnStart:  m.handleStart,
		OnEnd:    m.handleEnd,
		OnError:  m.handleError,
		OnResult: m.handleResult,
	})

	m.mu.Lock()
	m.initialized = ok
	m.mu.Unlock()

	if !ok {
		m.logInfo("speech recognition unavailable")
	}
	return ok
}

// Start begins listening. It returns false when uninitialized, already active, or
// when the recognizer refused to start (a retry is then scheduled).
func (m *Manager) Start() bool {
	m.mu.Lock()
	if !m.initialized || fsm.Active(m.state) {
		m.mu.Unlock()
		return false
	}
	m.mu.Unlock()

	return m.attempt("start", m.cfg.ErrorDelay)
}

// Stop cancels pending restarts and stops the recognizer. It returns false when
// already idle.
func (m *Manager) Stop() bool {
	m.mu.Lock()
	if m.state == fsm.StateIdle {
		m.mu.Unlock()
		return false
	}
	m.cancelPendingLocked()
	m.abortPending = false
	state, changed := m.transitionLocked(fsm.EventStop)
	m.mu.Unlock()

	m.notify(state, changed)
	if err := m.recognizer.Stop(); err != nil {
		m.logWarn("stop recognizer", "error", err.Error())
	}
	return true
}

// IsListening reports whether the recognizer is actively listening.
func (m *Manager) IsListening() bool {
	return m.State() == fsm.StateListening
}

// State returns the current FSM state snapshot.
func (m *Manager) State() fsm.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns the state together with run bookkeeping.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:     m.state,
		RunID:     m.runID,
		Attempts:  m.attempts,
		Restarts:  m.restarts,
		LastError: m.lastError,
	}
}

// attempt moves to starting and asks the recognizer to start. On failure the session
// enters the error state and one retry is scheduled after retryDelay.
func (m *Manager) attempt(reason string, retryDelay time.Duration) bool {
	m.mu.Lock()
	if !m.initialized || fsm.Active(m.state) {
		m.mu.Unlock()
		return false
	}
	next, err := fsm.Transition(m.state, fsm.EventStart)
	if err != nil {
		m.mu.Unlock()
		m.logWarn("start rejected", "reason", reason, "error", err.Error())
		return false
	}
	m.cancelPendingLocked()
	m.abortPending = false
	m.state = next
	m.runID = uuid.NewString()
	m.attempts++
	if reason != "start" {
		m.restarts++
	}
	runID := m.runID
	m.mu.Unlock()

	m.notify(next, true)
	m.logDebug("starting recognizer", "run_id", runID, "reason", reason)

	err = m.recognizer.Start()
	if err == nil {
		return true
	}

	m.mu.Lock()
	m.lastError = err.Error()
	if m.state != fsm.StateStarting || m.runID != runID {
		// Stopped or superseded while the recognizer was starting.
		m.mu.Unlock()
		return false
	}
	state, changed := m.transitionLocked(fsm.EventFail)
	exhausted := errors.Is(err, recognizer.ErrExhausted)
	if !exhausted {
		m.scheduleLocked(retryDelay)
	}
	m.mu.Unlock()

	m.notify(state, changed)
	if exhausted {
		m.logInfo("recognizer input exhausted", "run_id", runID)
		return false
	}
	m.logWarn("start recognizer", "run_id", runID, "reason", reason, "error", err.Error(), "retry_in", retryDelay.String())
	return false
}

func (m *Manager) handleStart() {
	m.mu.Lock()
	if m.state != fsm.StateStarting {
		m.mu.Unlock()
		return
	}
	state, changed := m.transitionLocked(fsm.EventStarted)
	runID := m.runID
	m.mu.Unlock()

	m.notify(state, changed)
	m.logDebug("recognizer listening", "run_id", runID)
}

func (m *Manager) handleEnd() {
	m.mu.Lock()
	if !fsm.Active(m.state) {
		// Idle after Stop, or an error retry is already pending.
		m.mu.Unlock()
		return
	}
	state, changed := m.transitionLocked(fsm.EventEnded)
	deferred := m.abortPending
	runID := m.runID
	m.mu.Unlock()

	m.notify(state, changed)
	if deferred {
		m.logDebug("recognizer ended after abort; waiting for delayed restart", "run_id", runID)
		return
	}
	m.logDebug("recognizer ended; restarting", "run_id", runID)
	m.attempt("ended", m.cfg.EndRetryDelay)
}

func (m *Manager) handleError(code recognizer.ErrorCode) {
	switch code {
	case recognizer.ErrorNetwork, recognizer.ErrorNoSpeech:
		m.logDebug("transient recognition error", "code", string(code))
		return
	case recognizer.ErrorAborted:
		m.mu.Lock()
		if m.state == fsm.StateIdle {
			m.mu.Unlock()
			return
		}
		m.lastError = string(code)
		m.abortPending = true
		m.scheduleLocked(m.cfg.AbortDelay)
		m.mu.Unlock()
		m.logDebug("recognition aborted; restart scheduled", "delay", m.cfg.AbortDelay.String())
		return
	}

	m.mu.Lock()
	if m.state == fsm.StateIdle {
		m.mu.Unlock()
		return
	}
	m.lastError = string(code)
	m.abortPending = false
	state, changed := m.transitionLocked(fsm.EventFail)
	m.scheduleLocked(m.cfg.ErrorDelay)
	m.mu.Unlock()

	m.notify(state, changed)
	m.logWarn("recognition error; restart scheduled", "code", string(code), "delay", m.cfg.ErrorDelay.String())
}

func (m *Manager) handleResult(raw string, final bool) {
	text := transcript.Normalize(raw)
	if text == "" {
		return
	}
	if m.State() == fsm.StateIdle {
		return
	}

	if m.feed != nil {
		m.feed.Push(text, final)
	}
	if !final || m.dispatcher == nil {
		return
	}
	categories := m.dispatcher.Dispatch(text)
	m.logDebug("final transcript", "transcript", text, "categories", len(categories))
}

// scheduleLocked replaces any pending restart with one firing after d.
func (m *Manager) scheduleLocked(d time.Duration) {
	m.cancelPendingLocked()
	m.pendingSeq++
	seq := m.pendingSeq
	m.pending = m.scheduler.AfterFunc(d, func() { m.fireRestart(seq) })
}

func (m *Manager) cancelPendingLocked() {
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	m.pendingSeq++
}

func (m *Manager) fireRestart(seq uint64) {
	m.mu.Lock()
	if seq != m.pendingSeq || m.state == fsm.StateIdle {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	active := fsm.Active(m.state)
	if active {
		m.abortPending = false
	}
	m.mu.Unlock()

	if active {
		m.logDebug("restart skipped; recognizer still active")
		return
	}
	m.attempt("retry", m.cfg.ErrorDelay)
}

// transitionLocked applies one event and reports the resulting state.
func (m *Manager) transitionLocked(event fsm.Event) (fsm.State, bool) {
	next, err := fsm.Transition(m.state, event)
	if err != nil {
		m.logDebug("ignored transition", "error", err.Error())
		return m.state, false
	}
	changed := next != m.state
	m.state = next
	return next, changed
}

func (m *Manager) notify(state fsm.State, changed bool) {
	if !changed || m.observer == nil {
		return
	}
	m.observer(state)
}

func (m *Manager) logDebug(msg string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Debug(msg, args...)
}

func (m *Manager) logInfo(msg string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Info(msg, args...)
}

func (m *Manager) logWarn(msg string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Warn(msg, args...)
}
