// Package indicator shows the recognition session state on the desktop and plays
// short audio cues when listening starts or stops.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/voxboard/internal/config"
	"github.com/rbright/voxboard/internal/fsm"
	"github.com/rbright/voxboard/internal/hypr"
	"github.com/rbright/voxboard/internal/tone"
)

const (
	colorListening  = "rgb(89b4fa)"
	colorRestarting = "rgb(cba6f7)"
	colorError      = "rgb(f38ba8)"
	colorInactive   = "rgb(6c7086)"

	listeningTimeoutMS = 300000
)

// HyprNotify routes session state through Hyprland or desktop DBus notifications
// based on config backend.
type HyprNotify struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages
	player   tone.Player
	updates  chan fsm.State

	mu                    sync.Mutex
	last                  fsm.State
	desktopNotificationID uint32
	soundMu               sync.Mutex
	cues                  sync.WaitGroup
}

// NewHyprNotify creates an indicator from config. Cues play on the default
// PulseAudio sink.
func NewHyprNotify(cfg config.IndicatorConfig, logger *slog.Logger) *HyprNotify {
	return &HyprNotify{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv().withOverrides(cfg),
		player:   tone.Pulse{AppName: "voxboard", IconName: "audio-input-microphone", MediaName: "voxboard indicator cue"},
		updates:  make(chan fsm.State, 16),
		last:     fsm.StateIdle,
	}
}

// Observe queues a session state change for Run. It never blocks the caller.
func (h *HyprNotify) Observe(state fsm.State) {
	select {
	case h.updates <- state:
	default:
		h.log("indicator update dropped", nil, "state", string(state))
	}
}

// Run applies queued state changes until ctx is cancelled, then hides the indicator.
func (h *HyprNotify) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			hideCtx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
			h.Hide(hideCtx)
			cancel()
			h.cues.Wait()
			return nil
		case state := <-h.updates:
			h.Show(ctx, state)
		}
	}
}

// Show renders state immediately.
func (h *HyprNotify) Show(ctx context.Context, state fsm.State) {
	h.mu.Lock()
	previous := h.last
	h.last = state
	h.mu.Unlock()
	if previous == state {
		return
	}

	switch state {
	case fsm.StateListening:
		h.playCue(cueStart)
		h.display(ctx, 1, listeningTimeoutMS, colorListening, h.messages.listening)
	case fsm.StateStarting, fsm.StateRestarting:
		if previous == fsm.StateIdle {
			return
		}
		h.display(ctx, 1, h.errorTimeout(), colorRestarting, h.messages.restarting)
	case fsm.StateError:
		h.playCue(cueError)
		h.display(ctx, 3, h.errorTimeout(), colorError, h.messages.restarting)
	case fsm.StateIdle:
		h.playCue(cueStop)
		h.display(ctx, 0, h.errorTimeout(), colorInactive, h.messages.inactive)
	}
}

// Hide dismisses the active indicator surface.
func (h *HyprNotify) Hide(ctx context.Context) {
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, h.dismiss)
}

func (h *HyprNotify) display(ctx context.Context, icon int, timeoutMS int, color string, text string) {
	if !h.cfg.Enable {
		return
	}
	h.run(ctx, func(ctx context.Context) error {
		return h.notify(ctx, icon, timeoutMS, color, text)
	})
}

func (h *HyprNotify) errorTimeout() int {
	if h.cfg.ErrorTimeoutMS <= 0 {
		return 1200
	}
	return h.cfg.ErrorTimeoutMS
}

func (h *HyprNotify) desktopBackend() bool {
	return strings.EqualFold(strings.TrimSpace(h.cfg.Backend), "desktop")
}

// notify dispatches indicator output through the configured backend.
func (h *HyprNotify) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if h.desktopBackend() {
		return h.notifyDesktop(ctx, timeoutMS, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

// dismiss removes indicator output from the configured backend.
func (h *HyprNotify) dismiss(ctx context.Context) error {
	if h.desktopBackend() {
		return h.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (h *HyprNotify) notifyDesktop(ctx context.Context, timeoutMS int, text string) error {
	h.mu.Lock()
	replaceID := h.desktopNotificationID
	h.mu.Unlock()

	appName := strings.TrimSpace(h.cfg.DesktopAppName)
	if appName == "" {
		appName = "voxboard-indicator"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.desktopNotificationID = id
	h.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (h *HyprNotify) dismissDesktop(ctx context.Context) error {
	h.mu.Lock()
	id := h.desktopNotificationID
	h.desktopNotificationID = 0
	h.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (h *HyprNotify) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		h.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (h *HyprNotify) playCue(kind cueKind) {
	if !h.cfg.SoundEnable || h.player == nil {
		return
	}
	h.cues.Add(1)
	go func() {
		defer h.cues.Done()
		h.soundMu.Lock()
		defer h.soundMu.Unlock()
		if err := h.player.Play(cueSamples(kind)); err != nil {
			h.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (h *HyprNotify) log(message string, err error, args ...any) {
	if h.logger == nil {
		return
	}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	h.logger.Debug(message, args...)
}
