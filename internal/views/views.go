// Package views mounts one screen at a time and wires its voice handlers to the bus.
package views

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rbright/voxboard/internal/bus"
	"github.com/rbright/voxboard/internal/chess"
	"github.com/rbright/voxboard/internal/grammar"
	"github.com/rbright/voxboard/internal/memory"
)

// NavigationPulseMS is the pulse emitted on every view change.
const NavigationPulseMS = 40

const welcome = "Welcome to voxboard. Say start or play to begin."

// Name identifies a view.
type Name string

const (
	Home     Name = "home"
	Games    Name = "games"
	Chess    Name = "chess"
	Memory   Name = "memory"
	Settings Name = "settings"
)

var titles = map[Name]string{
	Games:    "Games Menu",
	Chess:    "Voice Chess Game",
	Memory:   "Memory Card Game",
	Settings: "Settings Page",
}

// ErrUnknownView is returned for names outside the view set.
var ErrUnknownView = errors.New("unknown view")

// ParseName validates a view name.
func ParseName(raw string) (Name, error) {
	name := Name(strings.ToLower(strings.TrimSpace(raw)))
	switch name {
	case Home, Games, Chess, Memory, Settings:
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, raw)
}

// Names lists every view.
func Names() []Name {
	return []Name{Home, Games, Chess, Memory, Settings}
}

// Speaker announces text.
type Speaker interface {
	Speak(text string, immediate bool) bool
}

// Haptics emits vibration pulses.
type Haptics interface {
	Pulse(ms int) bool
}

// SettingsHandler interprets settings-category transcripts.
type SettingsHandler interface {
	HandleTranscript(text string)
}

// Deps are the collaborators of a Navigator. Bus is required.
type Deps struct {
	Bus       *bus.Bus
	Speaker   Speaker
	Haptics   Haptics
	NewChess  func() *chess.Game
	NewMemory func() *memory.Game
	Settings  SettingsHandler
	Logger    *slog.Logger
	Observer  func(Name)
}

// Navigator owns the mounted view. Dispatch is serialized so a view swap requested
// by a handler is applied only after every handler of that dispatch has run.
type Navigator struct {
	deps Deps

	dispatchMu sync.Mutex

	mu        sync.Mutex
	current   Name
	mounted   bool
	unsubs    []bus.Unsubscribe
	requested *Name
	chess     *chess.Game
	memory    *memory.Game
}

// New returns a navigator with nothing mounted.
func New(deps Deps) *Navigator {
	if deps.NewChess == nil {
		deps.NewChess = func() *chess.Game { return chess.New(deps.Speaker, deps.Haptics, deps.Logger) }
	}
	if deps.NewMemory == nil {
		deps.NewMemory = func() *memory.Game {
			return memory.New(memory.DefaultConfig(), memory.Deps{Speaker: deps.Speaker, Haptics: deps.Haptics, Logger: deps.Logger})
		}
	}
	return &Navigator{deps: deps}
}

// Start mounts the home view.
func (n *Navigator) Start() {
	n.dispatchMu.Lock()
	defer n.dispatchMu.Unlock()
	n.switchTo(Home, false)
}

// Dispatch forwards transcript to the bus, then applies any view change that a
// handler requested during delivery.
func (n *Navigator) Dispatch(transcript string) []grammar.Category {
	n.dispatchMu.Lock()
	defer n.dispatchMu.Unlock()

	matched := n.deps.Bus.Dispatch(transcript)

	n.mu.Lock()
	requested := n.requested
	n.requested = nil
	n.mu.Unlock()

	if requested != nil {
		n.switchTo(*requested, true)
	}
	return matched
}

// Go mounts name directly, as a pointer click on a navigation link would.
func (n *Navigator) Go(name Name) error {
	if _, err := ParseName(string(name)); err != nil {
		return err
	}
	n.dispatchMu.Lock()
	defer n.dispatchMu.Unlock()
	n.switchTo(name, true)
	return nil
}

// Current returns the mounted view.
func (n *Navigator) Current() Name {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Chess returns the mounted chess game, or nil when another view is mounted.
func (n *Navigator) Chess() *chess.Game {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chess
}

// Memory returns the mounted memory game, or nil when another view is mounted.
func (n *Navigator) Memory() *memory.Game {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.memory
}

// Close unmounts the current view.
func (n *Navigator) Close() {
	n.dispatchMu.Lock()
	defer n.dispatchMu.Unlock()
	n.unmount()
}

// request records a view change from inside a bus handler.
func (n *Navigator) request(name Name) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested = &name
}

// switchTo must be called with dispatchMu held.
func (n *Navigator) switchTo(name Name, pulse bool) {
	n.mu.Lock()
	same := n.mounted && n.current == name
	n.mu.Unlock()
	if same {
		return
	}

	n.unmount()
	if pulse && n.deps.Haptics != nil {
		n.deps.Haptics.Pulse(NavigationPulseMS)
	}
	n.mount(name)
	n.logInfo("view mounted", "view", string(name))
	if n.deps.Observer != nil {
		n.deps.Observer(name)
	}
}

func (n *Navigator) mount(name Name) {
	var (
		unsubs    []bus.Unsubscribe
		chessGame *chess.Game
		memGame   *memory.Game
	)
	subscribe := func(category grammar.Category, handler bus.Handler) {
		unsubs = append(unsubs, n.deps.Bus.Subscribe(category, handler))
	}

	switch name {
	case Home:
		subscribe(grammar.Navigation, n.homeNavigation)
	case Games:
		subscribe(grammar.Navigation, n.gamesNavigation)
	case Chess:
		chessGame = n.deps.NewChess()
		subscribe(grammar.Chess, chessGame.HandleTranscript)
		subscribe(grammar.Navigation, n.gameNavigation)
	case Memory:
		memGame = n.deps.NewMemory()
		subscribe(grammar.Memory, memGame.HandleTranscript)
		subscribe(grammar.Navigation, n.gameNavigation)
	case Settings:
		if n.deps.Settings != nil {
			subscribe(grammar.Settings, n.deps.Settings.HandleTranscript)
		}
		subscribe(grammar.Navigation, n.settingsNavigation)
	}

	n.mu.Lock()
	n.current = name
	n.mounted = true
	n.unsubs = unsubs
	n.chess = chessGame
	n.memory = memGame
	n.mu.Unlock()

	switch name {
	case Home:
		n.say(welcome)
	case Chess:
		n.say(titles[name])
		chessGame.Announce()
	case Memory:
		n.say(titles[name])
		memGame.Start()
	default:
		n.say(titles[name])
	}
}

func (n *Navigator) unmount() {
	n.mu.Lock()
	unsubs := n.unsubs
	memGame := n.memory
	n.unsubs = nil
	n.chess = nil
	n.memory = nil
	n.mounted = false
	n.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
	if memGame != nil {
		memGame.Stop()
	}
}

func (n *Navigator) homeNavigation(text string) {
	switch {
	case strings.Contains(text, "start") || strings.Contains(text, "play"):
		switch {
		case strings.Contains(text, "chess"):
			n.request(Chess)
		case strings.Contains(text, "memory"):
			n.request(Memory)
		default:
			n.request(Games)
		}
	case strings.Contains(text, "settings"):
		n.request(Settings)
	}
}

func (n *Navigator) gamesNavigation(text string) {
	switch {
	case strings.Contains(text, "chess"):
		n.request(Chess)
	case strings.Contains(text, "memory"):
		n.request(Memory)
	case strings.Contains(text, "back") || strings.Contains(text, "home"):
		n.request(Home)
	}
}

func (n *Navigator) gameNavigation(text string) {
	switch {
	case strings.Contains(text, "home"):
		n.request(Home)
	case strings.Contains(text, "back") || strings.Contains(text, "exit"):
		n.request(Games)
	}
}

func (n *Navigator) settingsNavigation(text string) {
	if strings.Contains(text, "back") || strings.Contains(text, "home") {
		n.request(Home)
	}
}

func (n *Navigator) say(text string) {
	if n.deps.Speaker == nil {
		return
	}
	n.deps.Speaker.Speak(text, false)
}

func (n *Navigator) logInfo(msg string, args ...any) {
	if n.deps.Logger == nil {
		return
	}
	n.deps.Logger.Info(msg, args...)
}
