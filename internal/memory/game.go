package memory

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rbright/voxboard/internal/clock"
)

const (
	MatchPulseMS = 100
	ResetPulseMS = 100
)

// Config holds the resolution delays.
type Config struct {
	MatchDelay    time.Duration
	MismatchDelay time.Duration
	CompleteDelay time.Duration
}

// DefaultConfig returns the stock delays.
func DefaultConfig() Config {
	return Config{
		MatchDelay:    time.Second,
		MismatchDelay: 1500 * time.Millisecond,
		CompleteDelay: time.Second,
	}
}

// Speaker announces text.
type Speaker interface {
	Speak(text string, immediate bool) bool
}

// Haptics emits vibration pulses; a non-positive duration means the default pulse.
type Haptics interface {
	Pulse(ms int) bool
}

// Deps are the collaborators of a Game. All are optional.
type Deps struct {
	Speaker   Speaker
	Haptics   Haptics
	Scheduler clock.Scheduler
	Rand      *rand.Rand
	Logger    *slog.Logger
}

// Snapshot is a copy of the game state.
type Snapshot struct {
	Cards      []Card `json:"cards"`
	Flipped    []int  `json:"flipped"`
	Matches    int    `json:"matches"`
	Moves      int    `json:"moves"`
	Generation uint64 `json:"generation"`
	Complete   bool   `json:"complete"`
}

// Game is one memory game. Voice, pointer and timer callbacks are serialized by its mutex.
type Game struct {
	cfg       Config
	speaker   Speaker
	haptics   Haptics
	scheduler clock.Scheduler
	logger    *slog.Logger

	mu         sync.Mutex
	rand       *rand.Rand
	deck       []Card
	flipped    []int
	matches    int
	moves      int
	generation uint64
}

// New returns a game with a freshly shuffled deck.
func New(cfg Config, deps Deps) *Game {
	defaults := DefaultConfig()
	if cfg.MatchDelay <= 0 {
		cfg.MatchDelay = defaults.MatchDelay
	}
	if cfg.MismatchDelay <= 0 {
		cfg.MismatchDelay = defaults.MismatchDelay
	}
	if cfg.CompleteDelay <= 0 {
		cfg.CompleteDelay = defaults.CompleteDelay
	}
	scheduler := deps.Scheduler
	if scheduler == nil {
		scheduler = clock.Real{}
	}
	r := deps.Rand
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	g := &Game{
		cfg:       cfg,
		speaker:   deps.Speaker,
		haptics:   deps.Haptics,
		scheduler: scheduler,
		logger:    deps.Logger,
		rand:      r,
	}
	g.deck = NewDeck(g.rand)
	return g
}

// Start deals a new deck and announces how to play.
func (g *Game) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dealLocked()
	g.say(`Memory game started. Flip cards by saying "flip card 1" or by touching them.`)
}

// HandleTranscript interprets one memory-category transcript.
func (g *Game) HandleTranscript(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.Contains(text, "flip") || strings.Contains(text, "card") {
		if number, ok := ParseCardNumber(text, len(g.deck)); ok {
			g.flipLocked(number - 1)
		} else {
			g.say("Please specify a valid card number.")
		}
	}

	if strings.Contains(text, "reset") || strings.Contains(text, "new game") {
		g.resetLocked()
	}
}

// Flip turns over the card at the zero-based index, as a touch would.
func (g *Game) Flip(index int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if index < 0 || index >= len(g.deck) {
		return false
	}
	return g.flipLocked(index)
}

// Reset deals a new deck and zeroes the counters. Pending resolutions become no-ops.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

// Stop invalidates pending resolutions without announcing anything.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generation++
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		Cards:      append([]Card(nil), g.deck...),
		Flipped:    append([]int(nil), g.flipped...),
		Matches:    g.matches,
		Moves:      g.moves,
		Generation: g.generation,
		Complete:   g.matches == len(g.deck)/2,
	}
}

// Render draws the deck four cards per row; hidden cards show "?".
func (g *Game) Render() string {
	snap := g.Snapshot()

	var out strings.Builder
	for i, card := range snap.Cards {
		face := "?"
		switch {
		case card.Matched:
			face = card.Symbol.Description + "*"
		case card.FaceUp:
			face = card.Symbol.Description
		}
		fmt.Fprintf(&out, "%2d:%-9s", i+1, face)
		if i%4 == 3 || i == len(snap.Cards)-1 {
			out.WriteString("\n")
		} else {
			out.WriteString(" ")
		}
	}
	fmt.Fprintf(&out, "matches: %d/%d moves: %d\n", snap.Matches, len(snap.Cards)/2, snap.Moves)
	return out.String()
}

func (g *Game) flipLocked(index int) bool {
	card := g.deck[index]
	if card.FaceUp || card.Matched {
		g.say("Card already flipped or matched.")
		return false
	}
	if len(g.flipped) >= 2 {
		return false
	}

	g.pulse(0)
	g.say(fmt.Sprintf("Card %d: %s", index+1, card.Symbol.Description))
	g.deck[index].FaceUp = true
	g.flipped = append(g.flipped, index)

	if len(g.flipped) == 2 {
		g.moves++
		first, second := g.flipped[0], g.flipped[1]
		generation := g.generation
		if g.deck[first].Symbol == g.deck[second].Symbol {
			g.scheduler.AfterFunc(g.cfg.MatchDelay, func() { g.resolveMatch(generation, first, second) })
		} else {
			g.scheduler.AfterFunc(g.cfg.MismatchDelay, func() { g.resolveMismatch(generation, first, second) })
		}
	}
	return true
}

func (g *Game) resolveMatch(generation uint64, first, second int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if generation != g.generation {
		return
	}

	g.deck[first].Matched = true
	g.deck[second].Matched = true
	g.flipped = nil
	g.matches++
	g.say("Match found!")
	g.pulse(MatchPulseMS)

	if g.matches == len(g.deck)/2 {
		moves := g.moves
		g.scheduler.AfterFunc(g.cfg.CompleteDelay, func() { g.announceComplete(generation, moves) })
	}
}

func (g *Game) resolveMismatch(generation uint64, first, second int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if generation != g.generation {
		return
	}

	g.deck[first].FaceUp = false
	g.deck[second].FaceUp = false
	g.flipped = nil
	g.say("No match.")
}

func (g *Game) announceComplete(generation uint64, moves int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if generation != g.generation {
		return
	}
	g.say(fmt.Sprintf("Congratulations! You completed the game in %d moves.", moves))
	g.logDebug("memory game complete", "moves", moves)
}

func (g *Game) resetLocked() {
	g.dealLocked()
	g.say("Game reset.")
	g.pulse(ResetPulseMS)
}

func (g *Game) dealLocked() {
	g.deck = NewDeck(g.rand)
	g.flipped = nil
	g.matches = 0
	g.moves = 0
	g.generation++
}

func (g *Game) say(text string) {
	if g.speaker == nil {
		return
	}
	g.speaker.Speak(text, false)
}

func (g *Game) pulse(ms int) {
	if g.haptics == nil {
		return
	}
	g.haptics.Pulse(ms)
}

func (g *Game) logDebug(msg string, args ...any) {
	if g.logger == nil {
		return
	}
	g.logger.Debug(msg, args...)
}
