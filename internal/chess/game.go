package chess

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MovePulseMS  = 60
	ResetPulseMS = 100
)

// Speaker announces text.
type Speaker interface {
	Speak(text string, immediate bool) bool
}

// Haptics emits vibration pulses; a non-positive duration means the default pulse.
type Haptics interface {
	Pulse(ms int) bool
}

// Snapshot is a copy of the game state.
type Snapshot struct {
	Board     Board   `json:"board"`
	Turn      Color   `json:"turn"`
	Selection *Square `json:"selection,omitempty"`
	LastMove  string  `json:"last_move,omitempty"`
	Moves     int     `json:"moves"`
}

// Game is one chess game. Voice, pointer and IPC input are serialized by its mutex.
type Game struct {
	speaker Speaker
	haptics Haptics
	logger  *slog.Logger

	mu        sync.Mutex
	board     Board
	turn      Color
	selection *Square
	lastMove  string
	moves     int
}

// New returns a game in the initial position.
func New(speaker Speaker, haptics Haptics, logger *slog.Logger) *Game {
	return &Game{
		speaker: speaker,
		haptics: haptics,
		logger:  logger,
		board:   InitialBoard(),
		turn:    White,
	}
}

// Announce speaks the start-of-game prompt for the side to move.
func (g *Game) Announce() {
	g.mu.Lock()
	turn := g.turn
	g.mu.Unlock()
	g.say(fmt.Sprintf("Chess game started. %s to move.", capitalize(string(turn))))
}

// HandleTranscript interprets one chess-category transcript. Unparseable input is
// ignored; rejected moves are announced and leave the game unchanged.
func (g *Game) HandleTranscript(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	move, err := ParseMove(text)
	switch {
	case err == nil:
		g.applyLocked(move)
	case errors.Is(err, ErrInvalidSquare):
		g.say("Invalid move. Please try again.")
	default:
		g.logDebug("no chess move in transcript", "transcript", text)
	}

	if strings.Contains(text, "reset") || strings.Contains(text, "new game") {
		g.resetLocked()
	}
}

// Click handles a pointer selection of square.
func (g *Game) Click(square Square) bool {
	if !square.Valid() {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.selection == nil {
		piece := g.board.At(square)
		switch {
		case piece.Empty():
			g.say("Empty square")
		case piece.Color == g.turn:
			selected := square
			g.selection = &selected
			g.say(fmt.Sprintf("Selected %s at %s", piece.Name(), square))
			g.pulse(0)
		default:
			g.say(fmt.Sprintf("That's %s of the opponent", piece.Name()))
		}
		return true
	}

	from := *g.selection
	g.selection = nil
	if from != square {
		g.executeLocked(from, square, g.board.At(from).Name())
	}
	return true
}

// Reset restores the initial position with white to move.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := Snapshot{
		Board:    g.board,
		Turn:     g.turn,
		LastMove: g.lastMove,
		Moves:    g.moves,
	}
	if g.selection != nil {
		selected := *g.selection
		snap.Selection = &selected
	}
	return snap
}

// Render draws the board followed by turn, selection and last move.
func (g *Game) Render() string {
	snap := g.Snapshot()

	var out strings.Builder
	out.WriteString(snap.Board.String())
	fmt.Fprintf(&out, "turn: %s\n", snap.Turn)
	if snap.Selection != nil {
		fmt.Fprintf(&out, "selected: %s\n", snap.Selection)
	}
	if snap.LastMove != "" {
		fmt.Fprintf(&out, "last move: %s\n", snap.LastMove)
	}
	return out.String()
}

func (g *Game) applyLocked(move Move) {
	if move.HasFrom {
		piece := g.board.At(move.From)
		if piece.Empty() || piece.Color != g.turn {
			g.say("No valid piece at the starting position.")
			return
		}
		name := move.Piece
		if _, ok := ParseKind(name); !ok {
			name = string(piece.Kind)
		}
		g.executeLocked(move.From, move.To, name)
		return
	}

	kind, ok := ParseKind(move.Piece)
	if !ok {
		g.logDebug("unknown piece word", "piece", move.Piece)
		return
	}
	if kind != Pawn {
		g.say(fmt.Sprintf("Please specify which %s to move using its position.", kind))
		return
	}

	g.movePawnLocked(g.pawnCandidatesLocked(move.To, move.FromFile), move.To)
}

// movePawnLocked executes the move only when exactly one pawn qualifies.
func (g *Game) movePawnLocked(candidates []Square, to Square) {
	switch len(candidates) {
	case 0:
		g.say("No valid pawn can make that move.")
	case 1:
		g.executeLocked(candidates[0], to, string(Pawn))
	default:
		g.say("Multiple pawns can make that move. Please specify which pawn to move.")
	}
}

// pawnCandidatesLocked lists pawns of the side to move that can reach to by moving
// straight ahead: one step, or two steps from the home rank over an empty square.
// Whatever stands on to is replaced.
func (g *Game) pawnCandidatesLocked(to Square, file int) []Square {
	own := Piece{Color: g.turn, Kind: Pawn}
	forward, homeTarget := -1, 4
	if g.turn == Black {
		forward, homeTarget = 1, 3
	}
	behind := func(steps int) Square {
		return Square{Row: to.Row - forward*steps, Col: to.Col}
	}

	var candidates []Square
	if one := behind(1); one.Valid() && g.board.At(one) == own {
		candidates = append(candidates, one)
	}
	if two := behind(2); to.Row == homeTarget && g.board.At(two) == own && g.board.At(behind(1)).Empty() {
		candidates = append(candidates, two)
	}

	if file < 0 {
		return candidates
	}
	filtered := candidates[:0]
	for _, candidate := range candidates {
		if candidate.Col == file {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}

func (g *Game) executeLocked(from, to Square, pieceName string) {
	g.board.relocate(from, to)
	mover := g.turn
	g.turn = mover.Opponent()
	g.selection = nil
	g.moves++

	moveName := fmt.Sprintf("%s from %s to %s", capitalize(pieceName), from, to)
	g.lastMove = moveName
	g.say(fmt.Sprintf("%s. %s to move.", moveName, capitalize(string(g.turn))))
	g.pulse(MovePulseMS)
	g.logDebug("chess move", "from", from.String(), "to", to.String(), "by", string(mover))
}

func (g *Game) resetLocked() {
	g.board = InitialBoard()
	g.selection = nil
	g.turn = White
	g.lastMove = ""
	g.moves = 0
	g.say("Game reset. White to move.")
	g.pulse(ResetPulseMS)
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

// capitalize upper-cases the first word: "white knight" -> "White knight".
func capitalize(s string) string {
	first, rest, found := strings.Cut(s, " ")
	first = cases.Title(language.English).String(first)
	if !found {
		return first
	}
	return first + " " + rest
}
