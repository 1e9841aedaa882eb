// Package chess holds the chess board and interprets spoken and pointer moves.
// There is no legality checking: any own piece may move anywhere.
package chess

import (
	"fmt"
	"strings"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

type Kind string

const (
	Pawn   Kind = "pawn"
	Knight Kind = "knight"
	Bishop Kind = "bishop"
	Rook   Kind = "rook"
	Queen  Kind = "queen"
	King   Kind = "king"
)

var kindLetters = map[Kind]byte{
	Pawn:   'p',
	Knight: 'n',
	Bishop: 'b',
	Rook:   'r',
	Queen:  'q',
	King:   'k',
}

// ParseKind maps a spoken piece name to its kind.
func ParseKind(word string) (Kind, bool) {
	kind := Kind(strings.ToLower(strings.TrimSpace(word)))
	_, ok := kindLetters[kind]
	return kind, ok
}

// Piece is an occupant of a square. The zero value is an empty square.
type Piece struct {
	Color Color `json:"color,omitempty"`
	Kind  Kind  `json:"kind,omitempty"`
}

func (p Piece) Empty() bool {
	return p.Kind == ""
}

// Code is the two-letter color+kind tag, e.g. "wp".
func (p Piece) Code() string {
	if p.Empty() {
		return ""
	}
	return string([]byte{p.Color[0], kindLetters[p.Kind]})
}

// Name is the spoken form, e.g. "white pawn".
func (p Piece) Name() string {
	if p.Empty() {
		return "empty"
	}
	return string(p.Color) + " " + string(p.Kind)
}

// letter renders white in upper case and black in lower case.
func (p Piece) letter() byte {
	if p.Empty() {
		return '.'
	}
	l := kindLetters[p.Kind]
	if p.Color == White {
		return l - 'a' + 'A'
	}
	return l
}

// Square addresses the board with row 0 holding rank 8.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ParseSquare parses algebraic coordinates such as "e4".
func ParseSquare(raw string) (Square, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if len(raw) != 2 {
		return Square{}, false
	}
	col, okCol := parseFile(raw[0])
	rank, okRank := parseRank(raw[1])
	if !okCol || !okRank {
		return Square{}, false
	}
	return Square{Row: 8 - rank, Col: col}, true
}

func parseFile(b byte) (int, bool) {
	if b < 'a' || b > 'h' {
		return 0, false
	}
	return int(b - 'a'), true
}

func parseRank(b byte) (int, bool) {
	if b < '1' || b > '8' {
		return 0, false
	}
	return int(b - '0'), true
}

func (s Square) Valid() bool {
	return s.Row >= 0 && s.Row < 8 && s.Col >= 0 && s.Col < 8
}

func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+s.Col, 8-s.Row)
}

// Board is the 8x8 grid.
type Board [8][8]Piece

var backRank = [8]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// InitialBoard returns the standard starting layout.
func InitialBoard() Board {
	var b Board
	for col := 0; col < 8; col++ {
		b[0][col] = Piece{Color: Black, Kind: backRank[col]}
		b[1][col] = Piece{Color: Black, Kind: Pawn}
		b[6][col] = Piece{Color: White, Kind: Pawn}
		b[7][col] = Piece{Color: White, Kind: backRank[col]}
	}
	return b
}

func (b *Board) At(s Square) Piece {
	if !s.Valid() {
		return Piece{}
	}
	return b[s.Row][s.Col]
}

func (b *Board) set(s Square, p Piece) {
	b[s.Row][s.Col] = p
}

// relocate moves the occupant of from onto to, overwriting whatever was there.
func (b *Board) relocate(from, to Square) Piece {
	p := b.At(from)
	b.set(to, p)
	b.set(from, Piece{})
	return p
}

// Count returns how many pieces match p.
func (b *Board) Count(p Piece) int {
	n := 0
	for row := range b {
		for col := range b[row] {
			if b[row][col] == p {
				n++
			}
		}
	}
	return n
}

// String renders the board as text with rank 8 on top.
func (b *Board) String() string {
	var out strings.Builder
	for row := 0; row < 8; row++ {
		fmt.Fprintf(&out, "%d ", 8-row)
		for col := 0; col < 8; col++ {
			out.WriteByte(b[row][col].letter())
			if col < 7 {
				out.WriteByte(' ')
			}
		}
		out.WriteByte('\n')
	}
	out.WriteString("  a b c d e f g h\n")
	return out.String()
}
