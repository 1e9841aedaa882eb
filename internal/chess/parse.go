package chess

import (
	"errors"

	"github.com/rbright/voxboard/internal/transcript"
)

var (
	// ErrNoMove means the transcript holds no "<piece> ... to <square>" phrase.
	ErrNoMove = errors.New("no move in transcript")
	// ErrInvalidSquare means a destination looked like a square but is off the board.
	ErrInvalidSquare = errors.New("destination is not a board square")
)

// Move is one parsed spoken move.
type Move struct {
	// Piece is the spoken piece word; empty when only coordinates were said.
	Piece string
	// From is set when the full source square was spoken.
	From    Square
	HasFrom bool
	// FromFile is the spoken source file (0-7) without a rank, or -1.
	FromFile int
	To       Square
}

// ParseMove finds the first "[move] <piece> [from] [<col>[<row>]] to <col><row>"
// phrase in a normalized transcript.
func ParseMove(text string) (Move, error) {
	words := transcript.Words(text)
	sawInvalid := false

	for i, word := range words {
		if word != "to" || i+1 >= len(words) {
			continue
		}
		to, ok := ParseSquare(words[i+1])
		if !ok {
			if looksLikeSquare(words[i+1]) {
				sawInvalid = true
			}
			continue
		}

		move := Move{To: to, FromFile: -1}
		j := i - 1
		if j >= 0 {
			if from, ok := ParseSquare(words[j]); ok {
				move.From = from
				move.HasFrom = true
				j--
			} else if len(words[j]) == 1 {
				if file, ok := parseFile(words[j][0]); ok {
					move.FromFile = file
					j--
				}
			}
		}
		sourced := move.HasFrom || move.FromFile >= 0
		if sourced && j >= 0 && words[j] == "from" {
			j--
		}

		if j >= 0 && isWord(words[j]) && words[j] != "move" {
			move.Piece = words[j]
		}
		if move.Piece == "" && !move.HasFrom {
			continue
		}
		return move, nil
	}

	if sawInvalid {
		return Move{}, ErrInvalidSquare
	}
	return Move{}, ErrNoMove
}

// looksLikeSquare reports a letter followed by digits, such as "i9" or "e12".
func looksLikeSquare(word string) bool {
	if len(word) < 2 || len(word) > 3 || word[0] < 'a' || word[0] > 'z' {
		return false
	}
	for i := 1; i < len(word); i++ {
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}

func isWord(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < 'a' || word[i] > 'z' {
			return false
		}
	}
	return true
}
