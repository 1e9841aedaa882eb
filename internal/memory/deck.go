// Package memory implements the card-matching game and its spoken commands.
package memory

import (
	"math/rand/v2"

	"github.com/rbright/voxboard/internal/transcript"
)

// Symbol is one card face.
type Symbol struct {
	Glyph       string `json:"glyph"`
	Description string `json:"description"`
}

// Symbols are the card faces; each appears on exactly two cards.
var Symbols = []Symbol{
	{Glyph: "🌟", Description: "star"},
	{Glyph: "🌙", Description: "moon"},
	{Glyph: "🌈", Description: "rainbow"},
	{Glyph: "🌺", Description: "flower"},
	{Glyph: "🍎", Description: "apple"},
	{Glyph: "🐢", Description: "turtle"},
}

// Card is one position in the deck.
type Card struct {
	ID      int    `json:"id"`
	Symbol  Symbol `json:"symbol"`
	FaceUp  bool   `json:"face_up"`
	Matched bool   `json:"matched"`
}

// NewDeck returns two copies of every symbol, shuffled with r.
func NewDeck(r *rand.Rand) []Card {
	deck := make([]Card, 0, 2*len(Symbols))
	for copyIndex := 0; copyIndex < 2; copyIndex++ {
		for _, symbol := range Symbols {
			deck = append(deck, Card{ID: len(deck), Symbol: symbol})
		}
	}
	shuffle(deck, r)
	return deck
}

// shuffle is a Fisher-Yates pass.
func shuffle(deck []Card, r *rand.Rand) {
	for i := len(deck) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
}

// ParseCardNumber scans words left to right for a number word or a numeral in
// [1, deckSize]. It returns the 1-based card number.
func ParseCardNumber(text string, deckSize int) (int, bool) {
	number := -1
	for _, word := range transcript.Words(text) {
		if value, ok := transcript.NumberWord(word); ok {
			number = value
			break
		}
		if value, ok := transcript.LeadingInt(word); ok && value > 0 && value <= deckSize {
			number = value
			break
		}
	}
	if number <= 0 || number > deckSize {
		return 0, false
	}
	return number, true
}
