// Package grammar holds the static command vocabularies used to classify transcripts.
package grammar

import (
	"fmt"
	"strings"
)

// Category names one command grammar.
type Category string

const (
	Navigation Category = "navigation"
	Chess      Category = "chess"
	Memory     Category = "memory"
	Settings   Category = "settings"
)

var order = []Category{Navigation, Chess, Memory, Settings}

// Single letters and digits in the chess set are deliberately loose so that
// misheard board coordinates still reach the chess interpreter.
var registry = map[Category][]string{
	Navigation: {
		"start", "home", "games", "settings", "exit", "back", "chess", "memory",
	},
	Chess: {
		"move", "pawn", "knight", "bishop", "rook", "queen", "king",
		"a", "b", "c", "d", "e", "f", "g", "h",
		"1", "2", "3", "4", "5", "6", "7", "8", "to",
	},
	Memory: {
		"flip", "card", "one", "two", "three", "four", "five", "six",
		"seven", "eight", "nine", "ten", "eleven", "twelve", "reset",
	},
	Settings: {
		"volume", "up", "down", "vibration", "on", "off", "voice", "speed",
		"slow", "normal", "fast", "save",
	},
}

// Categories returns every category in classification order.
func Categories() []Category {
	return append([]Category(nil), order...)
}

// Keywords returns a copy of the vocabulary for category.
func Keywords(category Category) []string {
	return append([]string(nil), registry[category]...)
}

// Matches reports whether transcript contains any keyword of category as a substring.
func Matches(transcript string, category Category) bool {
	_, ok := MatchedKeyword(transcript, category)
	return ok
}

// MatchedKeyword returns the first keyword of category found in transcript.
func MatchedKeyword(transcript string, category Category) (string, bool) {
	for _, keyword := range registry[category] {
		if strings.Contains(transcript, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// Classify returns every category matching transcript, in classification order.
func Classify(transcript string) []Category {
	if transcript == "" {
		return nil
	}
	matched := make([]Category, 0, len(order))
	for _, category := range order {
		if Matches(transcript, category) {
			matched = append(matched, category)
		}
	}
	return matched
}

// ParseCategory resolves a category from its name.
func ParseCategory(raw string) (Category, error) {
	category := Category(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := registry[category]; !ok {
		return "", fmt.Errorf("unknown command category %q", raw)
	}
	return category, nil
}
