package transcript

import (
	"slices"
	"strconv"
	"strings"
)

var numberWords = []string{
	"one", "two", "three", "four", "five", "six",
	"seven", "eight", "nine", "ten", "eleven", "twelve",
}

// NumberWord maps "one".."twelve" to 1..12.
func NumberWord(word string) (int, bool) {
	index := slices.Index(numberWords, word)
	if index < 0 {
		return 0, false
	}
	return index + 1, true
}

// LeadingInt parses the leading digits of word, so "3rd" reads as 3.
func LeadingInt(word string) (int, bool) {
	end := strings.IndexFunc(word, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(word)
	}
	if end == 0 {
		return 0, false
	}
	value, err := strconv.Atoi(word[:end])
	if err != nil {
		return 0, false
	}
	return value, true
}

// HasWord reports whether any of words appears as a whole word in the transcript.
func HasWord(normalized string, words ...string) bool {
	for _, field := range strings.Fields(normalized) {
		if slices.Contains(words, field) {
			return true
		}
	}
	return false
}
