// Package transcript normalizes recognized text and reads spoken numbers.
package transcript

import (
	"strings"
	"unicode"
)

// Normalize converts one raw recognizer alternative into command-ready text:
// trimmed, lowercased, whitespace-collapsed, without trailing sentence punctuation.
func Normalize(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return ""
	}

	out := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimRight(field, ".,!?;:")
		field = joinCoordinate(field)
		if field == "" {
			continue
		}
		out = append(out, field)
	}
	return strings.Join(out, " ")
}

// joinCoordinate turns "e-4" into "e4" so board squares survive hyphenating recognizers.
func joinCoordinate(field string) string {
	runes := []rune(field)
	if len(runes) != 3 || runes[1] != '-' {
		return field
	}
	if unicode.IsLetter(runes[0]) && unicode.IsDigit(runes[2]) {
		return string([]rune{runes[0], runes[2]})
	}
	return field
}

// Words splits a normalized transcript into tokens.
func Words(normalized string) []string {
	return strings.Fields(normalized)
}
