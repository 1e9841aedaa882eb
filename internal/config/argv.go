package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// recognizerPlaceholders are substituted by the recognizer before launch.
var recognizerPlaceholders = []string{"{device}", "{lang}"}

var placeholderPattern = regexp.MustCompile(`\{[a-z_]+\}`)

// argvScanner splits a command line the way a POSIX shell would for plain
// words, quotes and backslash escapes. Expansion is left to the caller.
type argvScanner struct {
	words  []string
	word   strings.Builder
	inWord bool
	quote  rune
	escape bool
}

func (s *argvScanner) endWord() {
	if !s.inWord {
		return
	}
	s.words = append(s.words, s.word.String())
	s.word.Reset()
	s.inWord = false
}

func (s *argvScanner) push(r rune) {
	s.word.WriteRune(r)
	s.inWord = true
}

func (s *argvScanner) feed(r rune) {
	if s.escape {
		s.push(r)
		s.escape = false
		return
	}
	if s.quote != 0 {
		if r == s.quote {
			s.quote = 0
			return
		}
		s.push(r)
		return
	}

	switch {
	case r == '\\':
		s.escape = true
	case r == '\'' || r == '"':
		s.quote = r
		s.inWord = true
	case unicode.IsSpace(r):
		s.endWord()
	default:
		s.push(r)
	}
}

func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var s argvScanner
	for _, r := range input {
		s.feed(r)
	}
	if s.escape {
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	}
	if s.quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	s.endWord()
	return s.words, nil
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}

// unknownPlaceholders lists {name} tokens in argv that the recognizer will
// pass through literally.
func unknownPlaceholders(argv []string) []string {
	var unknown []string
	for _, arg := range argv {
		for _, token := range placeholderPattern.FindAllString(arg, -1) {
			if slices.Contains(recognizerPlaceholders, token) || slices.Contains(unknown, token) {
				continue
			}
			unknown = append(unknown, token)
		}
	}
	return unknown
}
