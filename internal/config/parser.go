package config

import (
	"errors"
	"strings"
)

// ErrNotJSONC is returned when content is not a JSONC object.
var ErrNotJSONC = errors.New("config must be a JSONC object")

// Parse reads JSONC configuration content over base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	if !strings.HasPrefix(trimmed, "{") {
		return Config{}, nil, ErrNotJSONC
	}
	return parseJSONC(content, base)
}
